// Package commandlog implements the append-only command log (ACL): a
// checksummed, batch-written, crash-recoverable journal of every write
// command applied to a database engine, plus atomic compaction via rewrite.
//
// Grounded on _examples/original_source/src/core/persistence.rs (AofLogger):
// the batched writer goroutine draining up to 500 queued ops per flush, the
// `CRC32:<hex>:<command>` line framing, and rewrite-via-temp-file-then-rename
// are all carried over. The load-time BEGIN/COMMIT transaction-marker state
// machine is new — spec.md describes it but the original persistence.rs has
// no transaction markers in its log format (see DESIGN.md).
package commandlog

import (
	"bufio"
	"fmt"
	"hash/crc32"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/unsetsoft/toridb/pkg/log"
	"github.com/unsetsoft/toridb/pkg/metrics"
)

const (
	crcPrefix    = "CRC32:"
	maxBatchSize = 500
	queueDepth   = 10000
)

type opKind int

const (
	opLog opKind = iota
	opRewrite
)

type logOp struct {
	kind     opKind
	command  string   // opLog
	commands []string // opRewrite
}

// Log is a single database's append-only command journal.
type Log struct {
	dbName string
	path   string

	ops  chan logOp
	done chan struct{}

	mu   sync.Mutex
	file *os.File
}

// Open creates (or appends to) the on-disk log file for dbName under dir,
// and starts its dedicated writer goroutine.
func Open(dir, dbName string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := fmt.Sprintf("%s/%s.db", dir, dbName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	l := &Log{
		dbName: dbName,
		path:   path,
		ops:    make(chan logOp, queueDepth),
		done:   make(chan struct{}),
		file:   f,
	}
	go l.run()
	return l, nil
}

// run drains l.ops, group-committing each batch of up to maxBatchSize ops
// with a single flush at the end.
func (l *Log) run() {
	defer close(l.done)
	for first := range l.ops {
		batch := make([]logOp, 0, maxBatchSize)
		batch = append(batch, first)
	drain:
		for len(batch) < maxBatchSize {
			select {
			case op, ok := <-l.ops:
				if !ok {
					break drain
				}
				batch = append(batch, op)
			default:
				break drain
			}
		}

		needsFlush := false
		l.mu.Lock()
		for _, op := range batch {
			switch op.kind {
			case opLog:
				if err := l.writeLocked(op.command); err != nil {
					log.Errorf("commandlog: write failed for db %s: %v", l.dbName, err)
					continue
				}
				metrics.LogAppendsTotal.WithLabelValues(l.dbName).Inc()
				needsFlush = true
			case opRewrite:
				if err := l.rewriteLocked(op.commands); err != nil {
					log.Errorf("commandlog: rewrite failed for db %s: %v", l.dbName, err)
					continue
				}
				metrics.LogRewritesTotal.WithLabelValues(l.dbName).Inc()
			}
		}
		if needsFlush {
			if err := l.file.Sync(); err != nil {
				log.Errorf("commandlog: flush failed for db %s: %v", l.dbName, err)
			}
		}
		l.mu.Unlock()
	}
}

func (l *Log) writeLocked(command string) error {
	checksum := crc32.ChecksumIEEE([]byte(command))
	_, err := fmt.Fprintf(l.file, "%s%08x:%s\n", crcPrefix, checksum, command)
	return err
}

func (l *Log) rewriteLocked(commands []string) error {
	tmpPath := l.path + ".rewrite"
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(tmp)
	for _, cmd := range commands {
		checksum := crc32.ChecksumIEEE([]byte(cmd))
		if _, err := fmt.Fprintf(w, "%s%08x:%s\n", crcPrefix, checksum, cmd); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		return err
	}
	if err := l.file.Close(); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	l.file = f
	return nil
}

// Append enqueues command for the writer goroutine. Non-blocking: if the
// queue is saturated, the write has still taken effect in memory (the log
// is append-after-apply) but the command log entry is dropped and an error
// is returned for the caller to log (spec.md §9 Open Question 3).
func (l *Log) Append(command string) error {
	select {
	case l.ops <- logOp{kind: opLog, command: command}:
		return nil
	default:
		return fmt.Errorf("commandlog: queue full for db %s", l.dbName)
	}
}

// Rewrite replaces the entire log with commands, atomically. Blocks until
// queued (compaction is rare and deliberately serialized behind pending
// writes).
func (l *Log) Rewrite(commands []string) {
	l.ops <- logOp{kind: opRewrite, commands: commands}
}

// Close stops the writer goroutine and closes the underlying file.
func (l *Log) Close() error {
	close(l.ops)
	<-l.done
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Load replays the on-disk log into an ordered list of command texts.
//
// Lines framed as "CRC32:<hex>:<command>" are checksum-verified; a mismatch
// stops replay at that line (I6) and logs a warning, leaving every
// already-validated command in the returned slice. Unframed lines (legacy
// or manually appended) are accepted as-is. BEGIN/COMMIT markers bracket a
// transaction: its buffered commands are only appended to the result on
// COMMIT; a second BEGIN while one is open discards the stale buffer, and an
// unterminated transaction at end-of-file is discarded entirely.
func (l *Log) Load() ([]string, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var commands []string
	var txBuf []string
	inTx := false

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		var cmd string
		if strings.HasPrefix(line, crcPrefix) {
			parts := strings.SplitN(line, ":", 3)
			if len(parts) != 3 {
				log.Errorf("commandlog: malformed line %d in %s, skipping", lineNo, l.path)
				continue
			}
			stored, err := strconv.ParseUint(parts[1], 16, 32)
			if err != nil {
				log.Errorf("commandlog: malformed checksum at line %d in %s, skipping", lineNo, l.path)
				continue
			}
			cmd = parts[2]
			if uint32(stored) != crc32.ChecksumIEEE([]byte(cmd)) {
				log.Errorf("commandlog: CRC mismatch at line %d in %s, stopping replay", lineNo, l.path)
				break
			}
		} else {
			cmd = line
		}

		switch {
		case cmd == "BEGIN":
			txBuf = nil
			inTx = true
		case cmd == "COMMIT":
			if inTx {
				commands = append(commands, txBuf...)
			}
			txBuf = nil
			inTx = false
		case inTx:
			txBuf = append(txBuf, cmd)
		default:
			commands = append(commands, cmd)
		}
	}
	if err := scanner.Err(); err != nil {
		return commands, err
	}
	return commands, nil
}
