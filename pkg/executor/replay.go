package executor

import (
	"strings"

	"github.com/unsetsoft/toridb/pkg/commandlog"
	"github.com/unsetsoft/toridb/pkg/engine"
	"github.com/unsetsoft/toridb/pkg/log"
	"github.com/unsetsoft/toridb/pkg/parser"
	"github.com/unsetsoft/toridb/pkg/security"
)

// bootstrapUser has every permission; it is never stored in a Store and
// never reachable over AUTH, only held transiently by Replay/ApplyReplicated.
var bootstrapUser = security.User{Username: "system", Rules: []string{"+@all"}}

// Replay re-applies already-logged command text against a freshly recovered
// engine, bypassing auth, permission checks, and the replica read-only gate:
// the commands were already accepted once (that's why they're in the log),
// so none of those checks should run again. Nothing is re-appended to
// cmdLog or re-propagated to replicas. Stops at the first command that
// fails to parse, matching spec.md §7's "CRC mismatch during replay stops
// replay and leaves the engine with whatever was validly replayed".
func (ex *Executor) Replay(eng *engine.Engine, commands []string) error {
	sess := &Session{User: &bootstrapUser, Addr: "replay", CurrentDB: eng.DBName}
	for _, line := range commands {
		cmd, err := parser.Parse(line)
		if err != nil {
			log.Errorf("executor: replay stopped on unparseable command", err)
			return err
		}
		if resp, _ := ex.dispatchStore(eng, cmd, nil, sess); strings.HasPrefix(resp, "ERROR") {
			log.Warn("executor: replayed command returned an error: " + resp)
		}
	}
	return nil
}

// ApplyReplicated parses and applies one command line received from a
// master over the replication stream, appending it to this replica's own
// local log so a future restart of the replica replays it too. Unlike
// Execute, it does not consult eng.Replication.IsMaster(): the whole point
// of this path is to accept writes on a node that has made itself a
// replica.
func (ex *Executor) ApplyReplicated(eng *engine.Engine, cmdLog *commandlog.Log, rawCmd string) (string, error) {
	cmd, err := parser.Parse(rawCmd)
	if err != nil {
		return "", err
	}
	sess := &Session{User: &bootstrapUser, Addr: "replica-stream", CurrentDB: eng.DBName}

	eng.TxMu.Lock()
	resp, _ := ex.dispatchStore(eng, cmd, cmdLog, sess)
	eng.TxMu.Unlock()

	if cmd.IsWrite() && !strings.HasPrefix(resp, "ERROR") {
		appendLog(cmdLog, rawCmd)
	}
	return resp, nil
}
