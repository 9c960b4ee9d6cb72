package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"

	"github.com/unsetsoft/toridb/pkg/executor"
	"github.com/unsetsoft/toridb/pkg/log"
	"github.com/unsetsoft/toridb/pkg/parser"
	"github.com/unsetsoft/toridb/pkg/protocol"
	"github.com/unsetsoft/toridb/pkg/worker"
)

// handleConnection runs the full per-client lifecycle: decode a frame,
// dispatch it, encode and write the reply, until the client disconnects or
// a PSYNC switches this connection permanently into replica fan-out mode.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	addr := conn.RemoteAddr().String()
	defer conn.Close()

	reader := bufio.NewReader(conn)
	sess := executor.NewSession(addr, s.cfg.DBName)

	for {
		val, err := protocol.Decode(reader)
		if err != nil {
			return
		}

		line, err := commandLine(val)
		if err != nil {
			conn.Write(protocol.Encode(protocol.Error("invalid command format")))
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd, perr := parser.Parse(line)
		var resp string
		var marker *string
		if perr != nil {
			resp = "ERROR: Syntax Error"
		} else {
			eng, cmdLog, replayed, created, gerr := s.registry.GetOrCreate(sess.CurrentDB)
			if gerr != nil {
				conn.Write(protocol.Encode(protocol.Error("could not open database: " + gerr.Error())))
				continue
			}
			if created && len(replayed) > 0 {
				if err := s.executor.Replay(eng, replayed); err != nil {
					log.Errorf("server: replay failed for "+sess.CurrentDB, err)
				}
			}
			eng.RegisterClient(addr, sessionUsername(sess))

			reply, submitErr := s.pool.Submit(ctx, worker.Request{
				Cmd:     cmd,
				RawCmd:  line,
				Session: sess,
				Engine:  eng,
				Log:     cmdLog,
			})
			if submitErr != nil {
				conn.Write(protocol.Encode(protocol.Error("internal worker error: " + submitErr.Error())))
				return
			}
			resp, marker = reply.Resp, reply.Hash

			eng.RegisterClient(addr, sessionUsername(sess))

			if resp == "_PSYNC_OK" {
				s.runReplicaFanOut(eng, conn, addr)
				return
			}
			if marker != nil && *marker == "_CONNECT_TO_MASTER" {
				go s.connectToMaster(eng, cmdLog, cmd.Host, cmd.Port)
			}
		}

		if _, err := conn.Write(protocol.Encode(protocol.EncodeResponse(resp))); err != nil {
			return
		}
	}
}

func sessionUsername(sess *executor.Session) string {
	if sess.User == nil {
		return "unauthenticated"
	}
	return sess.User.Username
}

// commandLine extracts the raw command text pkg/parser consumes from a
// decoded frame: an array of bulk strings is flattened via
// protocol.ToCommandString, anything else (the inline-mode fallback) is
// already a plain command line in Value.Str.
func commandLine(v protocol.Value) (string, error) {
	if v.Kind == protocol.KindArray {
		return protocol.ToCommandString(v)
	}
	if v.Kind == protocol.KindSimpleString {
		return v.Str, nil
	}
	return "", errors.New("server: unsupported frame shape for a command")
}
