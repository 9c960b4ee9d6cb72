package server

import (
	"bufio"
	"net"
	"strings"

	"github.com/unsetsoft/toridb/pkg/commandlog"
	"github.com/unsetsoft/toridb/pkg/engine"
	"github.com/unsetsoft/toridb/pkg/log"
	"github.com/unsetsoft/toridb/pkg/protocol"
)

// connectToMaster implements the replica side of the handshake spec.md
// describes: dial the master, PING, PSYNC, consume the FULLRESYNC bulk
// stream, then apply every subsequently streamed command line until the
// connection drops. There is no reconnect/resync-on-drop loop (see
// DESIGN.md's Open Question 2 decision): a dropped master connection
// leaves this node a replica with whatever it had applied so far.
func (s *Server) connectToMaster(eng *engine.Engine, cmdLog *commandlog.Log, host, port string) {
	addr := net.JoinHostPort(host, port)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		log.Errorf("server: replica dial to master "+addr+" failed", err)
		return
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)

	if _, err := conn.Write(protocol.Encode(protocol.SimpleString("PING"))); err != nil {
		log.Errorf("server: replica handshake PING to "+addr+" failed", err)
		return
	}
	if _, err := protocol.Decode(reader); err != nil {
		log.Errorf("server: replica handshake PING reply from "+addr+" failed", err)
		return
	}

	if _, err := conn.Write(protocol.Encode(protocol.SimpleString("PSYNC"))); err != nil {
		log.Errorf("server: replica handshake PSYNC to "+addr+" failed", err)
		return
	}

	log.Info("server: replica connected to master " + addr + ", awaiting full resync")

	for {
		val, err := protocol.Decode(reader)
		if err != nil {
			log.Errorf("server: replica stream from "+addr+" ended", err)
			return
		}

		switch {
		case val.Kind == protocol.KindSimpleString && strings.HasPrefix(val.Str, "FULLRESYNC"):
			// Informational count line; the bulk commands that follow are
			// self-describing, so nothing to parse out of this header.
			continue
		case val.Kind == protocol.KindSimpleString && val.Str == "SYNC_COMPLETE":
			log.Info("server: replica full resync from " + addr + " complete")
			continue
		case val.Kind == protocol.KindBulkString && !val.Null:
			if _, err := s.executor.ApplyReplicated(eng, cmdLog, val.Bulk); err != nil {
				log.Errorf("server: replica failed to apply command from "+addr, err)
			}
		}
	}
}
