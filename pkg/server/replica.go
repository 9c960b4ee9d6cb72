package server

import (
	"fmt"
	"net"

	"github.com/unsetsoft/toridb/pkg/engine"
	"github.com/unsetsoft/toridb/pkg/log"
	"github.com/unsetsoft/toridb/pkg/protocol"
)

// runReplicaFanOut takes over conn once a PSYNC has been accepted: it
// registers addr as a replica, sends the full-resync stream (every command
// needed to reconstruct eng's current state), then forwards every
// subsequently propagated write until the channel closes or the write
// fails. The connection is never read from again after this point, mirroring
// main.rs's accept loop returning out of its read loop into a pure write
// loop on PSYNC.
func (s *Server) runReplicaFanOut(eng *engine.Engine, conn net.Conn, addr string) {
	ch := eng.Replication.AddReplica(addr)
	defer eng.Replication.RemoveReplica(addr)

	cmds := eng.GenerateRewriteCommands()
	header := protocol.SimpleString(fmt.Sprintf("FULLRESYNC %d 0", len(cmds)))
	if _, err := conn.Write(protocol.Encode(header)); err != nil {
		return
	}
	for _, c := range cmds {
		if _, err := conn.Write(protocol.Encode(protocol.BulkString(c))); err != nil {
			return
		}
	}
	if _, err := conn.Write(protocol.Encode(protocol.SimpleString("SYNC_COMPLETE"))); err != nil {
		return
	}
	log.Info("server: replica " + addr + " attached, full resync sent")

	for cmd := range ch {
		if _, err := conn.Write(protocol.Encode(protocol.BulkString(cmd))); err != nil {
			log.Info("server: replica " + addr + " disconnected")
			return
		}
	}
}
