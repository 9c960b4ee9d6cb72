// Package executor implements the command dispatch pipeline: auth, ACL,
// slot-ownership routing, replica read-only gating, transaction buffering,
// and per-command execution against a database Engine.
//
// Grounded on _examples/original_source/src/core/executor.rs. Unlike the
// Rust original (where the worker pool logs and propagates after calling
// execute_command), logging and replication propagation happen here,
// inside dispatch, matching spec.md's framing of "dispatch ... on success
// and if write, appended to the log and broadcast" as one step rather than
// two. pkg/worker is reduced to a pure concurrency fan-in layer.
package executor

import (
	"time"

	"github.com/unsetsoft/toridb/pkg/query"
	"github.com/unsetsoft/toridb/pkg/security"
)

// Session holds per-connection state threaded through every dispatched
// command.
type Session struct {
	User        *security.User
	Addr        string
	ConnectedAt time.Time
	CurrentDB   string

	InTx     bool
	TxBuffer []bufferedCommand
}

// NewSession returns a freshly connected, unauthenticated session.
func NewSession(addr, defaultDB string) *Session {
	return &Session{Addr: addr, ConnectedAt: time.Now(), CurrentDB: defaultDB}
}

type bufferedCommand struct {
	cmd query.Command
	raw string
}
