// Package replication implements ReplicationManager: primary/replica role
// state and best-effort asynchronous command fan-out to registered replica
// channels.
//
// Grounded on _examples/original_source/src/core/replication.rs. The
// network handshake loop (TCP dial, PSYNC framing) is an external-collaborator
// concern per spec.md §1 — this package exposes the handshake's message
// constants and the full-resync payload builder, but the socket itself is
// driven by pkg/server (connect.go on the replica side, replica.go on the
// master side).
package replication

import (
	"sync"
)

// Handshake message constants exchanged between a replica and its master.
const (
	MsgPing         = "PING"
	MsgPsync        = "PSYNC"
	MsgFullResync   = "+FULLRESYNC"
	MsgSyncComplete = "+SYNC_COMPLETE"
)

// replicaChannelDepth bounds each replica's outbound queue; a slow replica
// has commands dropped rather than blocking the propagating writer.
const replicaChannelDepth = 1024

// Role tags whether this node is the write-accepting primary or a replica
// of some other node.
type Role int

const (
	RoleMaster Role = iota
	RoleReplica
)

// Manager holds replication role state and the registry of connected
// replicas' outbound command channels.
type Manager struct {
	mu         sync.RWMutex
	role       Role
	masterHost string
	masterPort uint16
	replicas   map[string]chan string
}

// New returns a Manager starting in the Master role.
func New() *Manager {
	return &Manager{role: RoleMaster, replicas: make(map[string]chan string)}
}

// AddReplica registers addr's outbound channel, returning it so the caller's
// connection-writer goroutine can drain it.
func (m *Manager) AddReplica(addr string) <-chan string {
	ch := make(chan string, replicaChannelDepth)
	m.mu.Lock()
	m.replicas[addr] = ch
	m.mu.Unlock()
	return ch
}

// RemoveReplica unregisters addr, e.g. on connection close.
func (m *Manager) RemoveReplica(addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.replicas[addr]; ok {
		close(ch)
		delete(m.replicas, addr)
	}
}

// Propagate fans a write command's canonical text out to every replica, if
// this node is currently Master. Each send is best-effort: a full channel
// drops the command for that replica rather than blocking the writer that
// just committed it (see DESIGN.md Open Question 2).
func (m *Manager) Propagate(command string) (dropped int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.role != RoleMaster {
		return 0
	}
	for _, ch := range m.replicas {
		select {
		case ch <- command:
		default:
			dropped++
		}
	}
	return dropped
}

// SetReplicaOf switches this node into Replica role, tracking its master.
func (m *Manager) SetReplicaOf(host string, port uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.role = RoleReplica
	m.masterHost = host
	m.masterPort = port
}

// SetMaster switches this node back into Master role.
func (m *Manager) SetMaster() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.role = RoleMaster
	m.masterHost = ""
	m.masterPort = 0
}

// IsMaster reports whether this node currently accepts direct writes.
func (m *Manager) IsMaster() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.role == RoleMaster
}

// ReplicaCount reports the number of currently connected replicas.
func (m *Manager) ReplicaCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.replicas)
}

// GetRoleString renders the INFO replication block.
func (m *Manager) GetRoleString() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.role == RoleMaster {
		return "role:master"
	}
	return "role:replica\nmaster_host:" + m.masterHost + "\nmaster_port:" + portString(m.masterPort)
}

func portString(p uint16) string {
	if p == 0 {
		return "0"
	}
	var buf [5]byte
	pos := len(buf)
	for p > 0 {
		pos--
		buf[pos] = byte('0' + p%10)
		p /= 10
	}
	return string(buf[pos:])
}

// BuildFullResync renders the full-resync payload sent to a freshly attached
// replica: the FULLRESYNC marker, every command needed to reconstruct
// current state, then the completion marker.
func BuildFullResync(commands []string) []string {
	out := make([]string, 0, len(commands)+2)
	out = append(out, MsgFullResync)
	out = append(out, commands...)
	out = append(out, MsgSyncComplete)
	return out
}
