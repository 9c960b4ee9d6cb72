// Package cluster implements ClusterManager: Redis-style 16384-slot hash
// routing (CRC16-XMODEM), slot ownership, and redirect resolution.
//
// Grounded on _examples/original_source/src/core/cluster.rs.
package cluster

import (
	"fmt"
	"sort"
	"sync"
)

// TotalSlots is the fixed slot space size, matching Redis Cluster.
const TotalSlots uint16 = 16384

// Role tags this node's position in the cluster.
type Role int

const (
	RoleStandalone Role = iota
	RoleMaster
	RoleReplica
)

// SlotRange is an inclusive [Start, End] slot assignment owned by one node.
type SlotRange struct {
	Start uint16
	End   uint16
}

// Manager tracks slot ownership across the cluster and this node's role.
type Manager struct {
	mu       sync.RWMutex
	role     Role
	ranges   []SlotRange    // populated when role == RoleMaster
	replicaOf string        // populated when role == RoleReplica
	nodes    map[string][]SlotRange // node addr -> its slots
	selfAddr string
}

// New returns a standalone manager (single node owns the whole key space
// implicitly, without needing explicit slot assignment).
func New() *Manager {
	return &Manager{
		role:     RoleStandalone,
		nodes:    make(map[string][]SlotRange),
		selfAddr: "127.0.0.1:8569",
	}
}

// SetSelfAddr records this node's own address, used when publishing slot
// ownership into the node map.
func (m *Manager) SetSelfAddr(addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selfAddr = addr
}

// KeySlot computes the CRC16-XMODEM slot for a key, mod TotalSlots.
func KeySlot(key string) uint16 {
	var crc uint16
	for i := 0; i < len(key); i++ {
		crc = (crc << 8) ^ crc16Table[byte(crc>>8)^key[i]]
	}
	return crc % TotalSlots
}

// OwnsSlot reports whether this node owns the slot for key.
func (m *Manager) OwnsSlot(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch m.role {
	case RoleStandalone:
		return true
	case RoleMaster:
		slot := KeySlot(key)
		for _, r := range m.ranges {
			if slot >= r.Start && slot <= r.End {
				return true
			}
		}
		return false
	default: // RoleReplica
		return false
	}
}

// GetRedirect returns the node address owning key's slot, if known and not
// this node.
func (m *Manager) GetRedirect(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	slot := KeySlot(key)
	for addr, ranges := range m.nodes {
		if addr == m.selfAddr {
			continue
		}
		for _, r := range ranges {
			if slot >= r.Start && slot <= r.End {
				return addr, true
			}
		}
	}
	return "", false
}

// AddNode registers a peer address with no slots yet assigned.
func (m *Manager) AddNode(addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.nodes[addr]; !ok {
		m.nodes[addr] = nil
	}
}

// SetSlotOwner records that addr owns slot, merging it into whatever ranges
// addr already advertises. Mirrors Redis Cluster's CLUSTER SETSLOT <slot>
// NODE <node>, the manual way an operator (or this node's peer-discovery
// path) tells a node where a redirect for that slot should point.
func (m *Manager) SetSlotOwner(slot uint16, addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[addr] = append(m.nodes[addr], SlotRange{Start: slot, End: slot})
}

// AddSlots assigns individual slots to this node, promoting it to Master if
// it was Standalone.
func (m *Manager) AddSlots(slots []uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.role == RoleStandalone {
		m.role = RoleMaster
		m.ranges = nil
	}
	if m.role != RoleMaster {
		return
	}
	for _, slot := range slots {
		m.ranges = append(m.ranges, SlotRange{Start: slot, End: slot})
	}
	m.nodes[m.selfAddr] = append([]SlotRange{}, m.ranges...)
}

// InitAsSingleMaster assigns this node the entire slot space, used when
// cluster mode is enabled on a single-node deployment.
func (m *Manager) InitAsSingleMaster() {
	m.mu.Lock()
	defer m.mu.Unlock()
	full := []SlotRange{{Start: 0, End: TotalSlots - 1}}
	m.role = RoleMaster
	m.ranges = full
	m.nodes[m.selfAddr] = full
}

// SetReplicaOf marks this node a replica of masterAddr, relinquishing any
// slot ownership.
func (m *Manager) SetReplicaOf(masterAddr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.role = RoleReplica
	m.replicaOf = masterAddr
	m.ranges = nil
}

// GetInfo renders the CLUSTER INFO text block.
func (m *Manager) GetInfo() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var roleName string
	switch m.role {
	case RoleStandalone:
		roleName = "standalone"
	case RoleMaster:
		roleName = "master"
	default:
		roleName = "replica"
	}
	return fmt.Sprintf(
		"cluster_enabled:1\ncluster_state:ok\ncluster_slots_assigned:%d\ncluster_known_nodes:%d\ncluster_role:%s",
		TotalSlots, len(m.nodes), roleName)
}

// Slots returns this node's owned ranges, sorted, for CLUSTER SLOTS.
func (m *Manager) Slots() []SlotRange {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]SlotRange{}, m.ranges...)
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// NodeAddrs returns every known node address (including self once it owns
// slots), each paired with its owned ranges, for CLUSTER SLOTS rendering.
func (m *Manager) NodeAddrs() map[string][]SlotRange {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]SlotRange, len(m.nodes))
	for addr, ranges := range m.nodes {
		out[addr] = append([]SlotRange{}, ranges...)
	}
	return out
}
