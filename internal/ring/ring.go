// Package ring implements the consistent-hash ring of spec.md §4.2:
// one hash slot per physical node (no virtual nodes — the simulation
// scale never needs them for balance, and virtual nodes would multiply
// the state every node must gossip agreement on), with replication
// computed by walking successors from a key's home slot.
package ring

import (
	"hash/fnv"
	"sort"

	"kvstore/internal/address"
)

// Size is the fixed modulus every node hashes into (R in spec.md's
// hash = H(address) mod R). Kept small and constant so the ring is
// dense enough that collisions are decided by address order, not by
// growing the space.
const Size = 1 << 16

// ReplicationFactor is the number of replicas spec.md §4.3 assigns to
// every key: the node owning its slot plus its two ring successors.
const ReplicationFactor = 3

// Hash returns addr's slot on the ring: FNV-1a over its wire bytes,
// reduced mod Size.
func Hash(addr address.Address) uint32 {
	h := fnv.New32a()
	b := addr.Bytes()
	h.Write(b[:])
	return h.Sum32() % Size
}

// node is one physical member's position on the ring.
type node struct {
	addr address.Address
	hash uint32
}

// Ring is the sorted set of member positions. Ties in hash value are
// broken by address order (spec.md §4.2), so every node derives an
// identical ordering from the same membership set without needing to
// agree on anything beyond the set itself.
type Ring struct {
	nodes []node
}

// New builds a ring from the given addresses.
func New(addrs []address.Address) *Ring {
	r := &Ring{nodes: make([]node, 0, len(addrs))}
	for _, a := range addrs {
		r.nodes = append(r.nodes, node{addr: a, hash: Hash(a)})
	}
	r.sort()
	return r
}

func (r *Ring) sort() {
	sort.Slice(r.nodes, func(i, j int) bool {
		if r.nodes[i].hash != r.nodes[j].hash {
			return r.nodes[i].hash < r.nodes[j].hash
		}
		return r.nodes[i].addr.Less(r.nodes[j].addr)
	})
}

// Len returns the number of member positions on the ring.
func (r *Ring) Len() int {
	return len(r.nodes)
}

// Addrs returns the ring's members in ring order (not insertion order).
func (r *Ring) Addrs() []address.Address {
	out := make([]address.Address, len(r.nodes))
	for i, n := range r.nodes {
		out[i] = n.addr
	}
	return out
}

// indexOf returns the position of the first node whose hash is >= h,
// wrapping to 0 if none exists.
func (r *Ring) indexOf(h uint32) int {
	idx := sort.Search(len(r.nodes), func(i int) bool {
		return r.nodes[i].hash >= h
	})
	if idx >= len(r.nodes) {
		idx = 0
	}
	return idx
}

// Replicas returns the ReplicationFactor nodes responsible for key:
// its home slot followed by successors walked clockwise around the
// ring. Returns empty if the ring has fewer than ReplicationFactor
// live members — there is no well-defined replica set to write or
// read from yet.
func (r *Ring) Replicas(key string) []address.Address {
	if len(r.nodes) < ReplicationFactor {
		return nil
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	start := r.indexOf(h.Sum32() % Size)

	out := make([]address.Address, ReplicationFactor)
	for i := 0; i < ReplicationFactor; i++ {
		out[i] = r.nodes[(start+i)%len(r.nodes)].addr
	}
	return out
}

// Successors returns the up-to-count nodes immediately clockwise of
// addr, not including addr itself: the peers that would hold addr's
// replicas if addr were the home node for a key.
func (r *Ring) Successors(addr address.Address, count int) []address.Address {
	pos := r.position(addr)
	if pos < 0 || len(r.nodes) <= 1 {
		return nil
	}
	if count > len(r.nodes)-1 {
		count = len(r.nodes) - 1
	}
	out := make([]address.Address, count)
	for i := 0; i < count; i++ {
		out[i] = r.nodes[(pos+1+i)%len(r.nodes)].addr
	}
	return out
}

// Predecessors returns the up-to-count nodes immediately counter-
// clockwise of addr, not including addr itself: the home nodes whose
// primary keys addr would hold a replica of.
func (r *Ring) Predecessors(addr address.Address, count int) []address.Address {
	pos := r.position(addr)
	if pos < 0 || len(r.nodes) <= 1 {
		return nil
	}
	if count > len(r.nodes)-1 {
		count = len(r.nodes) - 1
	}
	out := make([]address.Address, count)
	for i := 0; i < count; i++ {
		idx := pos - 1 - i
		idx = ((idx % len(r.nodes)) + len(r.nodes)) % len(r.nodes)
		out[i] = r.nodes[idx].addr
	}
	return out
}

func (r *Ring) position(addr address.Address) int {
	for i, n := range r.nodes {
		if n.addr.Equal(addr) {
			return i
		}
	}
	return -1
}

// Equal reports whether two rings contain the same members in the
// same ring order — used by the stabilizer to detect a membership
// change cheaply, without recomputing replica sets for every key.
func Equal(a, b *Ring) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := range a.nodes {
		if !a.nodes[i].addr.Equal(b.nodes[i].addr) || a.nodes[i].hash != b.nodes[i].hash {
			return false
		}
	}
	return true
}
