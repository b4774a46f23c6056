// Package network is the emulated transport spec.md §2 and §5
// describe: nodes exchange opaque byte buffers through per-address
// inboxes instead of real sockets, so the whole cluster can run
// single-threaded, deterministically, and under the harness's control
// of drops, duplication, and reordering.
package network

import (
	"math/rand"

	"kvstore/internal/address"
)

// datagram is one buffer in flight between two addresses.
type datagram struct {
	from address.Address
	data []byte
}

// Conditions configures the best-effort delivery behavior. spec.md §5
// only requires that the network be unreliable, not any particular
// distribution, so these are expressed as independent probabilities
// evaluated per datagram.
type Conditions struct {
	// DropProb is the chance a send is silently discarded.
	DropProb float64
	// DuplicateProb is the chance a send is delivered twice.
	DuplicateProb float64
}

// Network is the shared emulated medium. The harness creates one
// Network per simulation run; Send places datagrams straight into the
// recipient's inbox, and Recv drains that inbox.
type Network struct {
	rng        *rand.Rand
	cond       Conditions
	inboxes    map[address.Address][]datagram
	registered map[address.Address]bool
}

// New creates a Network seeded for reproducible runs: the same seed
// and the same sequence of Send calls always produces the same
// sequence of drops, duplicates, and reorderings.
func New(seed int64, cond Conditions) *Network {
	return &Network{
		rng:        rand.New(rand.NewSource(seed)),
		cond:       cond,
		inboxes:    make(map[address.Address][]datagram),
		registered: make(map[address.Address]bool),
	}
}

// Register creates an inbox for addr. Sends to an unregistered
// address are dropped, modeling a node that never joined the network.
func (n *Network) Register(addr address.Address) {
	n.registered[addr] = true
	if _, ok := n.inboxes[addr]; !ok {
		n.inboxes[addr] = nil
	}
}

// Unregister removes addr's inbox, modeling a node leaving the
// network entirely (as opposed to merely being suspected failed).
func (n *Network) Unregister(addr address.Address) {
	delete(n.registered, addr)
	delete(n.inboxes, addr)
}

// Send enqueues data for delivery from `from` to `to`, subject to the
// configured drop and duplicate probabilities. Delivery order across
// distinct Send calls within a round is the call order, but the
// harness's recv-then-tick round structure means this ordering is
// only ever observed within a single round.
func (n *Network) Send(from, to address.Address, data []byte) {
	if !n.registered[to] {
		return
	}
	if n.cond.DropProb > 0 && n.rng.Float64() < n.cond.DropProb {
		return
	}
	buf := append([]byte(nil), data...)
	n.inboxes[to] = append(n.inboxes[to], datagram{from: from, data: buf})
	if n.cond.DuplicateProb > 0 && n.rng.Float64() < n.cond.DuplicateProb {
		n.inboxes[to] = append(n.inboxes[to], datagram{from: from, data: buf})
	}
}

// Recv drains and returns every datagram queued for addr, in
// delivery order. Called once per node per round before that node
// processes its membership and KV ticks (spec.md's recv -> tick
// ordering).
func (n *Network) Recv(addr address.Address) [][]byte {
	pending := n.inboxes[addr]
	if len(pending) == 0 {
		return nil
	}
	n.inboxes[addr] = nil
	out := make([][]byte, len(pending))
	for i, d := range pending {
		out[i] = d.data
	}
	return out
}

// Shuffle reorders the still-undelivered datagrams for addr. Exposed
// so the harness can model reordering explicitly instead of relying
// only on send-time randomness.
func (n *Network) Shuffle(addr address.Address) {
	q := n.inboxes[addr]
	n.rng.Shuffle(len(q), func(i, j int) { q[i], q[j] = q[j], q[i] })
}

// RandomPeers chooses up to count addresses from candidates, without
// replacement, using the network's seeded RNG. Used by the failure
// detector to pick gossip targets deterministically.
func (n *Network) RandomPeers(candidates []address.Address, count int) []address.Address {
	if count > len(candidates) {
		count = len(candidates)
	}
	idx := n.rng.Perm(len(candidates))[:count]
	out := make([]address.Address, count)
	for i, j := range idx {
		out[i] = candidates[j]
	}
	return out
}
