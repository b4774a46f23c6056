// Package node is the composition root: it wires the failure
// detector, ring, local store, and transaction table into the single
// per-round control flow spec.md §5 mandates (recv, then
// membershipTick, then kvTick).
package node

import (
	"kvstore/internal/address"
	"kvstore/internal/clock"
	"kvstore/internal/gossip"
	"kvstore/internal/network"
	"kvstore/internal/ring"
	"kvstore/internal/stabilizer"
	"kvstore/internal/store"
	"kvstore/internal/transaction"
	"kvstore/internal/vlog"
)

// Node is one simulated process: its own failure detector view, ring
// snapshot, local replica store, and outstanding client transactions.
type Node struct {
	self     address.Address
	detector *gossip.Detector
	ring     *ring.Ring
	store    *store.Store
	txns     *transaction.Table
	logger   *vlog.Logger
}

// New creates a Node. The Introducer address bootstraps already
// in-group; every other address must be given a chance to Bootstrap
// before its first Tick.
func New(self address.Address, now clock.Round, logger *vlog.Logger) *Node {
	n := &Node{
		self:     self,
		detector: gossip.New(self, now, logger),
		ring:     ring.New(nil),
		store:    store.New(),
		txns:     transaction.NewTable(),
		logger:   logger,
	}
	if n.detector.InGroup() {
		n.ring = ring.New(n.detector.Table().AliveAddrs())
	}
	return n
}

// Self returns this node's address.
func (n *Node) Self() address.Address {
	return n.self
}

// Store exposes the local replica map, e.g. for test assertions.
func (n *Node) Store() *store.Store {
	return n.store
}

// Ring exposes the node's current ring view.
func (n *Node) Ring() *ring.Ring {
	return n.ring
}

// InGroup reports whether this node has completed its join handshake.
func (n *Node) InGroup() bool {
	return n.detector.InGroup()
}

// Bootstrap sends this node's JOINREQ. A no-op for the Introducer,
// which starts already in-group.
func (n *Node) Bootstrap(net *network.Network) {
	n.detector.Join(net)
}

// Leave has the node announce its own departure immediately instead
// of waiting to be timed out (spec.md §4.1 supplement).
func (n *Node) Leave(net *network.Network, now clock.Round) {
	n.detector.Leave(net, now)
}

// isMembershipDatagram distinguishes the two wire formats by their
// leading byte: membership datagrams are tagged 0, 1, or 2 (wire's
// MembershipType); KV records always begin with an ASCII transaction
// id, either a digit (at least '0', 48) or the '-' (45) of
// transaction.StabID.
func isMembershipDatagram(buf []byte) bool {
	return len(buf) > 0 && buf[0] <= byte(2)
}

// Tick advances the node by exactly one round: drain its inbox,
// advance the failure detector, rebuild the ring and stabilize if
// membership changed, then process KV traffic and sweep timed-out
// transactions.
func (n *Node) Tick(now clock.Round, net *network.Network) {
	raw := net.Recv(n.self)
	var memberMsgs, kvMsgs [][]byte
	for _, buf := range raw {
		if isMembershipDatagram(buf) {
			memberMsgs = append(memberMsgs, buf)
		} else {
			kvMsgs = append(kvMsgs, buf)
		}
	}

	wasInGroup := n.detector.InGroup()
	n.detector.Tick(now, net, memberMsgs)

	if n.detector.InGroup() {
		newRing := ring.New(n.detector.Table().AliveAddrs())
		if !wasInGroup || !ring.Equal(n.ring, newRing) {
			stabilizer.Stabilize(n.self, n.ring, newRing, n.store, net)
			n.ring = newRing
		}
	}

	n.kvTick(now, net, kvMsgs)
	n.sweepTimeouts(now)
}

func (n *Node) sweepTimeouts(now clock.Round) {
	for _, id := range n.txns.Outstanding() {
		e, ok := n.txns.Get(id)
		if !ok {
			continue
		}
		if e.TimedOut(now) {
			n.finalize(now, e, false)
		}
	}
}
