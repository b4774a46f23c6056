package node

import (
	"kvstore/internal/clock"
	"kvstore/internal/network"
	"kvstore/internal/quorum"
	"kvstore/internal/transaction"
	"kvstore/internal/vlog"
	"kvstore/internal/wire"
)

// Create fans a CREATE out to key's current replica set and begins
// tracking the resulting transaction. Returns the transaction id the
// caller can later look up outcome for, or 0 if the ring has fewer
// than ring.ReplicationFactor members (nothing is sent or tracked).
func (n *Node) Create(now clock.Round, net *network.Network, key, value string) int {
	return n.beginWrite(now, net, wire.Create, key, value)
}

// Update fans an UPDATE out to key's current replica set.
func (n *Node) Update(now clock.Round, net *network.Network, key, value string) int {
	return n.beginWrite(now, net, wire.Update, key, value)
}

// Delete fans a DELETE out to key's current replica set.
func (n *Node) Delete(now clock.Round, net *network.Network, key string) int {
	return n.beginWrite(now, net, wire.Delete, key, "")
}

// Read fans a READ out to key's current replica set.
func (n *Node) Read(now clock.Round, net *network.Network, key string) int {
	replicas := n.ring.Replicas(key)
	if len(replicas) == 0 {
		return 0
	}
	e := n.txns.Begin(wire.Read, key, "", len(replicas), now)
	for _, r := range replicas {
		msg := wire.Encode(wire.Message{TransID: e.ID, FromAddr: n.self, Type: wire.Read, Key: key})
		net.Send(n.self, r, msg)
	}
	return e.ID
}

func (n *Node) beginWrite(now clock.Round, net *network.Network, typ wire.KVType, key, value string) int {
	replicas := n.ring.Replicas(key)
	if len(replicas) == 0 {
		return 0
	}
	e := n.txns.Begin(typ, key, value, len(replicas), now)
	for _, r := range replicas {
		msg := wire.Encode(wire.Message{TransID: e.ID, FromAddr: n.self, Type: typ, Key: key, Value: value})
		net.Send(n.self, r, msg)
	}
	return e.ID
}

// Outcome reports whether transaction id has finalized yet, and if
// so, whether it succeeded and (for a READ) what value was observed.
// The caller should stop polling once done is true; the entry is
// reaped at that point and subsequent calls return done=false.
func (n *Node) Outcome(id int) (done, success bool, value string) {
	e, ok := n.txns.Get(id)
	if !ok {
		return false, false, ""
	}
	dec := quorum.Evaluate(e)
	if dec == quorum.Pending {
		return false, false, ""
	}
	return true, dec == quorum.Succeeded, e.ObservedValue
}

func opFor(t wire.KVType) vlog.Op {
	switch t {
	case wire.Create:
		return vlog.OpCreate
	case wire.Update:
		return vlog.OpUpdate
	case wire.Delete:
		return vlog.OpDelete
	default:
		return vlog.OpRead
	}
}

func (n *Node) finalize(now clock.Round, e *transaction.Entry, success bool) {
	value := e.ObservedValue
	if value == "" {
		value = e.Value
	}
	n.logger.Outcome(n.self, opFor(e.Type), success, true, e.ID, now, e.Key, value)
	n.txns.Reap(e.ID)
}
