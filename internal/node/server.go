package node

import (
	"kvstore/internal/clock"
	"kvstore/internal/network"
	"kvstore/internal/quorum"
	"kvstore/internal/transaction"
	"kvstore/internal/wire"
)

// kvTick dispatches every decoded KV-layer message received this
// round: CREATE/READ/UPDATE/DELETE are serviced against the local
// replica store, REPLY/READREPLY are folded into this node's own
// outstanding transactions (if it is their coordinator).
func (n *Node) kvTick(now clock.Round, net *network.Network, inbox [][]byte) {
	for _, buf := range inbox {
		msg, err := wire.Decode(buf)
		if err != nil {
			continue
		}
		switch msg.Type {
		case wire.Create, wire.Update, wire.Delete:
			n.serveWrite(now, net, msg)
		case wire.Read:
			n.serveRead(now, net, msg)
		case wire.Reply:
			n.handleReply(now, msg.TransID, msg.Success, "")
		case wire.ReadReply:
			n.handleReply(now, msg.TransID, true, msg.Value)
		}
	}
}

func (n *Node) serveWrite(now clock.Round, net *network.Network, msg wire.Message) {
	var err error
	switch msg.Type {
	case wire.Create:
		err = n.store.Create(msg.Key, msg.Value)
	case wire.Update:
		err = n.store.Update(msg.Key, msg.Value)
	case wire.Delete:
		err = n.store.Delete(msg.Key)
	}

	// The stabilizer's re-replication CREATEs are not logged: they're
	// not a client-observable operation. They are still answered, but
	// the sender never tracks transaction.StabID, so the reply is
	// dropped on arrival by handleReply.
	if msg.TransID != transaction.StabID {
		n.logger.Outcome(n.self, opFor(msg.Type), err == nil, false, msg.TransID, now, msg.Key, msg.Value)
	}

	reply := wire.Encode(wire.Message{
		TransID:  msg.TransID,
		FromAddr: n.self,
		Type:     wire.Reply,
		Success:  err == nil,
	})
	net.Send(n.self, msg.FromAddr, reply)
}

func (n *Node) serveRead(now clock.Round, net *network.Network, msg wire.Message) {
	value, err := n.store.Read(msg.Key)
	n.logger.Outcome(n.self, opFor(wire.Read), err == nil, false, msg.TransID, now, msg.Key, value)
	if err != nil {
		reply := wire.Encode(wire.Message{
			TransID:  msg.TransID,
			FromAddr: n.self,
			Type:     wire.Reply,
			Success:  false,
		})
		net.Send(n.self, msg.FromAddr, reply)
		return
	}
	reply := wire.Encode(wire.Message{
		TransID:  msg.TransID,
		FromAddr: n.self,
		Type:     wire.ReadReply,
		Value:    value,
	})
	net.Send(n.self, msg.FromAddr, reply)
}

func (n *Node) handleReply(now clock.Round, id int, success bool, value string) {
	e, ok := n.txns.Get(id)
	if !ok {
		// Either a duplicate reply to an already-finalized
		// transaction, or a reply to a stabilizer CREATE
		// (transaction.StabID is never tracked): both are dropped
		// silently.
		return
	}
	n.txns.RecordReply(id, success, value)
	switch quorum.Evaluate(e) {
	case quorum.Succeeded:
		n.finalize(now, e, true)
	case quorum.Failed:
		n.finalize(now, e, false)
	}
}
