package gossip

import (
	"kvstore/internal/address"
	"kvstore/internal/clock"
	"kvstore/internal/member"
	"kvstore/internal/network"
	"kvstore/internal/vlog"
	"kvstore/internal/wire"
)

// TFail is the number of rounds an ALIVE member's heartbeat may go
// stale before it is marked FAILED.
const TFail = 10

// TRemove is the number of additional rounds a FAILED member stays in
// the table (so the suspicion can keep propagating) before eviction.
const TRemove = 15

// PingNeighborCount is the number of peers gossiped to each round.
const PingNeighborCount = 4

// Detector is one node's failure detector: its view of the group, its
// join state, and the logic to advance both by one round.
type Detector struct {
	self    address.Address
	table   *member.Table
	inGroup bool
	logger  *vlog.Logger
}

// New creates a Detector for self. The Introducer bootstraps directly
// into the group with itself as its only member (spec.md §4.1); every
// other address starts outside the group and must JOINREQ.
func New(self address.Address, now clock.Round, logger *vlog.Logger) *Detector {
	d := &Detector{
		table:  member.NewTable(self, now),
		self:   self,
		logger: logger,
	}
	if self.Equal(address.Introducer) {
		d.inGroup = true
		logger.NodeAdd(self, self)
	}
	return d
}

// InGroup reports whether this node has completed its join handshake.
func (d *Detector) InGroup() bool {
	return d.inGroup
}

// Table exposes the current membership view, e.g. for the ring and
// stabilizer to consume.
func (d *Detector) Table() *member.Table {
	return d.table
}

// Join sends a JOINREQ to the well-known Introducer address. Callers
// should invoke this once, before the first Tick, for every non-
// Introducer node.
func (d *Detector) Join(net *network.Network) {
	if d.inGroup {
		return
	}
	msg := wire.EncodeJoinReq(wire.HeartbeatEntry{Addr: d.self, Heartbeat: 0})
	net.Send(d.self, address.Introducer, msg)
}

// Leave broadcasts this node's own FAILED sentinel directly to its
// current gossip targets instead of waiting for TFAIL to elapse
// naturally. This is purely additive: a node that never calls Leave
// is still evicted once its silence crosses TFAIL+TRemove rounds.
func (d *Detector) Leave(net *network.Network, now clock.Round) {
	if !d.inGroup {
		return
	}
	self := d.table.Self()
	self.Heartbeat = member.Failed
	self.Timestamp = now
	d.table.Update(self)

	entries := d.heartbeatEntries()
	targets := d.gossipTargets(net)
	msg := wire.EncodeTable(wire.PingHeartbeat, entries)
	for _, t := range targets {
		net.Send(d.self, t, msg)
	}
}

// Tick advances the detector by one round: it processes every inbound
// membership datagram, ages out stale entries, and gossips its view
// to a random subset of peers.
func (d *Detector) Tick(now clock.Round, net *network.Network, inbox [][]byte) {
	if !d.inGroup {
		for _, buf := range inbox {
			msg, err := wire.DecodeMembership(buf)
			if err != nil {
				continue
			}
			if msg.Type == wire.JoinRep {
				d.joinGroup(now, msg.Entries)
				break
			}
		}
		if !d.inGroup {
			return
		}
	}

	d.table.SetSelfHeartbeat(d.table.Self().Heartbeat+1, now)

	for _, buf := range inbox {
		msg, err := wire.DecodeMembership(buf)
		if err != nil {
			continue
		}
		switch msg.Type {
		case wire.JoinReq:
			d.handleJoinReq(now, net, msg.Self)
		case wire.JoinRep, wire.PingHeartbeat:
			d.merge(now, msg.Entries)
		}
	}

	d.expire(now)
	d.gossip(now, net)
}

func (d *Detector) joinGroup(now clock.Round, entries []wire.HeartbeatEntry) {
	d.inGroup = true
	d.merge(now, entries)
}

func (d *Detector) handleJoinReq(now clock.Round, net *network.Network, joiner wire.HeartbeatEntry) {
	if _, ok := d.table.Find(joiner.Addr); !ok {
		d.table.Insert(member.Entry{Addr: joiner.Addr, Heartbeat: joiner.Heartbeat, Timestamp: now})
		d.logger.NodeAdd(d.self, joiner.Addr)
	}
	reply := wire.EncodeTable(wire.JoinRep, d.heartbeatEntries())
	net.Send(d.self, joiner.Addr, reply)
}

func (d *Detector) merge(now clock.Round, entries []wire.HeartbeatEntry) {
	for _, e := range entries {
		if e.Addr.Equal(d.self) {
			continue
		}
		existing, ok := d.table.Find(e.Addr)
		if !ok {
			if e.Heartbeat == member.Failed {
				continue
			}
			d.table.Insert(member.Entry{Addr: e.Addr, Heartbeat: e.Heartbeat, Timestamp: now})
			d.logger.NodeAdd(d.self, e.Addr)
			continue
		}
		if existing.IsFailed() {
			continue
		}
		if e.Heartbeat == member.Failed {
			existing.Heartbeat = member.Failed
			existing.Timestamp = now
			d.table.Update(existing)
			continue
		}
		if e.Heartbeat > existing.Heartbeat {
			existing.Heartbeat = e.Heartbeat
			existing.Timestamp = now
			d.table.Update(existing)
		}
	}
}

func (d *Detector) expire(now clock.Round) {
	for _, e := range d.table.NonSelf() {
		if !e.IsFailed() {
			if clock.Elapsed(now, e.Timestamp) > TFail {
				e.Heartbeat = member.Failed
				e.Timestamp = now
				d.table.Update(e)
			}
			continue
		}
		if clock.Elapsed(now, e.Timestamp) > TRemove {
			d.table.Remove(e.Addr)
			d.logger.NodeRemove(d.self, e.Addr)
		}
	}
}

func (d *Detector) gossip(now clock.Round, net *network.Network) {
	targets := d.gossipTargets(net)
	if len(targets) == 0 {
		return
	}
	msg := wire.EncodeTable(wire.PingHeartbeat, d.heartbeatEntries())
	for _, t := range targets {
		net.Send(d.self, t, msg)
	}
}

// gossipTargets picks up to PingNeighborCount random peers to gossip
// to this round, preferring ALIVE entries. FAILED entries are only
// used to top up the count when there aren't enough ALIVE ones to
// reach full fanout.
func (d *Detector) gossipTargets(net *network.Network) []address.Address {
	alive := make([]address.Address, 0, d.table.Len())
	var failed []address.Address
	for _, e := range d.table.NonSelf() {
		if e.IsFailed() {
			failed = append(failed, e.Addr)
			continue
		}
		alive = append(alive, e.Addr)
	}

	targets := net.RandomPeers(alive, PingNeighborCount)
	if need := PingNeighborCount - len(targets); need > 0 && len(failed) > 0 {
		targets = append(targets, net.RandomPeers(failed, need)...)
	}
	return targets
}

func (d *Detector) heartbeatEntries() []wire.HeartbeatEntry {
	entries := d.table.Entries()
	out := make([]wire.HeartbeatEntry, len(entries))
	for i, e := range entries {
		out[i] = wire.HeartbeatEntry{Addr: e.Addr, Heartbeat: e.Heartbeat}
	}
	return out
}
