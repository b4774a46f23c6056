package gossip

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kvstore/internal/address"
	"kvstore/internal/clock"
	"kvstore/internal/member"
	"kvstore/internal/network"
	"kvstore/internal/vlog"
)

func newTestLogger() *vlog.Logger {
	return vlog.New(zap.NewNop())
}

func TestIntroducer_BootstrapsInGroup(t *testing.T) {
	d := New(address.Introducer, 0, newTestLogger())
	require.True(t, d.InGroup())
	require.Equal(t, 1, d.Table().Len())
}

func TestJoiner_JoinsViaIntroducer(t *testing.T) {
	net := network.New(1, network.Conditions{})
	peer := address.New(2, 100)
	intro := New(address.Introducer, 0, newTestLogger())
	joiner := New(peer, 0, newTestLogger())

	net.Register(address.Introducer)
	net.Register(peer)

	joiner.Join(net)
	require.False(t, joiner.InGroup())

	intro.Tick(1, net, net.Recv(address.Introducer))
	_, ok := intro.Table().Find(peer)
	require.True(t, ok)

	joiner.Tick(1, net, net.Recv(peer))
	require.True(t, joiner.InGroup())
	_, ok = joiner.Table().Find(address.Introducer)
	require.True(t, ok)
}

func TestExpire_MarksFailedThenRemoves(t *testing.T) {
	self := address.New(1, 100)
	peer := address.New(2, 100)
	d := New(self, 0, newTestLogger())
	d.inGroup = true
	net := network.New(1, network.Conditions{})
	net.Register(self)
	net.Register(peer)

	d.table.Insert(member.Entry{Addr: peer, Heartbeat: 0, Timestamp: 0})

	for r := clock.Round(1); r <= TFail+1; r++ {
		d.Tick(r, net, nil)
	}
	e, ok := d.Table().Find(peer)
	require.True(t, ok)
	require.True(t, e.IsFailed())

	for r := clock.Round(TFail + 2); r <= TFail+TRemove+2; r++ {
		d.Tick(r, net, nil)
	}
	_, ok = d.Table().Find(peer)
	require.False(t, ok)
}

func TestGossipTargets_PrefersAliveAndTopsUpFromFailed(t *testing.T) {
	self := address.New(1, 100)
	d := New(self, 0, newTestLogger())
	d.inGroup = true
	net := network.New(1, network.Conditions{})
	net.Register(self)

	alive := address.New(2, 100)
	d.table.Insert(member.Entry{Addr: alive, Heartbeat: 0, Timestamp: 0})

	var failedAddrs []address.Address
	for i := uint32(3); i <= 6; i++ {
		a := address.New(i, uint16(100+i))
		d.table.Insert(member.Entry{Addr: a, Heartbeat: member.Failed, Timestamp: 0})
		failedAddrs = append(failedAddrs, a)
	}

	targets := d.gossipTargets(net)
	require.Len(t, targets, PingNeighborCount, "should top up fanout using FAILED entries when too few ALIVE ones exist")
	require.Contains(t, targets, alive, "the only ALIVE peer should always be picked before any FAILED one")

	failedPicked := 0
	for _, tgt := range targets {
		for _, f := range failedAddrs {
			if tgt.Equal(f) {
				failedPicked++
			}
		}
	}
	require.Equal(t, PingNeighborCount-1, failedPicked)
}

func TestGossipTargets_SkipsFailedWhenEnoughAlive(t *testing.T) {
	self := address.New(1, 100)
	d := New(self, 0, newTestLogger())
	d.inGroup = true
	net := network.New(1, network.Conditions{})
	net.Register(self)

	for i := uint32(2); i <= 1+PingNeighborCount; i++ {
		d.table.Insert(member.Entry{Addr: address.New(i, uint16(100+i)), Heartbeat: 0, Timestamp: 0})
	}
	failed := address.New(99, 199)
	d.table.Insert(member.Entry{Addr: failed, Heartbeat: member.Failed, Timestamp: 0})

	targets := d.gossipTargets(net)
	require.Len(t, targets, PingNeighborCount)
	require.NotContains(t, targets, failed, "FAILED entries must not be picked while enough ALIVE peers exist")
}

func TestLeave_BroadcastsFailedSentinel(t *testing.T) {
	net := network.New(1, network.Conditions{})
	a := address.New(1, 100)
	b := address.New(2, 100)
	net.Register(a)
	net.Register(b)

	da := New(a, 0, newTestLogger())
	db := New(b, 0, newTestLogger())
	da.inGroup = true
	db.inGroup = true
	da.table.Insert(member.Entry{Addr: b, Heartbeat: 0, Timestamp: 0})
	db.table.Insert(member.Entry{Addr: a, Heartbeat: 0, Timestamp: 0})

	da.Leave(net, 1)
	db.Tick(1, net, net.Recv(b))

	e, ok := db.Table().Find(a)
	require.True(t, ok)
	require.True(t, e.IsFailed())
}
