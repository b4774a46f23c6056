package it

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kvstore/internal/address"
	"kvstore/internal/network"
	"kvstore/internal/vlog"
)

func newSmokeCluster(t *testing.T) *Cluster {
	t.Helper()
	c := NewCluster(1, network.Conditions{}, vlog.New(zap.NewNop()))
	c.StartNode(address.Introducer)
	c.StartNode(address.New(2, 9002))
	c.StartNode(address.New(3, 9003))
	require.True(t, c.AwaitAllInGroup(30), "%s", c)
	return c
}

func TestSmoke_CreateReadUpdateDelete_SingleKey(t *testing.T) {
	c := newSmokeCluster(t)
	coordinator, ok := c.Node(address.Introducer)
	require.True(t, ok)

	id := coordinator.Create(c.Round(), c.net, "test-key", "test-value")
	c.Run(3)
	done, success, _ := coordinator.Outcome(id)
	require.True(t, done)
	require.True(t, success)

	readID := coordinator.Read(c.Round(), c.net, "test-key")
	c.Run(3)
	done, success, value := coordinator.Outcome(readID)
	require.True(t, done)
	require.True(t, success)
	require.Equal(t, "test-value", value)

	updateID := coordinator.Update(c.Round(), c.net, "test-key", "updated-value")
	c.Run(3)
	done, success, _ = coordinator.Outcome(updateID)
	require.True(t, done)
	require.True(t, success)

	readID2 := coordinator.Read(c.Round(), c.net, "test-key")
	c.Run(3)
	_, _, value = coordinator.Outcome(readID2)
	require.Equal(t, "updated-value", value)

	deleteID := coordinator.Delete(c.Round(), c.net, "test-key")
	c.Run(3)
	done, success, _ = coordinator.Outcome(deleteID)
	require.True(t, done)
	require.True(t, success)

	readID3 := coordinator.Read(c.Round(), c.net, "test-key")
	c.Run(3)
	done, success, _ = coordinator.Outcome(readID3)
	require.True(t, done)
	require.False(t, success)
}

func TestSmoke_NodeFailureIsDetectedAndEvicted(t *testing.T) {
	c := newSmokeCluster(t)
	victim := address.New(3, 9003)
	c.KillNode(victim)

	c.Run(30)

	survivor, ok := c.Node(address.Introducer)
	require.True(t, ok)
	for _, a := range survivor.Ring().Addrs() {
		require.False(t, a.Equal(victim))
	}
}

func TestSmoke_RejoinAfterRestart(t *testing.T) {
	c := newSmokeCluster(t)
	rejoiner := address.New(2, 9002)
	c.KillNode(rejoiner)
	c.Run(30)
	c.RestartNode(rejoiner)
	require.True(t, c.AwaitAllInGroup(30), "%s", c)

	n, ok := c.Node(rejoiner)
	require.True(t, ok)
	require.True(t, n.InGroup())
}

func TestSmoke_ShutdownAggregatesErrorsForUnknownNodes(t *testing.T) {
	c := newSmokeCluster(t)
	ghost := address.New(99, 9099)

	err := c.Shutdown(address.Introducer, ghost)
	require.Error(t, err)
	require.Contains(t, err.Error(), ghost.String())

	n, ok := c.Node(address.Introducer)
	require.False(t, ok)
	require.Nil(t, n)
}
