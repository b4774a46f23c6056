// Package it is the in-process simulation harness: it owns every
// node.Node and the shared network.Network directly in one process,
// advancing them in round lockstep instead of spawning separate node
// processes.
package it

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"kvstore/internal/address"
	"kvstore/internal/clock"
	"kvstore/internal/config"
	"kvstore/internal/network"
	"kvstore/internal/node"
	"kvstore/internal/vlog"
)

// Cluster owns a shared emulated network and every node.Node running
// against it, and advances them all by one round at a time.
type Cluster struct {
	net    *network.Network
	nodes  map[address.Address]*node.Node
	alive  map[address.Address]bool
	round  clock.Round
	logger *vlog.Logger
	script config.Script
}

// NewCluster creates an empty cluster sharing one seeded network.
func NewCluster(seed int64, cond network.Conditions, logger *vlog.Logger) *Cluster {
	return &Cluster{
		net:    network.New(seed, cond),
		nodes:  make(map[address.Address]*node.Node),
		alive:  make(map[address.Address]bool),
		logger: logger,
	}
}

// WithScript attaches a churn script the cluster applies automatically
// as Step/Run crosses each scheduled round.
func (c *Cluster) WithScript(s config.Script) *Cluster {
	c.script = s
	return c
}

// Round returns the current round number.
func (c *Cluster) Round() clock.Round {
	return c.round
}

// StartNode registers addr on the network, creates its Node, and has
// it send its JOINREQ (a no-op for the Introducer address).
func (c *Cluster) StartNode(addr address.Address) *node.Node {
	c.net.Register(addr)
	n := node.New(addr, c.round, c.logger)
	c.nodes[addr] = n
	c.alive[addr] = true
	n.Bootstrap(c.net)
	return n
}

// KillNode simulates an ungraceful crash: the node stops receiving or
// sending anything, and its peers only notice once TFAIL/TREMOVE
// elapse on their own clocks.
func (c *Cluster) KillNode(addr address.Address) {
	c.net.Unregister(addr)
	c.alive[addr] = false
}

// LeaveNode has a live node announce its departure immediately via
// Detector.Leave, then stops it the same way KillNode does.
func (c *Cluster) LeaveNode(addr address.Address) {
	if n, ok := c.nodes[addr]; ok && c.alive[addr] {
		n.Leave(c.net, c.round)
	}
	c.KillNode(addr)
}

// RestartNode re-registers a previously killed address as a fresh
// Node that must rejoin from scratch, the way a real process restart
// loses all in-memory membership state.
func (c *Cluster) RestartNode(addr address.Address) *node.Node {
	delete(c.nodes, addr)
	return c.StartNode(addr)
}

// Shutdown gracefully leaves every named node that is still alive,
// aggregating an error per address that was never started rather than
// stopping at the first bad one, the way tearing down a whole cluster
// at the end of a test run shouldn't hide failures in the nodes it
// hasn't gotten to yet. Addresses already killed are skipped without
// an error.
func (c *Cluster) Shutdown(addrs ...address.Address) error {
	var errs error
	for _, addr := range addrs {
		if _, ok := c.nodes[addr]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("it: no such node %s", addr))
			continue
		}
		if !c.alive[addr] {
			continue
		}
		c.LeaveNode(addr)
	}
	return errs
}

// Node returns the live Node for addr, if any.
func (c *Cluster) Node(addr address.Address) (*node.Node, bool) {
	n, ok := c.nodes[addr]
	if !ok || !c.alive[addr] {
		return nil, false
	}
	return n, true
}

// Addrs returns every address ever started, in a stable order, for
// tests that want to iterate deterministically.
func (c *Cluster) Addrs() []address.Address {
	out := make([]address.Address, 0, len(c.nodes))
	for a := range c.nodes {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Step advances every alive node by exactly one round: first applies
// any churn scheduled for the round about to start, then ticks.
func (c *Cluster) Step() {
	c.round++
	c.applyScript()
	for _, addr := range c.Addrs() {
		if c.alive[addr] {
			c.nodes[addr].Tick(c.round, c.net)
		}
	}
}

func (c *Cluster) applyScript() {
	for _, ev := range c.script.AtRound(int(c.round)) {
		switch ev.Kind {
		case config.EventKill:
			c.KillNode(ev.Target)
		case config.EventRevive:
			c.RestartNode(ev.Target)
		case config.EventLeave:
			c.LeaveNode(ev.Target)
		}
	}
}

// Run advances the cluster by n rounds.
func (c *Cluster) Run(n int) {
	for i := 0; i < n; i++ {
		c.Step()
	}
}

// AwaitAllInGroup runs up to maxRounds additional rounds, stopping
// early once every currently-alive node reports InGroup. Returns
// false if the deadline is reached first.
func (c *Cluster) AwaitAllInGroup(maxRounds int) bool {
	for i := 0; i < maxRounds; i++ {
		allJoined := true
		for _, addr := range c.Addrs() {
			if c.alive[addr] && !c.nodes[addr].InGroup() {
				allJoined = false
				break
			}
		}
		if allJoined {
			return true
		}
		c.Step()
	}
	return false
}

// String renders a one-line summary of cluster state, useful for test
// failure messages.
func (c *Cluster) String() string {
	return fmt.Sprintf("cluster@round=%d nodes=%d", c.round, len(c.nodes))
}
