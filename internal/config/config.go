// Package config parses the simulation topology and churn script a
// run is driven from: which addresses exist, and which kill/revive/
// leave events fire at which round.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/xid"

	"kvstore/internal/address"
)

// Peer is one address participating in the simulation.
type Peer struct {
	ID   uint32
	Port uint16
}

// Addr returns the wire address this peer corresponds to.
func (p Peer) Addr() address.Address {
	return address.New(p.ID, p.Port)
}

// ParsePeers parses a comma-separated "id:port,id:port,..." topology
// string into a Peer list.
func ParsePeers(peersStr string) ([]Peer, error) {
	if peersStr == "" {
		return []Peer{}, nil
	}

	parts := strings.Split(peersStr, ",")
	peers := make([]Peer, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		addr, err := address.Parse(part)
		if err != nil {
			return nil, fmt.Errorf("config: invalid peer %q: %w", part, err)
		}
		peers = append(peers, Peer{ID: addr.ID, Port: addr.Port})
	}

	return peers, nil
}

// EventKind is the kind of churn a ScriptEvent introduces.
type EventKind string

const (
	// EventKill stops delivering to and from a node without telling
	// it to leave gracefully: it is only detected missing once its
	// peers' TFAIL/TREMOVE timers elapse.
	EventKill EventKind = "kill"
	// EventRevive re-registers a previously killed node and has it
	// rejoin via a fresh JOINREQ.
	EventRevive EventKind = "revive"
	// EventLeave has a live node announce its own departure via
	// Detector.Leave instead of going silent.
	EventLeave EventKind = "leave"
)

// ScriptEvent is one churn action scheduled for a specific round. ID
// is a unique, sortable identifier for the event; the script
// subcommand prints it, and applying the event does not log it.
type ScriptEvent struct {
	ID     xid.ID
	Round  int
	Kind   EventKind
	Target address.Address
}

// Script is an ordered churn schedule, parsed from lines of the form
// "round kind id:port", e.g. "12 kill 3:9003".
type Script struct {
	Events []ScriptEvent
}

// ParseScript parses a newline-separated churn script. Blank lines
// and lines starting with '#' are ignored.
func ParseScript(text string) (Script, error) {
	var s Script
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return Script{}, fmt.Errorf("config: script line %d: want 3 fields, got %d", i+1, len(fields))
		}
		round, err := strconv.Atoi(fields[0])
		if err != nil {
			return Script{}, fmt.Errorf("config: script line %d: bad round: %w", i+1, err)
		}
		kind := EventKind(fields[1])
		switch kind {
		case EventKill, EventRevive, EventLeave:
		default:
			return Script{}, fmt.Errorf("config: script line %d: unknown event kind %q", i+1, fields[1])
		}
		target, err := address.Parse(fields[2])
		if err != nil {
			return Script{}, fmt.Errorf("config: script line %d: %w", i+1, err)
		}
		s.Events = append(s.Events, ScriptEvent{ID: xid.New(), Round: round, Kind: kind, Target: target})
	}
	return s, nil
}

// AtRound returns every event scheduled for exactly this round.
func (s Script) AtRound(round int) []ScriptEvent {
	var out []ScriptEvent
	for _, e := range s.Events {
		if e.Round == round {
			out = append(out, e)
		}
	}
	return out
}

// Config is one simulation run's full configuration: its topology,
// the round count to run, and the churn schedule to apply.
type Config struct {
	Peers         []Peer
	Rounds        int
	Script        Script
	DropProb      float64
	DuplicateProb float64
	Seed          int64
}
