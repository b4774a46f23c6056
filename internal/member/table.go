// Package member implements the MembershipTable of spec.md §3: the
// ordered, self-entry-first view of the group each node maintains.
package member

import (
	"kvstore/internal/address"
	"kvstore/internal/clock"
)

// Failed is the heartbeat sentinel marking a suspected-failed member.
// The entry is retained (not deleted) for the TREMOVE eviction window
// so the suspicion itself can be gossiped.
const Failed int64 = -1

// Entry is one row of the Membership Table (spec.md §3, MemberEntry).
type Entry struct {
	Addr      address.Address
	Heartbeat int64
	Timestamp clock.Round // round of the last state transition
}

// IsFailed reports whether this entry is in the sticky FAILED state.
func (e Entry) IsFailed() bool {
	return e.Heartbeat == Failed
}

// Table is the ordered membership view of one node. Index 0 is always
// the owning node's self-entry (spec.md §3 invariant); no two entries
// share an (id, port) pair.
type Table struct {
	entries []Entry
}

// NewTable creates a table whose sole entry is the owner itself, with
// heartbeat 0 at round `now`. This is also the Introducer's bootstrap
// state (spec.md §4.1).
func NewTable(self address.Address, now clock.Round) *Table {
	return &Table{entries: []Entry{{Addr: self, Heartbeat: 0, Timestamp: now}}}
}

// Self returns the owning node's own entry.
func (t *Table) Self() Entry {
	return t.entries[0]
}

// Len returns the number of live-or-failed entries currently tracked
// (FAILED entries pending eviction are included).
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns a snapshot slice of all entries, self first.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Find returns the entry for addr, if tracked.
func (t *Table) Find(addr address.Address) (Entry, bool) {
	for _, e := range t.entries {
		if e.Addr.Equal(addr) {
			return e, true
		}
	}
	return Entry{}, false
}

// Insert adds a brand-new entry. Callers must have already checked
// Find returns false; Insert does not deduplicate.
func (t *Table) Insert(e Entry) {
	t.entries = append(t.entries, e)
}

// Update overwrites the stored entry for e.Addr in place. The caller
// is responsible for preserving index 0 (never replace the self
// entry's address).
func (t *Table) Update(e Entry) {
	for i := range t.entries {
		if t.entries[i].Addr.Equal(e.Addr) {
			t.entries[i] = e
			return
		}
	}
	t.Insert(e)
}

// SetSelfHeartbeat advances the owner's own heartbeat and timestamp;
// only the owner mutates its own heartbeat (spec.md §3).
func (t *Table) SetSelfHeartbeat(hb int64, now clock.Round) {
	t.entries[0].Heartbeat = hb
	t.entries[0].Timestamp = now
}

// Remove evicts the entry at addr, if present. Used once a FAILED
// entry has outlived TREMOVE.
func (t *Table) Remove(addr address.Address) {
	for i, e := range t.entries {
		if e.Addr.Equal(addr) {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
}

// NonSelf returns every entry except index 0.
func (t *Table) NonSelf() []Entry {
	if len(t.entries) <= 1 {
		return nil
	}
	out := make([]Entry, len(t.entries)-1)
	copy(out, t.entries[1:])
	return out
}

// AliveAddrs returns the addresses of every non-FAILED entry,
// including self.
func (t *Table) AliveAddrs() []address.Address {
	out := make([]address.Address, 0, len(t.entries))
	for _, e := range t.entries {
		if !e.IsFailed() {
			out = append(out, e.Addr)
		}
	}
	return out
}
