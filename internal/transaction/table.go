// Package transaction tracks the in-flight client-side state of a
// coordinator's CREATE/READ/UPDATE/DELETE requests: which replicas
// have replied, whether quorum has been reached, and what value a
// READ's quorum should answer with (spec.md §4.3, §4.4).
package transaction

import (
	"kvstore/internal/clock"
	"kvstore/internal/wire"
)

// Quorum is the number of matching replies a coordinator needs before
// it can finalize an operation (spec.md's QUORUM constant).
const Quorum = 2

// StabID is the sentinel transaction id the stabilizer stamps onto
// its re-replication CREATEs (spec.md's STAB_TRANS): replies to it
// are swallowed instead of tracked, so they never appear in user-
// visible logs.
const StabID = -1

// Timeout is the number of rounds a coordinator waits for quorum
// before giving up on a transaction outright (spec.md's TIMEOUT_SEC,
// expressed in rounds rather than wall-clock seconds).
const Timeout = 10

// Entry is the state a coordinator keeps for one outstanding
// operation while it waits for quorum.
type Entry struct {
	ID            int
	Type          wire.KVType
	Key           string
	Value         string
	InitRound     clock.Round
	ReplicaCount  int
	ReplyCount    int
	SuccessCount  int
	// ObservedValue is the value carried by the first non-empty
	// READREPLY seen for this transaction; spec.md leaves the
	// behavior under divergent replica values undefined, so the
	// coordinator simply keeps the first one it observes.
	ObservedValue string
}

// Elapsed reports how many rounds old this entry is.
func (e Entry) Elapsed(now clock.Round) clock.Round {
	return clock.Elapsed(now, e.InitRound)
}

// TimedOut reports whether this entry has outlived Timeout rounds
// without being finalized.
func (e Entry) TimedOut(now clock.Round) bool {
	return e.Elapsed(now) > Timeout
}

// Finalized reports whether Quorum replies have arrived yet: once they
// have, the verdict is decided then and there by whether Quorum of
// them were successes, and any later reply to this transaction is
// stale and must be dropped rather than revisited.
func (e Entry) Finalized() (done bool, success bool) {
	if e.ReplyCount >= Quorum {
		return true, e.SuccessCount >= Quorum
	}
	return false, false
}

// Table is a coordinator's set of outstanding transactions, keyed by
// a dense id assigned from a monotonic counter.
type Table struct {
	next    int
	entries map[int]*Entry
}

// NewTable creates an empty transaction table.
func NewTable() *Table {
	return &Table{entries: make(map[int]*Entry)}
}

// Begin allocates a new transaction id and tracks its entry.
// replicaCount is how many replicas the request was fanned out to.
func (t *Table) Begin(typ wire.KVType, key, value string, replicaCount int, now clock.Round) *Entry {
	t.next++
	e := &Entry{ID: t.next, Type: typ, Key: key, Value: value, ReplicaCount: replicaCount, InitRound: now}
	t.entries[e.ID] = e
	return e
}

// Get returns the tracked entry for id, if any.
func (t *Table) Get(id int) (*Entry, bool) {
	e, ok := t.entries[id]
	return e, ok
}

// RecordReply folds one REPLY or READREPLY into the entry for id.
// success is true for a REPLY with its success flag set, or for any
// READREPLY (a READREPLY's mere arrival counts as a successful
// response; its value, if non-empty, is captured as ObservedValue
// the first time one arrives).
func (t *Table) RecordReply(id int, success bool, value string) {
	e, ok := t.entries[id]
	if !ok {
		return
	}
	e.ReplyCount++
	if success {
		e.SuccessCount++
	}
	if value != "" && e.ObservedValue == "" {
		e.ObservedValue = value
	}
}

// Reap removes a finalized or timed-out transaction from the table.
func (t *Table) Reap(id int) {
	delete(t.entries, id)
}

// Outstanding returns the ids of every transaction still tracked.
func (t *Table) Outstanding() []int {
	out := make([]int, 0, len(t.entries))
	for id := range t.entries {
		out = append(out, id)
	}
	return out
}

// Len reports how many transactions are currently tracked.
func (t *Table) Len() int {
	return len(t.entries)
}
