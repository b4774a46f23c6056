// Package clock provides the discrete round counter that drives the
// simulation. There are no concurrent multi-version values to
// reconcile here (spec.md has no Non-goal against it, but also no
// operation that produces divergent versions — READ quorum just takes
// the first non-empty reply, §4.3), so time is expressed purely in
// round units: every timeout, heartbeat, and transaction timestamp is
// a round number supplied by the harness, never wall time.
package clock
