package clock

// Round is the local-round timestamp unit spec.md §5 mandates: every
// timeout (TFAIL, TREMOVE, TIMEOUT_SEC) is expressed in round units,
// never wall-clock time.
type Round int64

// Clock is a monotonically increasing round counter, advanced one
// round at a time from a single thread (spec §5: "no preemption; no
// data races; no locks needed"). It has no locking of its own.
type Clock struct {
	round Round
}

// NewClock creates a clock starting at round 0.
func NewClock() *Clock {
	return &Clock{}
}

// Now returns the current round.
func (c *Clock) Now() Round {
	return c.round
}

// Advance moves the clock forward by one round and returns the new
// value. Only the harness should call this.
func (c *Clock) Advance() Round {
	c.round++
	return c.round
}

// Elapsed returns how many rounds have passed since `since`.
func Elapsed(now, since Round) Round {
	return now - since
}
