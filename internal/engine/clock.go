package engine

import "sync/atomic"

// Clock is the monotonic logical clock that stamps mutations.
//
// Every applied mutation gets a strictly increasing seq, which also becomes
// the Revision of the resulting store.State. Wall-clock time is never used
// for ordering, so replaying a journal reproduces the same revisions.
//
// Thread-safety: Clock is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next value is start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last sequence number handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Observe advances the clock to seq if it is behind. Replay uses it so that
// fresh mutations continue after the last journaled one.
func (c *Clock) Observe(seq int64) {
	for {
		cur := c.seq.Load()
		if seq <= cur || c.seq.CompareAndSwap(cur, seq) {
			return
		}
	}
}
