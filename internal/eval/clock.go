package eval

import "sync/atomic"

// StepClock is the default logical clock: a strictly increasing sequence
// counter stamped onto every trace record.
//
// Logical sequence numbers instead of wall-clock time keep traces
// deterministic: replaying a session produces the same seq values, so
// record IDs and ordering match the original run exactly.
//
// Thread-safety: StepClock is safe for concurrent use (atomic operations),
// though the Evaluator's single-threaded design means only one goroutine
// typically calls Next().
type StepClock struct {
	seq atomic.Int64
}

// NewStepClock creates a clock starting at 0.
func NewStepClock() *StepClock {
	return &StepClock{}
}

// NewStepClockAt creates a clock starting at a specific sequence number.
// Used when resuming a session from its last recorded position.
func NewStepClockAt(start int64) *StepClock {
	c := &StepClock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *StepClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *StepClock) Current() int64 {
	return c.seq.Load()
}
