package solver

import "time"

// Timer is the cooperative deadline for one query_check_light call. It
// is polled from the evaluator wrapper rather than from a goroutine;
// the solver is single-threaded throughout.
type Timer struct {
	deadline time.Time
	armed    bool
}

// Start arms the timer for d from now. A zero duration disables it.
func (t *Timer) Start(d time.Duration) {
	if d <= 0 {
		t.armed = false
		return
	}
	t.deadline = time.Now().Add(d)
	t.armed = true
}

// Expired reports whether the deadline passed. Callers rate-limit this
// themselves; see the wrapper's poll pattern.
func (t *Timer) Expired() bool {
	return t.armed && time.Now().After(t.deadline)
}
