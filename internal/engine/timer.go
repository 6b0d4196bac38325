package engine

import "time"

// Timer is a repeating timer advanced by elapsed time each step. It fires at
// most once per Tick; surplus time beyond one period is folded back with a
// modulo so a long stall never produces a burst of catch-up fires.
type Timer struct {
	Period  time.Duration
	elapsed time.Duration
}

// NewTimer creates a repeating timer.
func NewTimer(period time.Duration) *Timer {
	return &Timer{Period: period}
}

// Tick advances the timer by dt and reports whether it fired.
func (t *Timer) Tick(dt time.Duration) bool {
	if dt <= 0 || t.Period <= 0 {
		return false
	}
	t.elapsed += dt
	if t.elapsed < t.Period {
		return false
	}
	t.elapsed %= t.Period
	return true
}

// Elapsed returns time accumulated toward the next fire.
func (t *Timer) Elapsed() time.Duration {
	return t.elapsed
}
