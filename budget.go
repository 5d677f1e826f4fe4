package tspmip

import "time"

// Timer tracks the global time budget of a run from a fixed start mark.
type Timer struct {
	start time.Time
	limit time.Duration
	now   func() time.Time
}

func NewTimer(limit time.Duration) *Timer {
	return &Timer{start: time.Now(), limit: limit, now: time.Now}
}

// NewTimerWithClock is NewTimer with an injectable clock.
func NewTimerWithClock(limit time.Duration, now func() time.Time) *Timer {
	return &Timer{start: now(), limit: limit, now: now}
}

func (t *Timer) Limit() time.Duration {
	return t.limit
}

func (t *Timer) Elapsed() time.Duration {
	return t.now().Sub(t.start)
}

// Remaining never goes below zero.
func (t *Timer) Remaining() time.Duration {
	if r := t.limit - t.Elapsed(); r > 0 {
		return r
	}
	return 0
}

func (t *Timer) Expired() bool {
	return t.Remaining() == 0
}

// SubLimit is the budget of a nested solve: min(limit/divisor, remaining).
func (t *Timer) SubLimit(divisor float64) time.Duration {
	frac := t.limit
	if divisor > 0 {
		frac = time.Duration(float64(t.limit) / divisor)
	}
	if r := t.Remaining(); r < frac {
		return r
	}
	return frac
}
