package infra

import (
	"time"
)

// Backoff tracks an exponential retry delay: base * 2^failures, capped.
// Not safe for concurrent use; each retry loop owns its own instance.
type Backoff struct {
	Base     time.Duration
	Max      time.Duration
	failures int
}

// NewBackoff creates a backoff starting at base and capped at max.
func NewBackoff(base, max time.Duration) *Backoff {
	return &Backoff{Base: base, Max: max}
}

// Next records a failure and returns the delay to sleep before retrying.
func (b *Backoff) Next() time.Duration {
	d := b.delayFor(b.failures)
	b.failures++
	return d
}

// Reset clears the failure count after a success.
func (b *Backoff) Reset() {
	b.failures = 0
}

func (b *Backoff) delayFor(failures int) time.Duration {
	if failures < 0 {
		return b.Base
	}
	// 2^30 seconds already exceeds any sane cap; avoid shift overflow.
	if failures > 30 {
		return b.Max
	}

	d := b.Base * time.Duration(1<<failures)
	if d > b.Max {
		return b.Max
	}
	return d
}
