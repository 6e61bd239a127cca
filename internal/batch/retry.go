package batch

import (
	"math/rand"
	"time"
)

// Per-batch retry defaults. Retries apply only to failures classified as
// retryable; auth and protocol failures surface on the first attempt.
const (
	DefaultRetries   = 2
	DefaultRetryBase = 250 * time.Millisecond
	DefaultRetryMax  = 2 * time.Second
)

// retryBackoff computes bounded exponential delays between command retries.
// Sleeping goes through the injected Clock so retry sequences are testable
// without wall-clock delay.
type retryBackoff struct {
	base time.Duration
	max  time.Duration
	cur  time.Duration
}

func newRetryBackoff(base, max time.Duration) *retryBackoff {
	return &retryBackoff{base: base, max: max}
}

// Next returns the next delay, doubling each call up to max.
func (b *retryBackoff) Next() time.Duration {
	if b.cur <= 0 {
		b.cur = b.base
	} else {
		b.cur *= 2
		if b.cur > b.max {
			b.cur = b.max
		}
	}
	// jitter ~ +/-20%
	j := 0.8 + 0.4*rand.Float64()
	return time.Duration(float64(b.cur) * j)
}
