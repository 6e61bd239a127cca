package ports

import (
	"context"
	"time"
)

// Clock abstracts time so retry backoff sequences and persistence waits run
// instantly under test.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep blocks for d or until the context is canceled, returning the
	// context error in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock implements Clock with the wall clock.
type RealClock struct{}

// Now returns time.Now().
func (RealClock) Now() time.Time { return time.Now() }

// Sleep blocks with a timer, honoring context cancellation.
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
