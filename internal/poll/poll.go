// Package poll implements the fixed-interval, time-bounded polling loop used
// to wait for a build to start and to finish.
package poll

import (
	"context"
	"time"
)

// Outcome is the final state of a polling phase
type Outcome int

const (
	// Resolved means the check reported completion before the timeout
	Resolved Outcome = iota
	// TimedOut means the timeout elapsed without completion
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case TimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// Clock is the time source of a Poller
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// RealClock is the wall clock
var RealClock Clock = realClock{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Poller describes one bounded polling phase
type Poller struct {
	Interval time.Duration
	Timeout  time.Duration
	Clock    Clock
	// OnWait is called after every unsuccessful check, before sleeping
	OnWait func(attempt int)
}

// Check is one polling attempt. It returns the value and whether it is final.
type Check[T any] func(ctx context.Context) (T, bool, error)

// Until sleeps one interval, then runs check every interval until it reports
// done or the timeout since the start of the phase elapses. An error from
// check ends polling immediately.
func Until[T any](ctx context.Context, p Poller, check Check[T]) (T, Outcome, error) {
	var zero T

	clock := p.Clock
	if clock == nil {
		clock = RealClock
	}

	start := clock.Now()
	if err := clock.Sleep(ctx, p.Interval); err != nil {
		return zero, TimedOut, err
	}

	for attempt := 1; clock.Now().Sub(start) < p.Timeout; attempt++ {
		value, done, err := check(ctx)
		if err != nil {
			return zero, TimedOut, err
		}
		if done {
			return value, Resolved, nil
		}

		if p.OnWait != nil {
			p.OnWait(attempt)
		}
		if err := clock.Sleep(ctx, p.Interval); err != nil {
			return zero, TimedOut, err
		}
	}

	return zero, TimedOut, nil
}
