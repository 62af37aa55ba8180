package app

import (
	"context"
	"errors"
	"time"

	"quiz-attempt-service/internal/domain"
)

// Tick is one countdown update. Submission is set once the deadline forced a
// submission through; Err carries a failed forced write, which is retried on
// the next tick unless the quiz no longer exists. Final marks the last tick.
type Tick struct {
	Remaining  time.Duration
	Submission *domain.Submission
	Err        error
	Final      bool
}

// RunCountdown ticks every interval until the attempt is submitted or ctx is
// done. When the deadline passes it submits the attempt through the gate; if a
// user-initiated submission won the latch first it just stops.
func (g *SubmissionGate) RunCountdown(ctx context.Context, attempt *Attempt, interval time.Duration, ticks chan<- Tick) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if done := g.tickOnce(ctx, attempt, ticks); done {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (g *SubmissionGate) tickOnce(ctx context.Context, attempt *Attempt, ticks chan<- Tick) bool {
	if attempt.State() == StateSubmitted {
		return true
	}

	remaining, expired := attempt.Tick()
	tick := Tick{Remaining: remaining}
	done := false
	if expired {
		// a forced write is not abandoned when the connection goes away
		submission, err := g.Submit(context.WithoutCancel(ctx), attempt)
		switch {
		case err == nil:
			tick.Submission = &submission
			done = true
		case errors.Is(err, domain.ErrSubmitInFlight), errors.Is(err, domain.ErrAlreadySubmitted):
			// the user's own submit owns the latch
			return attempt.State() == StateSubmitted
		case errors.Is(err, domain.ErrQuizNotFound):
			// deleted mid-attempt: nothing left to write into
			tick.Err = err
			done = true
		default:
			tick.Err = err
		}
	}
	tick.Final = done

	select {
	case ticks <- tick:
	case <-ctx.Done():
		return true
	}
	return done
}
