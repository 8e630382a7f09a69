package retry

import (
	"context"
	"fmt"
	"time"
)

// Verdict tells the loop what to do with the error returned by an attempt.
type Verdict int

const (
	// Retryable errors are retried until the attempt bound is hit.
	Retryable Verdict = iota
	// Terminal errors stop the loop immediately.
	Terminal
)

type Classifier func(err error) Verdict

// Policy is a bounded retry with a delay that doubles after every failed
// attempt. Both submission and confirmation share this loop, only the
// classifier and the bounds differ.
type Policy struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Classify     Classifier
}

// Always retries every error up to the attempt bound.
func Always(error) Verdict { return Retryable }

type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry: %d attempts exhausted: %s", e.Attempts, e.Last.Error())
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Do runs fn until it succeeds, the classifier declares the error terminal,
// the attempt bound is exhausted, or the context ends. A terminal error is
// returned as-is; exhaustion is wrapped in *ExhaustedError so callers can
// tell the two apart.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	classify := p.Classify
	if classify == nil {
		classify = Always
	}
	delay := p.InitialDelay
	var last error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		last = fn()
		if last == nil {
			return nil
		}
		if classify(last) == Terminal {
			return last
		}
		if attempt == p.Attempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return &ExhaustedError{Attempts: p.Attempts, Last: last}
}
