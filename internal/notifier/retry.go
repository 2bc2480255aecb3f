package notifier

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retrying retries failed deliveries with exponential backoff. An open
// circuit is never retried.
type Retrying struct {
	next     Notifier
	retries  uint64
	initial  time.Duration
	maxDelay time.Duration
}

// NewRetrying wraps next. A zero initial interval defaults to 500ms.
func NewRetrying(next Notifier, retries int, initial time.Duration) *Retrying {
	if retries < 0 {
		retries = 0
	}
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	return &Retrying{next: next, retries: uint64(retries), initial: initial, maxDelay: 10 * time.Second}
}

// Notify delivers msg, retrying up to the configured number of times.
func (r *Retrying) Notify(ctx context.Context, msg Message) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initial
	b.MaxInterval = r.maxDelay
	b.MaxElapsedTime = 0

	op := func() error {
		err := r.next.Notify(ctx, msg)
		if errors.Is(err, ErrCircuitOpen) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, r.retries), ctx))
}
