package notifier

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// Breaker stops calling its notifier after threshold consecutive failures.
// After cooldown one trial delivery is let through; success closes the
// circuit, failure opens it again.
type Breaker struct {
	next      Notifier
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu                  sync.Mutex
	state               breakerState
	consecutiveFailures int
	openedAt            time.Time
}

// NewBreaker wraps next. A threshold below one disables the breaker.
func NewBreaker(next Notifier, threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{
		next:      next,
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Notify delivers msg unless the circuit is open.
func (b *Breaker) Notify(ctx context.Context, msg Message) error {
	if err := b.allow(); err != nil {
		return err
	}

	err := b.next.Notify(ctx, msg)
	if err != nil {
		b.recordFailure()
		return err
	}
	b.recordSuccess()
	return nil
}

// Open reports whether deliveries are currently rejected.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state != stateClosed
}

func (b *Breaker) allow() error {
	if b.threshold < 1 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateOpen:
		if b.now().Sub(b.openedAt) >= b.cooldown {
			b.state = stateHalfOpen
			return nil
		}
		return ErrCircuitOpen
	case stateHalfOpen:
		return ErrCircuitOpen
	default:
		return nil
	}
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = stateClosed
	b.consecutiveFailures = 0
}

func (b *Breaker) recordFailure() {
	if b.threshold < 1 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures++
	if b.state == stateHalfOpen || b.consecutiveFailures >= b.threshold {
		b.state = stateOpen
		b.openedAt = b.now()
	}
}
