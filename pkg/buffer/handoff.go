package buffer

import (
	"context"
	"time"
)

// Permits is a counting permit pool backed by a buffered channel.
type Permits chan struct{}

// NewPermits creates a pool able to hold max permits, initially holding n.
func NewPermits(max, n int) Permits {
	p := make(Permits, max)
	for i := 0; i < n; i++ {
		p <- struct{}{}
	}
	return p
}

// Release returns one permit to the pool. Releasing into a full pool means
// the count no longer matches the buffers it describes, reported as
// ErrSpuriousRelease.
func (p Permits) Release() error {
	select {
	case p <- struct{}{}:
		return nil
	default:
		return ErrSpuriousRelease
	}
}

// TryAcquire takes a permit if one is available.
func (p Permits) TryAcquire() bool {
	select {
	case <-p:
		return true
	default:
		return false
	}
}

// Acquire waits for a permit. A zero timeout waits until ctx is done.
func (p Permits) Acquire(ctx context.Context, timeout time.Duration) error {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case <-p:
		return nil
	case <-expired:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Available returns the number of permits currently in the pool.
func (p Permits) Available() int {
	return len(p)
}

// Handoff couples a Pair with two counting permits so a producer and a
// consumer running as separate goroutines block instead of polling.
//
// The open permits count get buffers released by the consumer and not yet
// reclaimed by the producer. The producer's own put buffer is not counted:
// it is always held by the producer, so the pool starts with the one empty
// get buffer and never holds more than one. The filled permits count closed
// buffers handed to the consumer and not yet taken, between zero and one.
// Only the producer swaps, so each swap takes exactly one open permit and
// releases exactly one filled permit.
type Handoff struct {
	Pair *Pair
	// Timeout bounds the producer's wait for a released buffer, surfacing
	// ErrTimeout when the consumer falls behind. Zero waits forever. The
	// consumer waits for data without a bound, a quiet line is not an error.
	Timeout time.Duration

	open   Permits
	filled Permits
	// held is owned by the consumer.
	held bool
}

// NewHandoff wraps a Pair. The Pair must be freshly created.
func NewHandoff(p *Pair) *Handoff {
	return &Handoff{
		Pair:   p,
		open:   NewPermits(1, 1),
		filled: NewPermits(1, 0),
	}
}

// Complete closes the put buffer, waits until the consumer has released the
// other buffer, swaps and signals the consumer. On return the put buffer is
// open and empty.
func (h *Handoff) Complete(ctx context.Context) error {
	h.Pair.ClosePut()
	if err := h.open.Acquire(ctx, h.Timeout); err != nil {
		return err
	}
	if err := h.Pair.Swap(); err != nil {
		h.open.Release()
		return err
	}
	return h.filled.Release()
}

// Consume blocks until a closed buffer has been handed over or ctx is done.
// On return the get buffer holds it.
func (h *Handoff) Consume(ctx context.Context) error {
	if h.held {
		return ErrSpuriousConsume
	}
	if err := h.filled.Acquire(ctx, 0); err != nil {
		return err
	}
	h.held = true
	return nil
}

// Release opens the get buffer and signals the producer. Releasing a buffer
// that was not consumed returns ErrSpuriousRelease and changes nothing.
func (h *Handoff) Release() error {
	if !h.held {
		return ErrSpuriousRelease
	}
	h.held = false
	h.Pair.OpenGet()
	return h.open.Release()
}

// OpenPermits returns the available open permits.
func (h *Handoff) OpenPermits() int {
	return h.open.Available()
}

// FilledPermits returns the available filled permits.
func (h *Handoff) FilledPermits() int {
	return h.filled.Available()
}
