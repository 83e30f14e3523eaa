package buffer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPermits(t *testing.T) {
	p := NewPermits(1, 1)
	require.Equal(t, 1, p.Available())
	require.True(t, p.TryAcquire())
	require.False(t, p.TryAcquire())
	require.NoError(t, p.Release())
	require.ErrorIs(t, p.Release(), ErrSpuriousRelease)
	require.Equal(t, 1, p.Available())
}

func TestPermitsTimeout(t *testing.T) {
	p := NewPermits(1, 0)
	start := time.Now()
	err := p.Acquire(context.Background(), 20*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestPermitsCancel(t *testing.T) {
	p := NewPermits(1, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, p.Acquire(ctx, 0), context.Canceled)
}

func TestHandoffProducerConsumer(t *testing.T) {
	const records = 1000
	h := NewHandoff(NewPair(4))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		for i := 0; i < records; i++ {
			put := h.Pair.PutData()
			put[0], put[1] = byte(i), byte(i>>8)
			if err := h.Complete(ctx); err != nil {
				errCh <- err
				return
			}
		}
		errCh <- nil
	}()

	for i := 0; i < records; i++ {
		require.NoError(t, h.Consume(ctx))
		require.True(t, h.Pair.GetClosed())
		get := h.Pair.GetData()
		require.Equal(t, i, int(get[0])|int(get[1])<<8)
		require.NoError(t, h.Release())
	}
	require.NoError(t, <-errCh)
	require.Equal(t, 1, h.OpenPermits())
	require.Zero(t, h.FilledPermits())
}

func TestHandoffProducerBlocksUntilRelease(t *testing.T) {
	h := NewHandoff(NewPair(2))
	h.Timeout = 20 * time.Millisecond
	ctx := context.Background()

	require.NoError(t, h.Complete(ctx))
	require.Equal(t, 1, h.FilledPermits())
	require.ErrorIs(t, h.Complete(ctx), ErrTimeout)

	require.NoError(t, h.Consume(ctx))
	require.NoError(t, h.Release())
	require.NoError(t, h.Complete(ctx))
}

func TestHandoffConsumerWaitsPastTimeout(t *testing.T) {
	h := NewHandoff(NewPair(2))
	h.Timeout = 5 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, h.Consume(ctx), context.DeadlineExceeded)
}

func TestHandoffSpuriousRelease(t *testing.T) {
	h := NewHandoff(NewPair(2))
	ctx := context.Background()
	require.ErrorIs(t, h.Release(), ErrSpuriousRelease)

	require.NoError(t, h.Complete(ctx))
	require.NoError(t, h.Consume(ctx))
	require.ErrorIs(t, h.Consume(ctx), ErrSpuriousConsume)
	require.NoError(t, h.Release())
	require.ErrorIs(t, h.Release(), ErrSpuriousRelease)
	require.Equal(t, 1, h.OpenPermits())
	require.Zero(t, h.FilledPermits())

	require.NoError(t, h.Complete(ctx))
	require.Zero(t, h.OpenPermits())
	require.Equal(t, 1, h.FilledPermits())
	require.True(t, h.Pair.GetClosed())
}

func TestHandoffFailedSwapKeepsPermit(t *testing.T) {
	h := NewHandoff(NewPair(2))
	// a swap behind the handoff's back leaves the get buffer closed
	h.Pair.ClosePut()
	require.NoError(t, h.Pair.Swap())

	require.ErrorIs(t, h.Complete(context.Background()), ErrNotSwappable)
	require.Equal(t, 1, h.OpenPermits())
	require.Zero(t, h.FilledPermits())
}
