package buffer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPairFillAndSwap(t *testing.T) {
	p := NewPair(4)
	require.Equal(t, 4, p.Cap())
	require.Equal(t, 0, p.PutNum())
	require.False(t, p.Swappable())
	require.ErrorIs(t, p.Swap(), ErrNotSwappable)

	for _, c := range []byte("abcd") {
		require.NoError(t, p.PutByte(c))
	}
	require.True(t, p.PutClosed())
	require.ErrorIs(t, p.PutByte('e'), ErrFull)
	require.True(t, p.Swappable())
	require.NoError(t, p.Swap())
	require.Equal(t, 1, p.PutNum())
	require.False(t, p.PutClosed())
	require.Zero(t, p.PutLen())
	require.True(t, p.GetClosed())
	require.Equal(t, 4, p.GetLen())

	// get side still owned by the consumer
	require.NoError(t, p.PutByte('x'))
	p.ClosePut()
	require.False(t, p.Swappable())
	require.False(t, p.TrySwap())

	var got []byte
	for p.GetLen() > 0 {
		c, err := p.RemoveGet()
		require.NoError(t, err)
		got = append(got, c)
	}
	require.Equal(t, []byte("abcd"), got)
	require.False(t, p.GetClosed())
	require.True(t, p.TrySwap())

	c, err := p.PeekGet()
	require.NoError(t, err)
	require.Equal(t, byte('x'), c)
	require.Zero(t, p.PutLen())
}

func TestPairSwapResetsReleasedBuffer(t *testing.T) {
	p := NewPair(8)
	copy(p.PutData(), []byte{1, 2, 3})
	p.ClosePut()
	require.True(t, p.TrySwap())
	require.Equal(t, []byte{1, 2, 3}, p.GetData()[:3])

	require.NoError(t, p.PutByte(9))
	p.ClosePut()
	p.OpenGet()
	require.True(t, p.TrySwap())
	require.False(t, p.PutClosed())
	require.Zero(t, p.PutLen())
	require.Equal(t, byte(9), p.GetData()[0])
}

func TestPairBuffersDoNotOverlap(t *testing.T) {
	p := NewPair(2)
	_ = append(p.PutData(), 0xff)
	require.Equal(t, byte(0), p.GetData()[0])
}

func TestPairConcurrentTrySwap(t *testing.T) {
	p := NewPair(1)
	require.NoError(t, p.PutByte(1))
	var wg sync.WaitGroup
	var mu sync.Mutex
	swaps := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p.TrySwap() {
				mu.Lock()
				swaps++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, swaps)
}
