package buffer

import (
	"sync"
	"sync/atomic"
)

// Pair is a double buffer: two Buffers plus the role bit selecting which one
// is being filled.
type Pair struct {
	buffers [2]Buffer
	putNum  atomic.Uint32
	swapMu  sync.Mutex
}

// NewPair creates a Pair whose buffers each hold size bytes. Both buffers are
// carved from one allocation made here and kept for the Pair's lifetime.
func NewPair(size int) *Pair {
	p := &Pair{}
	space := make([]byte, 2*size)
	p.buffers[0].init(space[:size:size])
	p.buffers[1].init(space[size:])
	return p
}

// Put returns the buffer currently in the put role.
func (p *Pair) Put() *Buffer {
	return &p.buffers[p.putNum.Load()]
}

// Get returns the buffer currently in the get role.
func (p *Pair) Get() *Buffer {
	return &p.buffers[1-p.putNum.Load()]
}

// PutNum returns the index of the put buffer, 0 or 1.
func (p *Pair) PutNum() int {
	return int(p.putNum.Load())
}

// Cap returns the capacity of each buffer.
func (p *Pair) Cap() int {
	return p.buffers[0].Cap()
}

// ResetPut clears the put buffer and marks it open.
func (p *Pair) ResetPut() {
	p.Put().Reset()
}

// PutData exposes the put buffer storage to the producer.
func (p *Pair) PutData() []byte {
	return p.Put().Data()
}

// GetData exposes the get buffer storage to the consumer.
func (p *Pair) GetData() []byte {
	return p.Get().Data()
}

// PutClosed reports whether the put buffer is closed.
func (p *Pair) PutClosed() bool {
	return p.Put().Closed()
}

// GetClosed reports whether the get buffer is closed.
func (p *Pair) GetClosed() bool {
	return p.Get().Closed()
}

// ClosePut marks the put buffer closed, e.g. when a record is complete before
// the capacity is used up.
func (p *Pair) ClosePut() {
	p.Put().Close()
}

// OpenGet marks the get buffer open, releasing it back to the producer.
func (p *Pair) OpenGet() {
	p.Get().Open()
}

// PutByte adds a byte to the put buffer.
func (p *Pair) PutByte(c byte) error {
	return p.Put().AddByte(c)
}

// PutLen returns the number of bytes in the put buffer.
func (p *Pair) PutLen() int {
	return p.Put().PutIndex()
}

// GetLen returns the number of unread bytes in the get buffer.
func (p *Pair) GetLen() int {
	return p.Get().Len()
}

// PeekGet returns the next get byte without removing it.
func (p *Pair) PeekGet() (byte, error) {
	return p.Get().NextByte()
}

// RemoveGet removes and returns the next get byte.
func (p *Pair) RemoveGet() (byte, error) {
	return p.Get().RemoveByte()
}

// Swappable reports whether the put buffer is closed and the get buffer has
// been released.
func (p *Pair) Swappable() bool {
	return p.Put().Closed() && !p.Get().Closed()
}

// TrySwap swaps the roles if Swappable holds and reports whether it did.
//
// The released get buffer is reset before the role bit is published, so a
// producer that observes the new role always finds an empty open buffer.
// Concurrent callers are serialized; only one of them swaps.
func (p *Pair) TrySwap() bool {
	p.swapMu.Lock()
	defer p.swapMu.Unlock()
	if !p.Swappable() {
		return false
	}
	put := p.putNum.Load()
	p.buffers[1-put].Reset()
	p.putNum.Store(1 - put)
	return true
}

// Swap is TrySwap returning ErrNotSwappable when the guard fails.
func (p *Pair) Swap() error {
	if !p.TrySwap() {
		return ErrNotSwappable
	}
	return nil
}
