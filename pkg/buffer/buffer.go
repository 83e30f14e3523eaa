package buffer

import "sync/atomic"

// Buffer is a fixed-capacity byte region with a put cursor, a get cursor and
// a closed flag. The backing storage is assigned once and never resized.
//
// The cursors are owned by whichever side holds the buffer's role in a Pair;
// the closed flag is atomic so the other side may observe it.
type Buffer struct {
	data   []byte
	put    int
	get    int
	closed atomic.Bool
}

// NewBuffer creates a standalone Buffer with its own storage.
func NewBuffer(size int) *Buffer {
	b := &Buffer{}
	b.init(make([]byte, size))
	return b
}

func (b *Buffer) init(space []byte) {
	b.data = space
	b.Reset()
}

// Reset sets both cursors to zero and marks the buffer open.
func (b *Buffer) Reset() {
	b.put, b.get = 0, 0
	b.Open()
}

// Closed reports whether the buffer is closed.
func (b *Buffer) Closed() bool {
	return b.closed.Load()
}

// Close marks the buffer closed.
func (b *Buffer) Close() {
	b.closed.Store(true)
}

// Open marks the buffer open.
func (b *Buffer) Open() {
	b.closed.Store(false)
}

// Full reports whether putIndex reached the capacity.
func (b *Buffer) Full() bool {
	return b.put >= len(b.data)
}

// Empty reports whether every byte put has been removed.
func (b *Buffer) Empty() bool {
	return b.get == b.put
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Len returns the number of bytes put and not yet removed.
func (b *Buffer) Len() int {
	return b.put - b.get
}

// PutIndex returns the put cursor.
func (b *Buffer) PutIndex() int {
	return b.put
}

// GetIndex returns the get cursor.
func (b *Buffer) GetIndex() int {
	return b.get
}

// Data returns the full-capacity storage. Only bytes before PutIndex are
// meaningful.
func (b *Buffer) Data() []byte {
	return b.data
}

// AddByte appends c at putIndex. The buffer closes itself when it becomes
// full. A closed or full buffer rejects the byte with ErrFull.
func (b *Buffer) AddByte(c byte) error {
	if b.Full() || b.Closed() {
		return ErrFull
	}
	b.data[b.put] = c
	b.put++
	if b.Full() {
		b.Close()
	}
	return nil
}

// NextByte returns the byte at getIndex without removing it.
func (b *Buffer) NextByte() (byte, error) {
	if b.Empty() {
		return 0, ErrEmpty
	}
	return b.data[b.get], nil
}

// RemoveByte returns the byte at getIndex and advances it. The buffer opens
// itself once drained.
func (b *Buffer) RemoveByte() (byte, error) {
	if b.Empty() {
		return 0, ErrEmpty
	}
	c := b.data[b.get]
	b.get++
	if b.Empty() {
		b.Open()
	}
	return c, nil
}
