package buffer

import "errors"

var (
	// ErrFull indicates the put buffer has no room or is closed.
	ErrFull = errors.New("buffer full")
	// ErrEmpty indicates the get buffer has no byte left.
	ErrEmpty = errors.New("buffer empty")
	// ErrNotSwappable indicates a swap was requested while the put buffer
	// is open or the get buffer has not been released.
	ErrNotSwappable = errors.New("buffer pair not swappable")
	// ErrTimeout indicates a permit wait expired.
	ErrTimeout = errors.New("permit wait timeout")
	// ErrSpuriousRelease indicates a permit was released more times than
	// there are buffers in that state.
	ErrSpuriousRelease = errors.New("spurious permit release")
	// ErrSpuriousConsume indicates Consume was called while the consumer
	// still holds a buffer.
	ErrSpuriousConsume = errors.New("buffer consumed twice")
)
