package serio

import (
	"time"

	"github.com/robotalks/wsn.go/pkg/buffer"
)

// Default buffer sizes.
const (
	DefaultInputSize  = 4
	DefaultOutputSize = 4
)

// Polled is the cooperative driver. Nothing blocks: each call moves what it
// can and returns.
type Polled struct {
	UART *UART
	In   *buffer.Pair
	Out  *buffer.Pair
	// IdleFlush closes a partially filled input buffer once the line has been
	// quiet this long. Zero closes input buffers only when full.
	IdleFlush time.Duration

	lastRx time.Time
}

// NewPolled creates a Polled driver with its own buffer pairs.
func NewPolled(u *UART, inSize, outSize int) *Polled {
	return &Polled{
		UART: u,
		In:   buffer.NewPair(inSize),
		Out:  buffer.NewPair(outSize),
	}
}

// ServiceRx moves received bytes into the input put buffer until the UART
// is empty or the put buffer is closed and cannot be swapped. It returns the
// number of bytes moved.
func (p *Polled) ServiceRx() int {
	n := 0
	for {
		if p.In.PutClosed() && !p.In.TrySwap() {
			return n
		}
		b, ok := p.UART.RxByte()
		if !ok {
			p.idleFlush()
			return n
		}
		p.In.PutByte(b)
		p.lastRx = time.Now()
		n++
	}
}

func (p *Polled) idleFlush() {
	if p.IdleFlush <= 0 || p.In.PutLen() == 0 {
		return
	}
	if time.Since(p.lastRx) >= p.IdleFlush {
		p.In.ClosePut()
		p.In.TrySwap()
	}
}

// GetByte implements frame.Source over the input pair.
func (p *Polled) GetByte() (byte, bool) {
	if !p.In.GetClosed() && !p.In.TrySwap() {
		return 0, false
	}
	b, err := p.In.RemoveGet()
	return b, err == nil
}

// PutByte queues b on the output put buffer. It returns false when the put
// buffer is closed and the transmitter still owns the other buffer.
func (p *Polled) PutByte(b byte) bool {
	if p.Out.PutClosed() && !p.Out.TrySwap() {
		return false
	}
	return p.Out.PutByte(b) == nil
}

// Flush closes a partially filled output put buffer so ServiceTx sends it.
func (p *Polled) Flush() {
	if p.Out.PutLen() > 0 {
		p.Out.ClosePut()
		p.Out.TrySwap()
	}
}

// ServiceTx moves output get buffer bytes into the UART until the UART is
// full or nothing is ready. It returns the number of bytes moved.
func (p *Polled) ServiceTx() int {
	n := 0
	for {
		if !p.Out.GetClosed() && !p.Out.TrySwap() {
			return n
		}
		b, err := p.Out.PeekGet()
		if err != nil || !p.UART.TxByte(b) {
			return n
		}
		p.Out.RemoveGet()
		n++
	}
}
