package serio

import (
	"context"
	"time"

	"github.com/robotalks/wsn.go/pkg/buffer"
)

// irq is an interrupt enable bit. Holding the token means enabled; the
// handler takes it to run and puts it back to re-arm.
type irq chan struct{}

func newIRQ(enabled bool) irq {
	q := make(irq, 1)
	if enabled {
		q <- struct{}{}
	}
	return q
}

// enable sets the bit. Enabling an enabled interrupt is a no-op.
func (q irq) enable() {
	select {
	case q <- struct{}{}:
	default:
	}
}

// Interrupt is the interrupt-driven driver. The receive handler appends one
// byte per notification to the input put buffer and masks itself while the
// put buffer is closed; GetByte re-enables it after a swap. The transmit
// handler mirrors this on the output pair.
type Interrupt struct {
	UART *UART
	In   *buffer.Pair
	Out  *buffer.Pair
	// IdleFlush closes a partially filled input buffer after this much line
	// silence. Zero closes input buffers only when full.
	IdleFlush time.Duration
	// Notify, if set, is called from the receive handler whenever an input
	// buffer is closed.
	Notify func()

	rxIRQ irq
	txIRQ irq
}

// NewInterrupt creates an Interrupt driver with receive enabled and transmit
// masked.
func NewInterrupt(u *UART, inSize, outSize int) *Interrupt {
	return &Interrupt{
		UART:  u,
		In:    buffer.NewPair(inSize),
		Out:   buffer.NewPair(outSize),
		rxIRQ: newIRQ(true),
		txIRQ: newIRQ(false),
	}
}

// Run implements framework.Runnable. It runs both handlers until ctx is done
// or the UART stops.
func (d *Interrupt) Run(ctx context.Context) error {
	errCh := make(chan error, 2)
	go func() { errCh <- d.rxISR(ctx) }()
	go func() { errCh <- d.txISR(ctx) }()
	err := <-errCh
	<-errCh
	return err
}

func (d *Interrupt) rxISR(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.UART.Done():
			return d.UART.closedErr(ctx)
		case <-d.rxIRQ:
		}
		var idle <-chan time.Time
		if d.IdleFlush > 0 && d.In.PutLen() > 0 {
			idle = time.After(d.IdleFlush)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.UART.Done():
			return d.UART.closedErr(ctx)
		case b := <-d.UART.RxChan():
			d.In.PutByte(b)
		case <-idle:
			d.In.ClosePut()
		}
		if d.In.PutClosed() {
			// stays masked until GetByte swaps.
			if d.Notify != nil {
				d.Notify()
			}
			continue
		}
		d.rxIRQ.enable()
	}
}

func (d *Interrupt) txISR(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.UART.Done():
			return d.UART.closedErr(ctx)
		case <-d.txIRQ:
		}
		if !d.Out.GetClosed() {
			continue
		}
		b, _ := d.Out.PeekGet()
		if err := d.UART.SendByte(ctx, b); err != nil {
			return err
		}
		d.Out.RemoveGet()
		if d.Out.GetClosed() || d.Out.TrySwap() {
			d.txIRQ.enable()
		}
	}
}

// GetByte implements frame.Source. It runs in the task context.
func (d *Interrupt) GetByte() (byte, bool) {
	if !d.In.GetClosed() {
		if !d.In.TrySwap() {
			return 0, false
		}
		d.rxIRQ.enable()
	}
	b, err := d.In.RemoveGet()
	return b, err == nil
}

// PutByte queues b for transmission. It runs in the task context.
func (d *Interrupt) PutByte(b byte) bool {
	if d.Out.PutClosed() && !d.swapOut() {
		return false
	}
	return d.Out.PutByte(b) == nil
}

// Flush closes a partially filled output buffer and hands it to the
// transmit handler when it is idle.
func (d *Interrupt) Flush() {
	if d.Out.PutLen() > 0 {
		d.Out.ClosePut()
	}
	if d.Out.PutClosed() {
		d.swapOut()
	}
}

func (d *Interrupt) swapOut() bool {
	if !d.Out.TrySwap() {
		return false
	}
	d.txIRQ.enable()
	return true
}
