package serio

import (
	"context"
	"time"

	"github.com/robotalks/wsn.go/pkg/buffer"
)

// Blocking is the preemptive driver. A receive task fills input buffers and
// a transmit task drains output buffers; both block on Handoff permits.
type Blocking struct {
	UART *UART
	In   *buffer.Handoff
	Out  *buffer.Handoff
	// IdleFlush hands over a partially filled input buffer after this much
	// line silence. Zero hands over input buffers only when full.
	IdleFlush time.Duration

	inHeld bool
}

// NewBlocking creates a Blocking driver. timeout bounds the waits for a
// released buffer, zero waits forever. Waits for line data are unbounded.
func NewBlocking(u *UART, inSize, outSize int, timeout time.Duration) *Blocking {
	d := &Blocking{
		UART: u,
		In:   buffer.NewHandoff(buffer.NewPair(inSize)),
		Out:  buffer.NewHandoff(buffer.NewPair(outSize)),
	}
	d.In.Timeout, d.Out.Timeout = timeout, timeout
	return d
}

// Run implements framework.Runnable. It runs the receive and transmit tasks
// until ctx is done or either fails.
func (d *Blocking) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 2)
	go func() { errCh <- d.rxTask(ctx) }()
	go func() { errCh <- d.txTask(ctx) }()
	err := <-errCh
	cancel()
	<-errCh
	return err
}

func (d *Blocking) rxTask(ctx context.Context) error {
	pair := d.In.Pair
	for {
		var idle <-chan time.Time
		if d.IdleFlush > 0 && pair.PutLen() > 0 {
			idle = time.After(d.IdleFlush)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.UART.Done():
			return d.UART.closedErr(ctx)
		case b := <-d.UART.RxChan():
			pair.PutByte(b)
			if !pair.PutClosed() {
				continue
			}
		case <-idle:
		}
		if err := d.In.Complete(ctx); err != nil {
			return err
		}
	}
}

func (d *Blocking) txTask(ctx context.Context) error {
	pair := d.Out.Pair
	for {
		if err := d.Out.Consume(ctx); err != nil {
			return err
		}
		for pair.GetClosed() {
			b, _ := pair.RemoveGet()
			if err := d.UART.SendByte(ctx, b); err != nil {
				return err
			}
		}
		if err := d.Out.Release(); err != nil {
			return err
		}
	}
}

// GetByte implements frame.BlockingSource. It waits for a filled input
// buffer when the current one is drained.
func (d *Blocking) GetByte(ctx context.Context) (byte, error) {
	if !d.inHeld {
		if err := d.In.Consume(ctx); err != nil {
			return 0, err
		}
		d.inHeld = true
	}
	b, err := d.In.Pair.RemoveGet()
	if err != nil {
		return 0, err
	}
	if !d.In.Pair.GetClosed() {
		d.inHeld = false
		if err = d.In.Release(); err != nil {
			return 0, err
		}
	}
	return b, nil
}

// Sink returns an output byte sink bound to ctx, for use by a single
// producer.
func (d *Blocking) Sink(ctx context.Context) *BlockingSink {
	return &BlockingSink{ctx: ctx, d: d}
}

// BlockingSink queues output bytes, blocking while both output buffers are
// in use.
type BlockingSink struct {
	ctx context.Context
	d   *Blocking
	err error
}

// PutByte queues b. It returns false once a wait has failed; Err reports
// why. A byte that filled the buffer is accepted even if the following
// handover fails.
func (s *BlockingSink) PutByte(b byte) bool {
	if s.err != nil {
		return false
	}
	pair := s.d.Out.Pair
	if s.err = pair.PutByte(b); s.err != nil {
		return false
	}
	if pair.PutClosed() {
		s.err = s.d.Out.Complete(s.ctx)
	}
	return true
}

// Flush hands over a partially filled output buffer.
func (s *BlockingSink) Flush() {
	if s.err == nil && s.d.Out.Pair.PutLen() > 0 {
		s.err = s.d.Out.Complete(s.ctx)
	}
}

// Err returns the first error of the sink.
func (s *BlockingSink) Err() error {
	return s.err
}
