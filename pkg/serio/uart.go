package serio

import (
	"context"
	"errors"
	"io"

	"github.com/golang/glog"
)

// DefaultDepth is the receive and transmit FIFO depth of a UART.
const DefaultDepth = 16

// UART turns a Port into byte-at-a-time receive and transmit registers.
// A receive goroutine reads the port and a transmit goroutine writes it; the
// FIFOs between them and the drivers are bounded so a slow consumer applies
// back pressure to the port instead of dropping bytes.
type UART struct {
	Port Port

	rx    chan byte
	tx    chan byte
	errCh chan error
	done  chan struct{}
}

// NewUART wraps a port. depth <= 0 selects DefaultDepth.
func NewUART(port Port, depth int) *UART {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &UART{
		Port:  port,
		rx:    make(chan byte, depth),
		tx:    make(chan byte, depth),
		errCh: make(chan error, 2),
		done:  make(chan struct{}),
	}
}

// Run implements framework.Runnable. It returns when ctx is done or the
// port fails, closing the port in either case.
func (u *UART) Run(ctx context.Context) error {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer close(u.done)
	go u.readLoop(subCtx)
	go u.writeLoop(subCtx)
	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-u.errCh:
		if errors.Is(err, io.EOF) {
			glog.Infof("uart: port closed")
		}
	}
	u.Port.Close()
	return err
}

// Done is closed once Run returns.
func (u *UART) Done() <-chan struct{} {
	return u.done
}

func (u *UART) readLoop(ctx context.Context) {
	buf := make([]byte, cap(u.rx))
	for {
		n, err := u.Port.Read(buf)
		for _, b := range buf[:n] {
			select {
			case u.rx <- b:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			u.errCh <- err
			return
		}
	}
}

func (u *UART) writeLoop(ctx context.Context) {
	buf := make([]byte, 0, cap(u.tx))
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-u.tx:
			buf = append(buf[:0], b)
		}
	drain:
		for len(buf) < cap(buf) {
			select {
			case b := <-u.tx:
				buf = append(buf, b)
			default:
				break drain
			}
		}
		if _, err := u.Port.Write(buf); err != nil {
			u.errCh <- err
			return
		}
	}
}

// RxByte returns a received byte if one is waiting.
func (u *UART) RxByte() (byte, bool) {
	select {
	case b := <-u.rx:
		return b, true
	default:
		return 0, false
	}
}

// RxChan exposes the receive FIFO for select.
func (u *UART) RxChan() <-chan byte {
	return u.rx
}

// TxByte queues b for transmission if the transmit FIFO has room.
func (u *UART) TxByte(b byte) bool {
	select {
	case u.tx <- b:
		return true
	default:
		return false
	}
}

// SendByte queues b, waiting for room in the transmit FIFO.
func (u *UART) SendByte(ctx context.Context, b byte) error {
	select {
	case u.tx <- b:
		return nil
	case <-u.done:
		return u.closedErr(ctx)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReceiveByte waits for the next received byte. Bytes received before the
// port closed are still delivered.
func (u *UART) ReceiveByte(ctx context.Context) (byte, error) {
	select {
	case b := <-u.rx:
		return b, nil
	case <-u.done:
		if b, ok := u.RxByte(); ok {
			return b, nil
		}
		return 0, u.closedErr(ctx)
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// closedErr reports a stop caused by ctx as the context error.
func (u *UART) closedErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrClosed
}
