package frame

import (
	"context"

	"github.com/robotalks/wsn.go/pkg/buffer"
)

// Source is a non-blocking byte source.
type Source interface {
	// GetByte returns the next received byte, or false if none is available.
	GetByte() (byte, bool)
}

// SourceFunc is func form of Source.
type SourceFunc func() (byte, bool)

// GetByte implements Source.
func (f SourceFunc) GetByte() (byte, bool) {
	return f()
}

// BlockingSource waits for the next byte.
type BlockingSource interface {
	GetByte(context.Context) (byte, error)
}

// PumpResult reports one Pump call.
type PumpResult struct {
	Bytes   int
	Records int
	// Stalled is set when a finished record could not be handed over
	// because the consumer still holds the other buffer.
	Stalled bool
}

// Pump drains src into record slots of pair without blocking. It stops when
// src has no byte, or when the put buffer holds a finished record and the
// get buffer is still owned by the consumer.
func (p *Parser) Pump(src Source, pair *buffer.Pair) (pr PumpResult) {
	for {
		if pair.PutClosed() && !pair.TrySwap() {
			pr.Stalled = true
			return
		}
		b, ok := src.GetByte()
		if !ok {
			return
		}
		pr.Bytes++
		if p.Parse(b, pair.PutData()) {
			pair.ClosePut()
			pr.Records++
		}
	}
}

// Run is the blocking parser task. It waits on src for bytes and on h for
// an open record slot after each record, until ctx is done or src fails.
func (p *Parser) Run(ctx context.Context, src BlockingSource, h *buffer.Handoff) error {
	for {
		b, err := src.GetByte(ctx)
		if err != nil {
			return err
		}
		if p.Parse(b, h.Pair.PutData()) {
			if err = h.Complete(ctx); err != nil {
				return err
			}
		}
	}
}
