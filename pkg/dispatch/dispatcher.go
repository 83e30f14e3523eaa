package dispatch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robotalks/wsn.go/pkg/buffer"
	"github.com/robotalks/wsn.go/pkg/frame"
	"github.com/robotalks/wsn.go/pkg/payload"
)

// DefaultLocalAddress is the node address of the receiver.
const DefaultLocalAddress = 1

// Stats counts dispatched records.
type Stats struct {
	Readings atomic.Uint64
	Errors   atomic.Uint64
	NotMine  atomic.Uint64
	Unknown  atomic.Uint64
}

// Dispatcher owns the consumer side of the record pair.
type Dispatcher struct {
	LocalAddress byte
	Sinks        []Sink
	Stats        Stats
}

// New creates a Dispatcher.
func New(addr byte, sinks ...Sink) *Dispatcher {
	return &Dispatcher{LocalAddress: addr, Sinks: sinks}
}

// AddSink appends sinks.
func (d *Dispatcher) AddSink(sinks ...Sink) *Dispatcher {
	d.Sinks = append(d.Sinks, sinks...)
	return d
}

// Classify turns a record into an event. The record payload is copied.
func (d *Dispatcher) Classify(rec frame.Record) *Event {
	e := &Event{Time: time.Now(), Record: rec.Clone()}
	switch {
	case rec.Kind != frame.OK:
		e.Err = rec.Err()
		d.Stats.Errors.Add(1)
	case rec.Dst != d.LocalAddress:
		e.Notice = NoticeNotMine
		d.Stats.NotMine.Add(1)
	case !rec.Type.IsKnown():
		e.Notice = NoticeUnknownType
		d.Stats.Unknown.Add(1)
	default:
		if e.Value, e.Err = payload.Decode(e.Record); e.Err != nil {
			d.Stats.Errors.Add(1)
		} else {
			d.Stats.Readings.Add(1)
		}
	}
	return e
}

// Dispatch classifies rec and hands the event to every sink.
func (d *Dispatcher) Dispatch(ctx context.Context, rec frame.Record) *Event {
	e := d.Classify(rec)
	for _, s := range d.Sinks {
		s.HandleEvent(ctx, e)
	}
	return e
}

// Poll dispatches the record in the get buffer of pair, if any, and
// releases it. It never blocks and reports whether a record was handled.
func (d *Dispatcher) Poll(ctx context.Context, pair *buffer.Pair) bool {
	if !pair.GetClosed() && !pair.TrySwap() {
		return false
	}
	d.Dispatch(ctx, frame.DecodeRecord(pair.GetData()))
	pair.OpenGet()
	return true
}

// Run is the blocking consumer task. It waits for each record on h and
// releases it after dispatching, until ctx is done or a wait fails.
func (d *Dispatcher) Run(ctx context.Context, h *buffer.Handoff) error {
	for {
		if err := h.Consume(ctx); err != nil {
			return err
		}
		d.Dispatch(ctx, frame.DecodeRecord(h.Pair.GetData()))
		if err := h.Release(); err != nil {
			return err
		}
	}
}
