package dispatch

import (
	"context"
	"sync/atomic"

	"github.com/golang/glog"
)

// ByteSink is the transmit side of a serial driver.
type ByteSink interface {
	// PutByte queues a byte, returning false when there is no room.
	PutByte(byte) bool
	// Flush hands over queued bytes for transmission.
	Flush()
}

// DefaultReplyBacklog bounds the bytes a Reply holds for a slow transmitter.
const DefaultReplyBacklog = 4096

// Reply writes one report line per event to a ByteSink. Bytes the sink
// cannot take yet stay pending until Service is called again.
type Reply struct {
	Sink ByteSink
	// Backlog bounds pending bytes; whole lines are dropped beyond it.
	Backlog int
	// ReadingsOnly suppresses lines for errors and notices.
	ReadingsOnly bool

	pending  []byte
	pendingN atomic.Int64
	dropped  atomic.Int64
}

// NewReply creates a Reply writing to sink.
func NewReply(sink ByteSink) *Reply {
	return &Reply{Sink: sink, Backlog: DefaultReplyBacklog}
}

// HandleEvent implements Sink.
func (r *Reply) HandleEvent(ctx context.Context, e *Event) {
	if r.ReadingsOnly && !e.IsReading() {
		return
	}
	line := e.String() + "\n"
	if r.Backlog > 0 && len(r.pending)+len(line) > r.Backlog {
		glog.Warningf("reply backlog full, dropped %d lines", r.dropped.Add(1))
		return
	}
	r.pending = append(r.pending, line...)
	r.Service()
}

// Service moves pending bytes to the sink. It returns true when nothing is
// left pending.
func (r *Reply) Service() bool {
	if len(r.pending) == 0 {
		return true
	}
	n := 0
	for n < len(r.pending) && r.Sink.PutByte(r.pending[n]) {
		n++
	}
	r.pending = r.pending[:copy(r.pending, r.pending[n:])]
	r.pendingN.Store(int64(len(r.pending)))
	r.Sink.Flush()
	return len(r.pending) == 0
}

// Pending returns the number of bytes not yet taken by the sink. It is safe
// to call from any goroutine.
func (r *Reply) Pending() int {
	return int(r.pendingN.Load())
}

// Dropped returns the number of lines dropped because of the backlog.
func (r *Reply) Dropped() int {
	return int(r.dropped.Load())
}
