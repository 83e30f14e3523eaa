package dispatch

import (
	"context"

	"github.com/golang/glog"
)

// Sink receives dispatched events. Sinks are called from the dispatching
// goroutine and must not keep the event's record past the call unless they
// copy it.
type Sink interface {
	HandleEvent(context.Context, *Event)
}

// HandleEventFunc is func form of Sink.
type HandleEventFunc func(context.Context, *Event)

// HandleEvent implements Sink.
func (f HandleEventFunc) HandleEvent(ctx context.Context, e *Event) {
	f(ctx, e)
}

// LogSink logs every error and notice once, and readings at verbosity 2.
type LogSink struct{}

// HandleEvent implements Sink.
func (LogSink) HandleEvent(ctx context.Context, e *Event) {
	switch {
	case e.Err != nil || e.Notice != NoticeNone:
		glog.Warningf("%v (%v)", e, e.Record)
	default:
		glog.V(2).Infof("%v", e)
	}
}
