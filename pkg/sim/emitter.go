package sim

import (
	"io"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/wsn.go/pkg/framework"
)

// Emitter writes generated frames at a fixed interval. It runs as a loop
// controller.
type Emitter struct {
	Generator *Generator
	W         io.Writer
	Interval  time.Duration
	// Limit stops emitting after this many frames, 0 means no limit.
	Limit int

	Sent      int
	Corrupted int

	last time.Time
}

// AddToLoop implements LoopAdder.
func (e *Emitter) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvOutput, e)
}

// Done reports whether Limit frames have been sent.
func (e *Emitter) Done() bool {
	return e.Limit > 0 && e.Sent >= e.Limit
}

// Control implements Controller.
func (e *Emitter) Control(cc fx.ControlContext) error {
	if e.Done() || (!e.last.IsZero() && cc.Time().Sub(e.last) < e.Interval) {
		return nil
	}
	e.last = cc.Time()
	s := e.Generator.Next()
	if _, err := e.W.Write(s.Bytes); err != nil {
		return err
	}
	e.Sent++
	if s.Corrupted {
		e.Corrupted++
	}
	glog.V(2).Infof("sent % x (%v)", s.Bytes, s.Value.Describe())
	return nil
}
