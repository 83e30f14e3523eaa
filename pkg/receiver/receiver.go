// Package receiver assembles a serial driver, the frame parser and a
// dispatcher into a running receiver for one of the driver modes.
package receiver

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/wsn.go/pkg/buffer"
	"github.com/robotalks/wsn.go/pkg/dispatch"
	"github.com/robotalks/wsn.go/pkg/frame"
	fx "github.com/robotalks/wsn.go/pkg/framework"
	"github.com/robotalks/wsn.go/pkg/serio"
)

// Config selects the driver and its timing.
type Config struct {
	Mode          serio.Mode
	Interval      time.Duration
	IdleFlush     time.Duration
	PermitTimeout time.Duration
	InputSize     int
	OutputSize    int
}

// Receiver runs the receive path, and the reply path when Reply is set.
type Receiver struct {
	Config
	UART       *serio.UART
	Dispatcher *dispatch.Dispatcher
	// Reply, when set, must also be a sink of Dispatcher. Its byte sink is
	// bound to the driver by Run.
	Reply *dispatch.Reply

	parser frame.Parser
}

// New creates a Receiver.
func New(u *serio.UART, d *dispatch.Dispatcher, conf Config) *Receiver {
	if conf.InputSize <= 0 {
		conf.InputSize = serio.DefaultInputSize
	}
	if conf.OutputSize <= 0 {
		conf.OutputSize = serio.DefaultOutputSize
	}
	return &Receiver{Config: conf, UART: u, Dispatcher: d}
}

// WithReply creates a Reply, registers it on the dispatcher and returns it.
func (r *Receiver) WithReply() *dispatch.Reply {
	r.Reply = dispatch.NewReply(nil)
	r.Dispatcher.AddSink(r.Reply)
	return r.Reply
}

// Name implements framework.Named.
func (r *Receiver) Name() string {
	return "receiver/" + string(r.Mode)
}

// Run implements framework.Runnable.
func (r *Receiver) Run(ctx context.Context) error {
	glog.Infof("receiver mode %s, local address %d", r.Mode, r.Dispatcher.LocalAddress)
	switch r.Mode {
	case serio.ModePolled:
		return r.runPolled(ctx)
	case serio.ModeInterrupt:
		return r.runInterrupt(ctx)
	case serio.ModeBlocking:
		return r.runBlocking(ctx)
	}
	return fmt.Errorf("%w: %q", serio.ErrUnknownMode, r.Mode)
}

func (r *Receiver) newLoop() *fx.Loop {
	loop := fx.NewLoop()
	if r.Interval > 0 {
		loop.Interval = r.Interval
	}
	loop.AddRunnable(fx.NamedRun("uart", r.UART))
	return loop
}

// addStages registers parse, dispatch and reply on the task loop.
func (r *Receiver) addStages(loop *fx.Loop, src frame.Source, sink dispatch.ByteSink) {
	pair := buffer.NewPair(frame.RecordSize)
	loop.AddController(fx.PrLvParse, fx.ControlFunc(func(cc fx.ControlContext) error {
		if pr := r.parser.Pump(src, pair); pr.Stalled {
			cc.TriggerNext()
		}
		return nil
	}))
	loop.AddController(fx.PrLvDispatch, fx.ControlFunc(func(cc fx.ControlContext) error {
		if r.Dispatcher.Poll(cc.Context(), pair) {
			cc.TriggerNext()
		}
		return nil
	}))
	if r.Reply != nil {
		r.Reply.Sink = sink
		loop.AddController(fx.PrLvReply, fx.ControlFunc(func(cc fx.ControlContext) error {
			r.Reply.Service()
			return nil
		}))
	}
}

func (r *Receiver) runPolled(ctx context.Context) error {
	d := serio.NewPolled(r.UART, r.InputSize, r.OutputSize)
	d.IdleFlush = r.IdleFlush
	loop := r.newLoop()
	loop.AddController(fx.PrLvInput, fx.ControlFunc(func(fx.ControlContext) error {
		d.ServiceRx()
		return nil
	}))
	r.addStages(loop, d, d)
	loop.AddController(fx.PrLvOutput, fx.ControlFunc(func(fx.ControlContext) error {
		d.ServiceTx()
		return nil
	}))
	return loop.Run(ctx)
}

func (r *Receiver) runInterrupt(ctx context.Context) error {
	d := serio.NewInterrupt(r.UART, r.InputSize, r.OutputSize)
	d.IdleFlush = r.IdleFlush
	loop := r.newLoop()
	d.Notify = loop.TriggerNext
	loop.AddRunnable(fx.NamedRun("isr", d))
	r.addStages(loop, d, d)
	return loop.Run(ctx)
}

func (r *Receiver) runBlocking(ctx context.Context) error {
	d := serio.NewBlocking(r.UART, r.InputSize, r.OutputSize, r.PermitTimeout)
	d.IdleFlush = r.IdleFlush
	h := buffer.NewHandoff(buffer.NewPair(frame.RecordSize))
	h.Timeout = r.PermitTimeout

	runner := fx.NewRunnerWith(ctx)
	if r.Reply != nil {
		r.Reply.Sink = d.Sink(runner.Context)
	}
	runner.Go(
		fx.NamedRun("uart", r.UART),
		fx.NamedRun("driver", d),
		fx.NamedRun("parser", fx.RunFunc(func(ctx context.Context) error {
			return r.parser.Run(ctx, d, h)
		})),
		fx.NamedRun("dispatcher", fx.RunFunc(func(ctx context.Context) error {
			return r.Dispatcher.Run(ctx, h)
		})),
	)
	if err := runner.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
