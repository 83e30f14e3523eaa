package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"io"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/wsn.go/pkg/capture"
	"github.com/robotalks/wsn.go/pkg/frame"
	fx "github.com/robotalks/wsn.go/pkg/framework"
	"github.com/robotalks/wsn.go/pkg/serio"
	"github.com/robotalks/wsn.go/pkg/sim"
)

var (
	portName   = "-"
	portOpts   serio.PortOptions
	count      int
	replayFile string
)

func init() {
	sim.SetupFlags()
	flag.StringVar(&portName, "port", portName, "Serial port to write to, - for stdout.")
	flag.IntVar(&portOpts.BaudRate, "baud", serio.DefaultBaudRate, "Serial baud rate.")
	flag.StringVar(&portOpts.Parity, "parity", "N", "Serial parity, N, E or O.")
	flag.IntVar(&count, "count", count, "Stop after this many frames, 0 runs forever.")
	flag.StringVar(&replayFile, "replay", replayFile, "Replay the valid records of a capture file instead of simulating.")
}

func openOutput() (io.WriteCloser, error) {
	if portName == "-" {
		return os.Stdout, nil
	}
	return serio.OpenPort(portName, portOpts)
}

// replay writes the valid records of a capture at the configured rate.
func replay(ctx context.Context, w io.Writer, interval time.Duration) error {
	f, err := os.Open(replayFile)
	if err != nil {
		return err
	}
	defer f.Close()
	r := capture.NewReader(f)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for sent := 0; count == 0 || sent < count; {
		m, err := r.ReadReading()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		rec := m.Record()
		if rec.Kind != frame.OK {
			continue
		}
		fr := &frame.Frame{Dst: rec.Dst, Src: rec.Src, Type: rec.Type, Payload: rec.Payload}
		if _, err := fr.WriteTo(w); err != nil {
			return err
		}
		sent++
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func main() {
	flag.Parse()
	conf := sim.NewConfig()
	out, err := openOutput()
	if err != nil {
		glog.Fatalln(err)
	}
	defer out.Close()

	runner := fx.NewRunner().HandleSignals()
	if replayFile != "" {
		runner.Go(fx.NamedRun("replay", fx.RunFunc(func(ctx context.Context) error {
			return replay(ctx, out, conf.Interval())
		})))
		runner.WaitOrFail()
		return
	}

	e := &sim.Emitter{
		Generator: conf.NewGenerator(),
		W:         out,
		Interval:  conf.Interval(),
		Limit:     count,
	}
	loop := fx.NewLoop()
	loop.Add(e)
	loop.AddController(fx.PrLvIdle, fx.ControlFunc(func(cc fx.ControlContext) error {
		if e.Done() {
			runner.Stop()
		}
		return nil
	}))
	runner.Go(fx.NamedRun("sim", loop)).WaitOrFail()
	glog.Infof("sent %d frames, %d corrupted", e.Sent, e.Corrupted)
}
