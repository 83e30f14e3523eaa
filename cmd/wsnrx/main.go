package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"net/http"

	"github.com/golang/glog"

	"github.com/robotalks/wsn.go/pkg/capture"
	"github.com/robotalks/wsn.go/pkg/dispatch"
	"github.com/robotalks/wsn.go/pkg/env"
	fx "github.com/robotalks/wsn.go/pkg/framework"
	"github.com/robotalks/wsn.go/pkg/metrics"
	"github.com/robotalks/wsn.go/pkg/mqtt"
	"github.com/robotalks/wsn.go/pkg/receiver"
	"github.com/robotalks/wsn.go/pkg/serio"
	"github.com/robotalks/wsn.go/pkg/websocket"
)

var (
	reply        = true
	readingsOnly bool
	listPorts    bool
)

func init() {
	env.SetupFlags()
	flag.BoolVar(&reply, "reply", reply, "Write report lines back to the serial port.")
	flag.BoolVar(&readingsOnly, "readings-only", readingsOnly, "Reply with readings only, not errors and notices.")
	flag.BoolVar(&listPorts, "list", listPorts, "List serial ports and exit.")
}

func main() {
	flag.Parse()
	if listPorts {
		ports, err := serio.ListPorts()
		if err != nil {
			glog.Fatalln(err)
		}
		for _, p := range ports {
			glog.Infoln(p)
		}
		glog.Flush()
		return
	}

	conf, err := env.Resolve()
	if err != nil {
		glog.Fatalln(err)
	}
	mode, _ := conf.DriverMode()
	node := conf.Node()

	port, err := serio.OpenPort(conf.Port, conf.PortOptions())
	if err != nil {
		glog.Fatalf("open %s: %v", conf.Port, err)
	}
	glog.Infof("node %s on %s %v", node, conf.Port, conf.PortOptions())

	d := dispatch.New(conf.LocalAddress(), dispatch.LogSink{})
	rx := receiver.New(serio.NewUART(port, 0), d, receiver.Config{
		Mode:          mode,
		Interval:      conf.Interval,
		IdleFlush:     conf.IdleFlush,
		PermitTimeout: conf.PermitTimeout,
	})
	var replier *dispatch.Reply
	if reply {
		replier = rx.WithReply()
		replier.ReadingsOnly = readingsOnly
	}

	runner := fx.NewRunner().HandleSignals()
	runnables := []fx.Runnable{rx}

	if conf.MQTTBrokerURL != "" {
		pub, err := mqtt.NewPublisher(conf.MQTTBrokerURL, mqtt.NodeMeta{
			Node:    node,
			Port:    conf.Port,
			Mode:    string(mode),
			Address: conf.LocalAddress(),
		})
		if err != nil {
			glog.Fatalf("mqtt: %v", err)
		}
		d.AddSink(pub)
		runnables = append(runnables, pub)
	}

	if conf.CaptureFile != "" {
		w, err := capture.Create(conf.CaptureFile, node)
		if err != nil {
			glog.Fatalln(err)
		}
		d.AddSink(w)
		runnables = append(runnables, w)
	}

	if conf.HTTPAddr != "" {
		m := metrics.New(metrics.WithConstLabels(map[string]string{"node": node}))
		hub := websocket.NewHub()
		m.GaugeFunc("websocket_clients", "Connected websocket clients", func() float64 {
			return float64(hub.Clients())
		})
		if replier != nil {
			m.GaugeFunc("reply_pending_bytes", "Report bytes waiting for the transmitter", func() float64 {
				return float64(replier.Pending())
			})
			m.GaugeFunc("reply_dropped_lines", "Report lines dropped on backlog overflow", func() float64 {
				return float64(replier.Dropped())
			})
		}
		d.AddSink(m, hub)

		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		mux.Handle("/events", hub.Handler())
		srv := &http.Server{Addr: conf.HTTPAddr, Handler: mux}
		runnables = append(runnables, fx.NamedRun("http", fx.RunFunc(func(ctx context.Context) error {
			return fx.RunWithContextCloser(ctx, srv, srv.ListenAndServe)
		})))
		glog.Infof("serving /metrics and /events on %s", conf.HTTPAddr)
	}

	runner.Go(runnables...).WaitOrFail()
}
