package main

import (
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robotalks/wsn.go/pkg/capture"
	"github.com/robotalks/wsn.go/pkg/mqtt"
	"github.com/robotalks/wsn.go/pkg/payload"
)

var (
	mqttURL     = "mqtt://localhost:1883/wsn/"
	captureFile string
)

func init() {
	if val := os.Getenv("WSN_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&captureFile, "capture", captureFile, "Print a capture file instead of subscribing.")
}

func printReading(prefix string, r *payload.Reading) {
	log.Printf("%s: [%s] %s", prefix, r.Time().Format("15:04:05.000"), r.Summary)
}

func dumpCapture() {
	f, err := os.Open(captureFile)
	if err != nil {
		log.Fatalln(err)
	}
	defer f.Close()
	r := capture.NewReader(f)
	for {
		m, err := r.ReadReading()
		if err == io.EOF {
			return
		}
		if err != nil {
			log.Fatalln(err)
		}
		printReading(m.Node, m)
	}
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	if captureFile != "" {
		dumpCapture()
		return
	}

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	m := mqtt.NewMonitor(q)
	m.OnReading = printReading
	m.OnMeta = func(node string, meta []byte) {
		if len(meta) == 0 {
			log.Printf("%s: offline", node)
			return
		}
		log.Printf("%s: %s", node, string(meta))
	}
	m.OnBadMessage = func(topic string, err error) {
		log.Printf("%s: bad message: %v", topic, err)
	}
	m.Subscribe()
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	q.Close()
}
