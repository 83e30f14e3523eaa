package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/wsn.go/pkg/dispatch"
	"github.com/robotalks/wsn.go/pkg/payload"
)

// Topic suffixes below the node prefix.
const (
	TopicMeta    = "meta"
	TopicReading = "reading"
	TopicError   = "error"
	TopicNotice  = "notice"
)

// NodeMeta is published retained on <node>/meta while the receiver is up.
type NodeMeta struct {
	Node    string `json:"node"`
	Port    string `json:"port,omitempty"`
	Mode    string `json:"mode,omitempty"`
	Address byte   `json:"address"`
}

// ReadingTopic returns the topic of a reading from src with message type t,
// relative to the queue prefix.
func ReadingTopic(node string, src byte, t fmt.Stringer) string {
	return fmt.Sprintf("%s/%s/%d/%v", node, TopicReading, src, t)
}

// Publisher is a dispatch.Sink publishing every event as a payload.Reading.
type Publisher struct {
	Queue *Queue
	Meta  NodeMeta

	metaJSON []byte
}

// NewPublisher creates a Publisher. The broker clears the retained meta
// topic if the receiver disconnects without saying goodbye.
func NewPublisher(brokerURL string, meta NodeMeta) (*Publisher, error) {
	metaJSON, err := json.Marshal(&meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+meta.Node+"/"+TopicMeta, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("wsn:" + meta.Node)
	}
	p := &Publisher{Queue: NewQueue(opts, topicPrefix), Meta: meta, metaJSON: metaJSON}
	p.Queue.OnConnect = func(*Queue) { p.onConnected() }
	return p, nil
}

// Name implements framework.Named.
func (p *Publisher) Name() string {
	return "mqtt"
}

// Run implements framework.Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	p.Queue.Connect()
	<-ctx.Done()
	p.Queue.PubWith(p.Meta.Node+"/"+TopicMeta, nil, 1, true).WaitTimeout(time.Second)
	p.Queue.Close()
	return ctx.Err()
}

func (p *Publisher) onConnected() {
	p.Queue.PubWith(p.Meta.Node+"/"+TopicMeta, p.metaJSON, 1, true)
}

// Topic returns the topic an event is published on.
func (p *Publisher) Topic(e *dispatch.Event) string {
	switch {
	case e.IsReading():
		return ReadingTopic(p.Meta.Node, e.Record.Src, e.Record.Type)
	case e.Notice != dispatch.NoticeNone:
		return p.Meta.Node + "/" + TopicNotice
	}
	return p.Meta.Node + "/" + TopicError
}

// HandleEvent implements dispatch.Sink. Publishing is asynchronous.
func (p *Publisher) HandleEvent(ctx context.Context, e *dispatch.Event) {
	r := payload.NewReading(p.Meta.Node, e.Record, e.Time)
	r.Summary = e.String()
	data, err := payload.Marshal(r)
	if err != nil {
		glog.Errorf("mqtt: encode reading: %v", err)
		return
	}
	topic := p.Topic(e)
	glog.V(2).Infof("PUB %q", topic)
	p.Queue.Pub(topic, data)
}
