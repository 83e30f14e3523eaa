package mqtt

import (
	"strings"

	"github.com/robotalks/wsn.go/pkg/payload"
)

// ReadingHandler receives decoded readings from a Monitor.
type ReadingHandler func(topic string, r *payload.Reading)

// MetaHandler receives node meta updates. An empty payload means the node
// went away.
type MetaHandler func(node string, meta []byte)

// Monitor subscribes to every receiver under the queue prefix.
type Monitor struct {
	Queue     *Queue
	OnReading ReadingHandler
	OnMeta    MetaHandler
	// OnBadMessage is called with messages that fail to decode.
	OnBadMessage func(topic string, err error)
}

// NewMonitor creates a Monitor on q.
func NewMonitor(q *Queue) *Monitor {
	return &Monitor{Queue: q}
}

// Subscribe installs the subscriptions and returns them for closing.
func (m *Monitor) Subscribe() []*Subscription {
	return []*Subscription{
		m.Queue.Sub("+/"+TopicMeta, m.handleMeta),
		m.Queue.Sub("+/"+TopicReading+"/#", m.handleReading),
		m.Queue.Sub("+/"+TopicError, m.handleReading),
		m.Queue.Sub("+/"+TopicNotice, m.handleReading),
	}
}

func (m *Monitor) handleMeta(topic string, data []byte) {
	if m.OnMeta != nil {
		m.OnMeta(strings.TrimSuffix(topic, "/"+TopicMeta), data)
	}
}

func (m *Monitor) handleReading(topic string, data []byte) {
	r, err := payload.Unmarshal(data)
	if err != nil {
		if m.OnBadMessage != nil {
			m.OnBadMessage(topic, err)
		}
		return
	}
	if m.OnReading != nil {
		m.OnReading(topic, r)
	}
}
