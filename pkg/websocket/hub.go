package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/wsn.go/pkg/dispatch"
)

// Message is the JSON form of an event sent to websocket clients.
type Message struct {
	Time    time.Time `json:"time"`
	Kind    string    `json:"kind"`
	Notice  string    `json:"notice,omitempty"`
	Src     byte      `json:"src"`
	Dst     byte      `json:"dst"`
	Type    string    `json:"type,omitempty"`
	Value   any       `json:"value,omitempty"`
	Summary string    `json:"summary"`
}

// MessageOf converts an event.
func MessageOf(e *dispatch.Event) *Message {
	m := &Message{
		Time:    e.Time,
		Kind:    e.Record.Kind.String(),
		Src:     e.Record.Src,
		Dst:     e.Record.Dst,
		Value:   e.Value,
		Summary: e.String(),
	}
	if e.Notice != dispatch.NoticeNone {
		m.Notice = e.Notice.String()
	}
	if e.Record.Kind.Err() == nil {
		m.Type = e.Record.Type.String()
	}
	return m
}

// DefaultClientQueue is the per-client backlog before messages are dropped.
const DefaultClientQueue = 64

// Hub is a dispatch.Sink streaming events to every connected websocket
// client. Slow clients lose messages instead of stalling the dispatcher.
type Hub struct {
	QueueSize int

	lock    sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn    *websocket.Conn
	msgCh   chan *Message
	dropped int
}

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{QueueSize: DefaultClientQueue, clients: make(map[*client]struct{})}
}

// Handler returns the websocket handler to mount on an HTTP mux.
func (h *Hub) Handler() websocket.Handler {
	return websocket.Handler(h.serve)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

func (h *Hub) serve(conn *websocket.Conn) {
	size := h.QueueSize
	if size <= 0 {
		size = DefaultClientQueue
	}
	c := &client{conn: conn, msgCh: make(chan *Message, size)}
	h.lock.Lock()
	h.clients[c] = struct{}{}
	h.lock.Unlock()
	glog.V(2).Infof("websocket: %s connected", conn.Request().RemoteAddr)

	ctx, cancel := context.WithCancel(conn.Request().Context())
	defer cancel()
	go func() {
		// clients only talk to close; any read error ends the session.
		var discard []byte
		for websocket.Message.Receive(conn, &discard) == nil {
		}
		cancel()
	}()
	defer func() {
		h.lock.Lock()
		delete(h.clients, c)
		h.lock.Unlock()
		glog.V(2).Infof("websocket: %s disconnected", conn.Request().RemoteAddr)
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-c.msgCh:
			if err := websocket.JSON.Send(conn, m); err != nil {
				return
			}
		}
	}
}

// HandleEvent implements dispatch.Sink.
func (h *Hub) HandleEvent(ctx context.Context, e *dispatch.Event) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if len(h.clients) == 0 {
		return
	}
	m := MessageOf(e)
	for c := range h.clients {
		select {
		case c.msgCh <- m:
		default:
			c.dropped++
			glog.V(2).Infof("websocket: client backlog full, %d dropped", c.dropped)
		}
	}
}
