// Package metrics exports receiver counters to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robotalks/wsn.go/pkg/dispatch"
	"github.com/robotalks/wsn.go/pkg/frame"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "wsn"

// Config configures a Sink.
type Config struct {
	Namespace   string
	ConstLabels prometheus.Labels
	// Registry defaults to a fresh registry so several receivers can
	// live in one process.
	Registry *prometheus.Registry
}

// Option modifies a Config.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(ns string) Option {
	return func(c *Config) { c.Namespace = ns }
}

// WithConstLabels adds constant labels to all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) { c.ConstLabels = labels }
}

// WithRegistry sets the registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(c *Config) { c.Registry = reg }
}

// Sink is a dispatch.Sink counting events.
type Sink struct {
	registry *prometheus.Registry
	factory  promauto.Factory
	config   Config

	records  *prometheus.CounterVec
	readings *prometheus.CounterVec
	errors   *prometheus.CounterVec
	notices  *prometheus.CounterVec
	lastSeen *prometheus.GaugeVec
}

// New creates a Sink.
func New(opts ...Option) *Sink {
	config := Config{Namespace: DefaultNamespace}
	for _, o := range opts {
		o(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	factory := promauto.With(config.Registry)
	s := &Sink{registry: config.Registry, factory: factory, config: config}
	s.records = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace:   config.Namespace,
		Name:        "records_total",
		Help:        "Records delivered by the parser, by kind",
		ConstLabels: config.ConstLabels,
	}, []string{"kind"})
	s.readings = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace:   config.Namespace,
		Name:        "readings_total",
		Help:        "Decoded readings, by source node and message type",
		ConstLabels: config.ConstLabels,
	}, []string{"src", "type"})
	s.errors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace:   config.Namespace,
		Name:        "errors_total",
		Help:        "Framing and payload errors, by kind",
		ConstLabels: config.ConstLabels,
	}, []string{"kind"})
	s.notices = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace:   config.Namespace,
		Name:        "notices_total",
		Help:        "Valid frames not reported as readings, by reason",
		ConstLabels: config.ConstLabels,
	}, []string{"notice"})
	s.lastSeen = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   config.Namespace,
		Name:        "node_last_seen_seconds",
		Help:        "Unix time of the last reading from a source node",
		ConstLabels: config.ConstLabels,
	}, []string{"src"})
	return s
}

// Registry returns the registry holding the metrics.
func (s *Sink) Registry() *prometheus.Registry {
	return s.registry
}

// GaugeFunc registers a gauge reading its value from fn at scrape time.
func (s *Sink) GaugeFunc(name, help string, fn func() float64) {
	s.factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   s.config.Namespace,
		Name:        name,
		Help:        help,
		ConstLabels: s.config.ConstLabels,
	}, fn)
}

// HandleEvent implements dispatch.Sink.
func (s *Sink) HandleEvent(ctx context.Context, e *dispatch.Event) {
	s.records.WithLabelValues(e.Record.Kind.String()).Inc()
	switch {
	case e.Record.Kind != frame.OK:
		s.errors.WithLabelValues(e.Record.Kind.String()).Inc()
	case e.Notice != dispatch.NoticeNone:
		s.notices.WithLabelValues(e.Notice.String()).Inc()
	case e.Err != nil:
		s.errors.WithLabelValues("payload").Inc()
	default:
		src := nodeLabel(e.Record.Src)
		s.readings.WithLabelValues(src, e.Record.Type.String()).Inc()
		s.lastSeen.WithLabelValues(src).Set(float64(e.Time.UnixNano()) / 1e9)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

func nodeLabel(n byte) string {
	return strconv.Itoa(int(n))
}
