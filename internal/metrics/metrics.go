// Package metrics exposes hub activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Join outcomes.
const (
	JoinAccepted = "accepted"
	JoinRejected = "rejected"
)

// Message outcomes.
const (
	MessagePersisted         = "persisted"
	MessageCodecError        = "codec_error"
	MessagePersistenceFailed = "persistence_failed"
)

// Recorder is what the hub reports to. Nop discards everything.
type Recorder interface {
	ConnectionOpened()
	ConnectionClosed()
	RecordJoin(result string)
	RecordMessage(result string)
	RecordSanitized()
	RecordSlowConsumer()
	RecordPersistLatency(d time.Duration)
}

// Collector implements Recorder on top of Prometheus.
type Collector struct {
	connections    prometheus.Gauge
	joins          *prometheus.CounterVec
	messages       *prometheus.CounterVec
	sanitized      prometheus.Counter
	slowConsumers  prometheus.Counter
	persistLatency prometheus.Histogram
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roomhub_connections_active",
			Help: "Currently open websocket sessions.",
		}),
		joins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomhub_joins_total",
			Help: "Room join attempts by outcome.",
		}, []string{"result"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomhub_messages_total",
			Help: "Inbound chat messages by outcome.",
		}, []string{"result"}),
		sanitized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roomhub_messages_sanitized_total",
			Help: "Messages altered by the sanitizer.",
		}),
		slowConsumers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roomhub_slow_consumers_total",
			Help: "Sessions terminated because their outbound buffer was full.",
		}),
		persistLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "roomhub_persist_latency_seconds",
			Help:    "Time spent persisting a message.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.connections,
		c.joins,
		c.messages,
		c.sanitized,
		c.slowConsumers,
		c.persistLatency,
	)

	return c
}

func (c *Collector) ConnectionOpened() { c.connections.Inc() }
func (c *Collector) ConnectionClosed() { c.connections.Dec() }

// RecordJoin counts a join attempt.
func (c *Collector) RecordJoin(result string) {
	c.joins.WithLabelValues(result).Inc()
}

// RecordMessage counts an inbound message outcome.
func (c *Collector) RecordMessage(result string) {
	c.messages.WithLabelValues(result).Inc()
}

func (c *Collector) RecordSanitized()    { c.sanitized.Inc() }
func (c *Collector) RecordSlowConsumer() { c.slowConsumers.Inc() }

// RecordPersistLatency observes how long a store append took.
func (c *Collector) RecordPersistLatency(d time.Duration) {
	c.persistLatency.Observe(d.Seconds())
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop is a Recorder that does nothing.
type Nop struct{}

func (Nop) ConnectionOpened()                  {}
func (Nop) ConnectionClosed()                  {}
func (Nop) RecordJoin(string)                  {}
func (Nop) RecordMessage(string)               {}
func (Nop) RecordSanitized()                   {}
func (Nop) RecordSlowConsumer()                {}
func (Nop) RecordPersistLatency(time.Duration) {}
