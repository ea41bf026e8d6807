// Package metrics exposes prometheus instrumentation for the editor server.
//
// A nil *Metrics is valid and records nothing, so components can take one
// unconditionally.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/project-sai/chatflow/internal/flow"
)

const namespace = "chatflow"

// Event statuses.
const (
	StatusOK       = "ok"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// Save results.
const (
	SaveAccepted = "accepted"
	SaveRejected = "rejected"
	SaveFailed   = "failed"
)

// Metrics holds the collectors for one server instance.
type Metrics struct {
	registry *prometheus.Registry

	events        *prometheus.CounterVec   // by event and status
	eventDuration *prometheus.HistogramVec // by event
	saves         *prometheus.CounterVec   // by result
	clients       prometheus.Gauge
	graphNodes    prometheus.Gauge
	graphEdges    prometheus.Gauge
}

// New creates the collectors on a fresh registry. The registry also carries
// the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "canvas",
			Name:      "events_total",
			Help:      "Canvas events handled, by event name and outcome.",
		}, []string{"event", "status"}),

		eventDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "canvas",
			Name:      "event_duration_seconds",
			Help:      "Time spent handling a canvas event.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"event"}),

		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "editor",
			Name:      "saves_total",
			Help:      "Save attempts, by result.",
		}, []string{"result"}),

		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "canvas",
			Name:      "connected_clients",
			Help:      "Canvas clients currently connected.",
		}),

		graphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "nodes",
			Help:      "Nodes in the current flow.",
		}),

		graphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "edges",
			Help:      "Edges in the current flow.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.events,
		m.eventDuration,
		m.saves,
		m.clients,
		m.graphNodes,
		m.graphEdges,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveEvent records one handled canvas event.
func (m *Metrics) ObserveEvent(event, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(event, status).Inc()
	m.eventDuration.WithLabelValues(event).Observe(d.Seconds())
}

// ObserveSave records the outcome of a save attempt.
func (m *Metrics) ObserveSave(result string) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(result).Inc()
}

// ClientConnected and ClientDisconnected track live canvas connections.
func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.clients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.clients.Dec()
}

// SetGraph updates the graph size gauges.
func (m *Metrics) SetGraph(g flow.Graph) {
	if m == nil {
		return
	}
	m.graphNodes.Set(float64(len(g.Nodes)))
	m.graphEdges.Set(float64(len(g.Edges)))
}
