// Package metrics exposes the Prometheus instruments used by the relay and
// its WebSocket transport.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gorelay"

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves the metrics in reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// RelayMetrics holds the counters for connection bookkeeping and fan-out.
type RelayMetrics struct {
	ActiveConnections    prometheus.Gauge
	ClientMessages       prometheus.Counter
	Triggers             prometheus.Counter
	Deliveries           prometheus.Counter
	DeliveryFailures     prometheus.Counter
	DuplicateConnections prometheus.Counter
}

// NewRelayMetrics creates and registers relay metrics on the given registry.
func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	m := &RelayMetrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of connections currently registered with the relay.",
		}),
		ClientMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_messages_total",
			Help:      "Total number of messages received from connected clients.",
		}),
		Triggers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triggers_total",
			Help:      "Total number of externally triggered broadcasts.",
		}),
		Deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Total number of attempted per-connection deliveries.",
		}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_failures_total",
			Help:      "Total number of per-connection deliveries that failed.",
		}),
		DuplicateConnections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_connections_total",
			Help:      "Total number of rejected duplicate connection registrations.",
		}),
	}

	reg.MustRegister(
		m.ActiveConnections,
		m.ClientMessages,
		m.Triggers,
		m.Deliveries,
		m.DeliveryFailures,
		m.DuplicateConnections,
	)
	return m
}

// TransportMetrics holds counters for the WebSocket transport.
type TransportMetrics struct {
	RateLimited     prometheus.Counter
	InvalidMessages prometheus.Counter
}

// NewTransportMetrics creates and registers transport metrics on the given registry.
func NewTransportMetrics(reg prometheus.Registerer) *TransportMetrics {
	m := &TransportMetrics{
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "rate_limited_messages_total",
			Help:      "Total number of inbound messages discarded by the rate limiter.",
		}),
		InvalidMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "invalid_messages_total",
			Help:      "Total number of inbound frames that could not be decoded.",
		}),
	}

	reg.MustRegister(m.RateLimited, m.InvalidMessages)
	return m
}
