package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "channelgate"

// NewRegistry creates a Prometheus registry with Go runtime and process
// collectors installed.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler serving the registry's metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Metrics holds the gateway's instrument set.
type Metrics struct {
	ActiveConnections   prometheus.Gauge
	Subscriptions       *prometheus.CounterVec
	ClientEventsRelayed prometheus.Counter
	ClientEventsDropped prometheus.Counter
	HookDeliveries      *prometheus.CounterVec
	PresenceMembers     prometheus.Gauge
}

// New creates and registers the gateway metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "active_connections",
			Help:      "Number of active WebSocket connections.",
		}),
		Subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channels",
			Name:      "subscriptions_total",
			Help:      "Subscription attempts by channel kind and result.",
		}, []string{"kind", "result"}),
		ClientEventsRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channels",
			Name:      "client_events_relayed_total",
			Help:      "Client events relayed to channel members.",
		}),
		ClientEventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channels",
			Name:      "client_events_dropped_total",
			Help:      "Client events dropped by the relay policy.",
		}),
		HookDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hooks",
			Name:      "deliveries_total",
			Help:      "Webhook delivery attempts by event and outcome.",
		}, []string{"event", "outcome"}),
		PresenceMembers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "presence",
			Name:      "members",
			Help:      "Members currently tracked across presence channels.",
		}),
	}

	reg.MustRegister(
		m.ActiveConnections,
		m.Subscriptions,
		m.ClientEventsRelayed,
		m.ClientEventsDropped,
		m.HookDeliveries,
		m.PresenceMembers,
	)
	return m
}
