// Package metrics exposes the relay's Prometheus counters, the same
// instrumentation pattern the teacher uses for its DebugMetrics counters in
// peer.go (prometheus.Counter/Gauge registered against the default
// registry, scraped via promhttp).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConnectionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filerelay_connections_opened_total",
		Help: "Total WebSocket connections accepted.",
	})

	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "filerelay_active_connections",
		Help: "Currently open WebSocket connections.",
	})

	ActivePairings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "filerelay_active_pairings",
		Help: "Currently active sender/recipient pairings.",
	})

	FramesForwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filerelay_frames_forwarded_total",
		Help: "Frames relayed to a counterparty, by kind.",
	}, []string{"kind"})

	BytesForwarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filerelay_bytes_forwarded_total",
		Help: "Binary payload bytes relayed to counterparties.",
	})

	RoutingErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filerelay_routing_errors_total",
		Help: "Local routing/parse errors sent back to an originator, by code.",
	}, []string{"code"})
)

// Handler returns the promhttp handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
