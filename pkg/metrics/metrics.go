// Package metrics defines the Prometheus collectors for the EntangleGraph
// server. Collectors register through promauto; the expvar counters consumed
// by /debug/vars live in internal/infrastructure/metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by method, route and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entanglegraph_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures server response time per route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "entanglegraph_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	// ObservationsTotal counts graph observations fanned out to the stream,
	// labeled by observation kind.
	ObservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entanglegraph_observations_total",
			Help: "Total number of graph observations by kind",
		},
		[]string{"kind"},
	)

	// GraphEdges tracks the directed edge count per graph instance.
	GraphEdges = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "entanglegraph_graph_edges",
			Help: "Directed edges currently held by a graph instance",
		},
		[]string{"graph"},
	)

	// GraphNodes tracks sources holding at least one outgoing edge.
	GraphNodes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "entanglegraph_graph_nodes",
			Help: "Source nodes currently holding outgoing edges",
		},
		[]string{"graph"},
	)

	// PropagatedEdges counts edges processed by propagation calls.
	PropagatedEdges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entanglegraph_propagated_edges_total",
			Help: "Total number of edges processed by propagation",
		},
		[]string{"graph"},
	)

	// StreamClients tracks connected websocket stream clients.
	StreamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "entanglegraph_stream_clients",
			Help: "Currently connected observation stream clients",
		},
	)

	// StreamDroppedTotal counts observations dropped by the stream stage or
	// by slow websocket clients.
	StreamDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "entanglegraph_stream_dropped_total",
			Help: "Observations dropped due to full buffers",
		},
	)
)
