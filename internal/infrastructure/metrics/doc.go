// Package metrics exposes expvar-published counters and gauges used by the
// EntangleGraph runtime (graph operations, observation stream, and journal).
// It intentionally avoids external dependencies and is consumed by the
// optional entanglegraph-server for /debug/vars; the Prometheus surface lives
// separately in pkg/metrics.
package metrics
