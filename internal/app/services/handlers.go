package services

import (
	"log/slog"

	"github.com/entanglegraph/entanglegraph/internal/core/entangle"
	inframetrics "github.com/entanglegraph/entanglegraph/internal/infrastructure/metrics"
	"github.com/entanglegraph/entanglegraph/pkg/metrics"
)

// Built-in stream handlers

// SlogHandler logs every observation. Routine events go out at debug so a
// busy graph does not swamp the log; propagation errors surface at warn.
type SlogHandler struct {
	Logger *slog.Logger
}

func (h SlogHandler) HandleObservation(e Event) error {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	o := e.Observation
	attrs := []any{
		"graph", e.Graph,
		"kind", string(o.Kind),
		"source", o.Source,
		"target", o.Target,
	}
	if o.Kind == entangle.ObservationPropagationError {
		logger.Warn("observation", append(attrs, "error", o.Err)...)
		return nil
	}
	logger.Debug("observation", attrs...)
	return nil
}

// MetricsHandler feeds observation counts into Prometheus and expvar.
type MetricsHandler struct{}

func (MetricsHandler) HandleObservation(e Event) error {
	kind := string(e.Observation.Kind)
	metrics.ObservationsTotal.WithLabelValues(kind).Inc()
	inframetrics.ObservationSeen(kind)
	if e.Observation.Kind == entangle.ObservationPropagated {
		metrics.PropagatedEdges.WithLabelValues(e.Graph).Inc()
	}
	return nil
}
