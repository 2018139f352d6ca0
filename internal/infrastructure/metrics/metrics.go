package metrics

import (
	"expvar"
)

// Observation metrics (counters) using an expvar map keyed by observation kind.
var (
	observationsTotal = expvar.NewMap("entanglegraph_observations_total")
)

// Graph operation metrics.
var (
	entanglesTotal         = new(expvar.Int)
	disentanglesTotal      = new(expvar.Int)
	propagationFrames      = new(expvar.Int)
	propagationErrorsTotal = new(expvar.Int)
	activeGraphs           = new(expvar.Int)
)

// Stream / journal metrics.
var (
	streamDroppedTotal    = new(expvar.Int)
	journalEvictionsTotal = new(expvar.Int)
	journalExpiredTotal   = new(expvar.Int)
)

func init() {
	expvar.Publish("entanglegraph_entangles_total", entanglesTotal)
	expvar.Publish("entanglegraph_disentangles_total", disentanglesTotal)
	expvar.Publish("entanglegraph_propagation_frames_total", propagationFrames)
	expvar.Publish("entanglegraph_propagation_errors_total", propagationErrorsTotal)
	expvar.Publish("entanglegraph_active_graphs", activeGraphs)
	expvar.Publish("entanglegraph_stream_dropped_total", streamDroppedTotal)
	expvar.Publish("entanglegraph_journal_evictions_total", journalEvictionsTotal)
	expvar.Publish("entanglegraph_journal_expired_total", journalExpiredTotal)
}

// Observation helpers
func ObservationSeen(kind string) { observationsTotal.Add(kind, 1) }

// Graph operation helpers
func IncEntangles() { entanglesTotal.Add(1) }
func IncDisentangles() { disentanglesTotal.Add(1) }
func AddPropagationFrames(n int64) { propagationFrames.Add(n) }
func AddPropagationErrors(n int64) { propagationErrorsTotal.Add(n) }
func SetActiveGraphs(n int) { activeGraphs.Set(int64(n)) }

// Stream/journal helpers
func AddStreamDropped(n int64) { streamDroppedTotal.Add(n) }
func AddJournalEvictions(n int64) { journalEvictionsTotal.Add(n) }
func AddJournalExpired(n int64) { journalExpiredTotal.Add(n) }
