package entanglegraph

import (
	"log/slog"
	"sync"
	"time"

	"github.com/entanglegraph/entanglegraph/internal/adapters/journal"
	"github.com/entanglegraph/entanglegraph/internal/app/services"
	"github.com/entanglegraph/entanglegraph/internal/core/entangle"
)

// Re-export the core types for convenience
type (
	Graph           = entangle.Graph
	Config          = entangle.Config
	Entanglement    = entangle.Entanglement
	Observation     = entangle.Observation
	ObservationKind = entangle.ObservationKind
	Observer        = entangle.Observer
	Transform       = entangle.Transform
	State           = entangle.State
	Stats           = entangle.Stats

	Event              = services.Event
	ObservationHandler = services.ObservationHandler
	HandlerFunc        = services.HandlerFunc
	Report             = services.Report

	JournalEntry  = journal.Entry
	JournalFilter = journal.Filter
)

const (
	ObservationEntangled        = entangle.ObservationEntangled
	ObservationDisentangled     = entangle.ObservationDisentangled
	ObservationPropagated       = entangle.ObservationPropagated
	ObservationPropagationError = entangle.ObservationPropagationError
)

// DefaultConfig returns the standard graph configuration.
func DefaultConfig() Config {
	return entangle.DefaultConfig()
}

// New constructs a bare graph without the runtime pipeline around it. The
// returned graph is not safe for concurrent use.
func New(cfg Config) (*Graph, error) {
	return entangle.New(cfg)
}

// NewDefault constructs a bare graph with DefaultConfig.
func NewDefault() *Graph {
	return entangle.NewDefault()
}

// RuntimeConfig tunes the embedded pipeline. The zero value is usable: it
// yields a default graph, a 1024-entry journal that keeps entries until
// eviction, and no observation logging.
type RuntimeConfig struct {
	// Name tags this runtime's observations in the journal and stream.
	Name string

	// Graph configures the underlying graph; the zero value means
	// DefaultConfig.
	Graph Config

	// JournalCapacity bounds retained observations; values below one fall
	// back to 1024.
	JournalCapacity int

	// JournalTTL expires journal entries by age; zero keeps them until
	// capacity evicts them.
	JournalTTL time.Duration

	// StreamBuffer sizes the observation fan-out buffer; values below one
	// fall back to 1000.
	StreamBuffer int

	// Logger, when set, logs every observation through the stream.
	Logger *slog.Logger
}

// Runtime bundles one graph with the observation stream, the journal and
// analytics. All graph access is serialized through an internal mutex, so a
// Runtime is safe for concurrent use even though the bare graph is not.
type Runtime struct {
	name      string
	mu        sync.Mutex
	graph     *entangle.Graph
	stream    *services.StreamService
	journal   *journal.Journal
	analytics *services.AnalyticsService
	closeOnce sync.Once
}

// NewRuntime wires the pipeline: graph observations flow through the stream
// into the journal, optional logging, prometheus counters and any handlers
// added later.
func NewRuntime(cfg RuntimeConfig) (*Runtime, error) {
	if cfg.Name == "" {
		cfg.Name = "runtime"
	}
	if cfg.Graph == (Config{}) {
		cfg.Graph = DefaultConfig()
	}
	capacity := cfg.JournalCapacity
	if capacity <= 0 {
		capacity = 1024
	}

	g, err := entangle.New(cfg.Graph)
	if err != nil {
		return nil, err
	}
	jrnl, err := journal.New(journal.Config{
		Capacity: capacity,
		TTL:      cfg.JournalTTL,
	})
	if err != nil {
		return nil, err
	}

	stream := services.NewStreamService(cfg.StreamBuffer)
	if cfg.Logger != nil {
		stream.AddHandler(services.SlogHandler{Logger: cfg.Logger})
	}
	stream.AddHandler(services.MetricsHandler{})
	stream.AddHandler(services.HandlerFunc(func(e services.Event) error {
		jrnl.Record(e.Graph, e.Observation)
		return nil
	}))
	stream.Start()

	rt := &Runtime{
		name:      cfg.Name,
		graph:     g,
		stream:    stream,
		journal:   jrnl,
		analytics: services.NewAnalyticsService(),
	}
	g.AddObserver(stream.Observer(cfg.Name))
	return rt, nil
}

// Close drains pending observations into the journal and stops the pipeline.
// The graph and the journal stay readable; further operations succeed but
// are no longer observed.
func (rt *Runtime) Close() {
	rt.closeOnce.Do(func() {
		rt.stream.Stop()
		rt.journal.Close()
	})
}

// With runs fn under the runtime lock, for multi-step operations that need
// a consistent view of the graph.
func (rt *Runtime) With(fn func(g *Graph)) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	fn(rt.graph)
}

// AddHandler subscribes a handler to the observation stream.
func (rt *Runtime) AddHandler(h ObservationHandler) {
	rt.stream.AddHandler(h)
}

// Entangle links source to target bidirectionally with the configured
// default strength.
func (rt *Runtime) Entangle(source, target string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.graph.Entangle(source, target, rt.graph.Config().DefaultStrength, true)
}

// EntangleWith links source to target with explicit strength and direction.
func (rt *Runtime) EntangleWith(source, target string, strength float64, bidirectional bool) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.graph.Entangle(source, target, strength, bidirectional)
}

// Disentangle breaks the link in both directions.
func (rt *Runtime) Disentangle(source, target string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.graph.Disentangle(source, target, true)
}

// Propagate pushes payload from source through its entanglements unchanged.
// It returns the number of edges the entry frame processed.
func (rt *Runtime) Propagate(source string, payload any) int {
	return rt.PropagateWith(source, payload, nil)
}

// PropagateWith pushes payload from source, applying transform per edge.
func (rt *Runtime) PropagateWith(source string, payload any, transform Transform) int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.graph.Propagate(source, payload, transform)
}

// IsEntangled reports whether the directed edge source->target exists.
func (rt *Runtime) IsEntangled(source, target string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.graph.IsEntangled(source, target)
}

// Strength returns the stored strength of source->target.
func (rt *Runtime) Strength(source, target string) (float64, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.graph.Strength(source, target)
}

// EffectiveStrength returns the decay-adjusted strength of source->target.
func (rt *Runtime) EffectiveStrength(source, target string) (float64, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.graph.EffectiveStrength(source, target)
}

// Entanglements lists every directed edge in creation order.
func (rt *Runtime) Entanglements() []Entanglement {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.graph.Entanglements()
}

// State snapshots the graph shape and counters.
func (rt *Runtime) State() State {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.graph.State()
}

// Stats snapshots the operation counters.
func (rt *Runtime) Stats() Stats {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.graph.Stats()
}

// Config returns the graph configuration fixed at construction.
func (rt *Runtime) Config() Config {
	return rt.graph.Config()
}

// Analytics builds the analytical report with the journal's per-kind totals
// folded in. topN bounds the strongest-edges listing; zero omits it.
func (rt *Runtime) Analytics(topN int) Report {
	rt.mu.Lock()
	report := rt.analytics.Analyze(rt.graph, topN)
	rt.mu.Unlock()
	report.ObservationTotals = rt.journal.KindTotals(rt.name)
	return report
}

// Journal lists recorded observations matching f, newest first.
func (rt *Runtime) Journal(f JournalFilter) []JournalEntry {
	return rt.journal.List(f)
}

// ExportJournal serializes the full journal for transfer or archival.
func (rt *Runtime) ExportJournal() ([]byte, error) {
	return rt.journal.Export(JournalFilter{})
}

// ImportJournal loads a previously exported snapshot, returning the number
// of entries loaded.
func (rt *Runtime) ImportJournal(data []byte) (int, error) {
	return rt.journal.Import(data)
}

// JournalCodec reports the journal's export codec name.
func (rt *Runtime) JournalCodec() string {
	return rt.journal.CodecName()
}

// Dropped reports how many observations the stream discarded under pressure.
func (rt *Runtime) Dropped() int64 {
	return rt.stream.Dropped()
}
