// Package usecases orchestrates graph operations across the registry,
// stream, journal and analytics collaborators.
package usecases

import (
	"time"

	"github.com/entanglegraph/entanglegraph/internal/adapters/journal"
	"github.com/entanglegraph/entanglegraph/internal/adapters/registry"
	"github.com/entanglegraph/entanglegraph/internal/app/dto"
	"github.com/entanglegraph/entanglegraph/internal/app/services"
	"github.com/entanglegraph/entanglegraph/internal/core/entangle"
	inframetrics "github.com/entanglegraph/entanglegraph/internal/infrastructure/metrics"
	"github.com/entanglegraph/entanglegraph/pkg/metrics"
)

// GraphService is the application face of the graph runtime: it validates
// requests, serializes access through the per-instance mutex, runs the core
// operation and keeps counters and gauges current.
// PRINCIPLES:
// - SRP: Orchestration only; semantics live in the core, retention in the journal
// - DIP: Handlers depend on this service, never on core internals
type GraphService struct {
	registry  *registry.Registry
	stream    *services.StreamService
	journal   *journal.Journal
	analytics *services.AnalyticsService
	defaults  entangle.Config
}

// NewGraphService wires the service. defaults seeds the config of graphs
// created without overrides.
func NewGraphService(
	reg *registry.Registry,
	stream *services.StreamService,
	jrnl *journal.Journal,
	analytics *services.AnalyticsService,
	defaults entangle.Config,
) *GraphService {
	return &GraphService{
		registry:  reg,
		stream:    stream,
		journal:   jrnl,
		analytics: analytics,
		defaults:  defaults,
	}
}

// CreateGraph registers a new instance and subscribes it to the stream.
func (s *GraphService) CreateGraph(req *dto.CreateGraphRequest) (*dto.GraphResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inst, err := s.registry.Create(req.Name, req.GraphConfig(s.defaults))
	if err != nil {
		return nil, err
	}

	inst.With(func(g *entangle.Graph) {
		g.AddObserver(s.stream.Observer(inst.ID))
	})
	inframetrics.SetActiveGraphs(s.registry.Len())

	return s.describe(inst), nil
}

// GetGraph returns the description of one instance.
func (s *GraphService) GetGraph(id string) (*dto.GraphResponse, error) {
	inst, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	return s.describe(inst), nil
}

// ListGraphs returns all instances in creation order.
func (s *GraphService) ListGraphs() []*dto.GraphResponse {
	instances := s.registry.List()
	out := make([]*dto.GraphResponse, 0, len(instances))
	for _, inst := range instances {
		out = append(out, s.describe(inst))
	}
	return out
}

// DeleteGraph removes an instance and retires its gauges. Journal entries
// for the graph stay until they age out.
func (s *GraphService) DeleteGraph(id string) error {
	if err := s.registry.Delete(id); err != nil {
		return err
	}
	inframetrics.SetActiveGraphs(s.registry.Len())
	metrics.GraphEdges.DeleteLabelValues(id)
	metrics.GraphNodes.DeleteLabelValues(id)
	metrics.PropagatedEdges.DeleteLabelValues(id)
	return nil
}

// Entangle creates or updates an entanglement. A request that left strength
// unset picks up the instance's default.
func (s *GraphService) Entangle(graphID string, req *dto.EntangleRequest) (*dto.EntangleResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	inst, err := s.registry.Get(graphID)
	if err != nil {
		return nil, err
	}

	var (
		strength float64
		applied  bool
		state    entangle.State
	)
	inst.With(func(g *entangle.Graph) {
		strength = req.StrengthOr(g.Config().DefaultStrength)
		applied = g.Entangle(req.Source, req.Target, strength, *req.Bidirectional)
		state = g.State()
	})

	resp := &dto.EntangleResponse{
		Status:        dto.StatusOK,
		Source:        req.Source,
		Target:        req.Target,
		Strength:      strength,
		Bidirectional: *req.Bidirectional,
		Timestamp:     time.Now(),
	}
	if !applied {
		// Unreachable after Validate; kept so a core rejection can never
		// masquerade as success.
		resp.Status = dto.StatusRejected
		return resp, nil
	}

	inframetrics.IncEntangles()
	s.updateGauges(graphID, state)
	return resp, nil
}

// Disentangle removes an entanglement. Breaking a link that does not exist
// is reported as rejected, not as an error.
func (s *GraphService) Disentangle(graphID string, req *dto.DisentangleRequest) (*dto.DisentangleResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	inst, err := s.registry.Get(graphID)
	if err != nil {
		return nil, err
	}

	var (
		applied bool
		state   entangle.State
	)
	inst.With(func(g *entangle.Graph) {
		applied = g.Disentangle(req.Source, req.Target, *req.Bidirectional)
		state = g.State()
	})

	resp := &dto.DisentangleResponse{
		Status:        dto.StatusOK,
		Source:        req.Source,
		Target:        req.Target,
		Bidirectional: *req.Bidirectional,
		Timestamp:     time.Now(),
	}
	if !applied {
		resp.Status = dto.StatusRejected
		return resp, nil
	}

	inframetrics.IncDisentangles()
	s.updateGauges(graphID, state)
	return resp, nil
}

// Propagate pushes a payload from source through the graph. When the request
// carries an amplify factor the built-in scaling transform is applied per
// edge; otherwise payloads pass through unchanged.
func (s *GraphService) Propagate(graphID string, req *dto.PropagateRequest) (*dto.PropagateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	inst, err := s.registry.Get(graphID)
	if err != nil {
		return nil, err
	}

	var transform entangle.Transform
	if req.Amplify != nil {
		transform = AmplifyTransform(*req.Amplify)
	}

	var (
		count         int
		before, after entangle.Stats
	)
	inst.With(func(g *entangle.Graph) {
		before = g.Stats()
		count = g.Propagate(req.Source, req.Payload, transform)
		after = g.Stats()
	})

	inframetrics.AddPropagationFrames(after.Propagations - before.Propagations)
	inframetrics.AddPropagationErrors(after.PropagationErrors - before.PropagationErrors)

	return &dto.PropagateResponse{
		Status:     dto.StatusOK,
		Source:     req.Source,
		Propagated: count,
		Stats:      after,
		Timestamp:  time.Now(),
	}, nil
}

// Entanglements lists every directed edge of a graph with its effective
// strength computed under the same lock as the enumeration.
func (s *GraphService) Entanglements(graphID string) ([]dto.EntanglementView, error) {
	inst, err := s.registry.Get(graphID)
	if err != nil {
		return nil, err
	}

	views := make([]dto.EntanglementView, 0)
	inst.With(func(g *entangle.Graph) {
		for _, e := range g.Entanglements() {
			eff, _ := g.EffectiveStrength(e.Source, e.Target)
			views = append(views, dto.EntanglementView{
				Source:            e.Source,
				Target:            e.Target,
				Strength:          e.Strength,
				EffectiveStrength: eff,
				CreatedAt:         e.CreatedAt,
			})
		}
	})
	return views, nil
}

// Analytics builds the analytical report for one graph, folding in the
// journal's per-kind totals.
func (s *GraphService) Analytics(graphID string, topN int) (*services.Report, error) {
	inst, err := s.registry.Get(graphID)
	if err != nil {
		return nil, err
	}

	var report services.Report
	inst.With(func(g *entangle.Graph) {
		report = s.analytics.Analyze(g, topN)
	})
	report.ObservationTotals = s.journal.KindTotals(graphID)
	return &report, nil
}

// Journal lists recorded observations for one graph, newest first.
func (s *GraphService) Journal(graphID string, q *dto.JournalQuery) ([]journal.Entry, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.registry.Get(graphID); err != nil {
		return nil, err
	}
	return s.journal.List(journal.Filter{
		Graph: graphID,
		Kind:  q.Kind,
		Node:  q.Node,
		Limit: q.Limit,
	}), nil
}

// JournalAll lists recorded observations across all graphs, newest first.
// Entries survive their graph's deletion, so this can surface graphs the
// registry no longer knows.
func (s *GraphService) JournalAll(q *dto.JournalQuery) ([]journal.Entry, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return s.journal.List(journal.Filter{
		Kind:  q.Kind,
		Node:  q.Node,
		Limit: q.Limit,
	}), nil
}

// ExportJournal serializes the journal, optionally narrowed to one graph.
// The second return is the codec name, for transport metadata.
func (s *GraphService) ExportJournal(graphID string) ([]byte, string, error) {
	if graphID != "" {
		if _, err := s.registry.Get(graphID); err != nil {
			return nil, "", err
		}
	}
	data, err := s.journal.Export(journal.Filter{Graph: graphID})
	if err != nil {
		return nil, "", err
	}
	return data, s.journal.CodecName(), nil
}

// ImportJournal loads a previously exported snapshot into the journal.
func (s *GraphService) ImportJournal(data []byte) (int, error) {
	return s.journal.Import(data)
}

// describe snapshots an instance into its response shape.
func (s *GraphService) describe(inst *registry.Instance) *dto.GraphResponse {
	resp := &dto.GraphResponse{
		ID:        inst.ID,
		Name:      inst.Name,
		CreatedAt: inst.CreatedAt,
	}
	inst.With(func(g *entangle.Graph) {
		resp.Config = g.Config()
		resp.State = g.State()
	})
	return resp
}

func (s *GraphService) updateGauges(graphID string, state entangle.State) {
	metrics.GraphEdges.WithLabelValues(graphID).Set(float64(state.EdgeCount))
	metrics.GraphNodes.WithLabelValues(graphID).Set(float64(state.NodeCount))
}
