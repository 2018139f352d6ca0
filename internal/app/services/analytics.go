package services

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/entanglegraph/entanglegraph/internal/core/entangle"
)

// StrengthSummary describes one strength distribution.
type StrengthSummary struct {
	Count     int        `json:"count"`
	Mean      float64    `json:"mean"`
	StdDev    float64    `json:"std_dev"`
	Min       float64    `json:"min"`
	Max       float64    `json:"max"`
	Quartiles [3]float64 `json:"quartiles"` // P25, P50, P75
}

// Report is a point-in-time analytical view of one graph. Stored summarizes
// strengths as written; Effective summarizes them after decay, so the gap
// between the two shows how stale the graph has become.
type Report struct {
	GeneratedAt       time.Time               `json:"generated_at"`
	EdgeCount         int                     `json:"edge_count"`
	NodeCount         int                     `json:"node_count"`
	Stats             entangle.Stats          `json:"stats"`
	Stored            StrengthSummary         `json:"stored"`
	Effective         StrengthSummary         `json:"effective"`
	FullyDecayed      int                     `json:"fully_decayed"`
	OutDegree         map[string]int          `json:"out_degree"`
	TopEdges          []entangle.Entanglement `json:"top_edges,omitempty"`
	ObservationTotals map[string]int64        `json:"observation_totals,omitempty"`
}

// AnalyticsService computes read-side reports over graphs
// PRINCIPLES:
// - SRP: Pure computation, no retention or transport concerns
// - Read-only: never mutates the graph it analyzes
type AnalyticsService struct{}

func NewAnalyticsService() *AnalyticsService {
	return &AnalyticsService{}
}

// Analyze builds a report over the graph's current edges. The caller holds
// whatever serialization the graph requires for the duration of the call.
func (s *AnalyticsService) Analyze(g *entangle.Graph, topN int) Report {
	edges := g.Entanglements()
	state := g.State()

	stored := make([]float64, 0, len(edges))
	effective := make([]float64, 0, len(edges))
	outDegree := make(map[string]int, state.NodeCount)
	fullyDecayed := 0

	for _, e := range edges {
		stored = append(stored, e.Strength)
		eff, _ := g.EffectiveStrength(e.Source, e.Target)
		effective = append(effective, eff)
		if eff == 0 {
			fullyDecayed++
		}
		outDegree[e.Source]++
	}

	return Report{
		GeneratedAt:  time.Now(),
		EdgeCount:    state.EdgeCount,
		NodeCount:    state.NodeCount,
		Stats:        state.Stats,
		Stored:       summarize(stored),
		Effective:    summarize(effective),
		FullyDecayed: fullyDecayed,
		OutDegree:    outDegree,
		TopEdges:     topEdges(edges, topN),
	}
}

// summarize computes distribution statistics over xs. An empty input yields
// the zero summary rather than NaN, which would not survive JSON encoding.
func summarize(xs []float64) StrengthSummary {
	if len(xs) == 0 {
		return StrengthSummary{}
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	return StrengthSummary{
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		StdDev: stdDev(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Quartiles: [3]float64{
			stat.Quantile(0.25, stat.Empirical, sorted, nil),
			stat.Quantile(0.5, stat.Empirical, sorted, nil),
			stat.Quantile(0.75, stat.Empirical, sorted, nil),
		},
	}
}

// stdDev guards the single-sample case, where the unbiased estimator is
// undefined and gonum returns NaN.
func stdDev(sorted []float64) float64 {
	if len(sorted) < 2 {
		return 0
	}
	return stat.StdDev(sorted, nil)
}

// topEdges returns the n strongest edges by stored strength, strongest
// first. Ties keep enumeration order.
func topEdges(edges []entangle.Entanglement, n int) []entangle.Entanglement {
	if n <= 0 {
		return nil
	}
	sorted := append([]entangle.Entanglement(nil), edges...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Strength > sorted[j].Strength
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
