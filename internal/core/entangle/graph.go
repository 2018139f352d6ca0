// Package entangle provides the core entanglement graph domain entity
// following Clean Architecture principles with zero external dependencies.
package entangle

import (
	"time"
)

// pairKey is the composite key for per-direction edge records. A struct key
// avoids the delimiter-collision problems of concatenated "source:target"
// strings when node ids may contain the delimiter.
type pairKey struct {
	source string
	target string
}

// Entanglement is one directed edge as reported by Entanglements.
type Entanglement struct {
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Strength  float64   `json:"strength"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats holds the running counters owned by one Graph instance. Counters
// reset only at construction and are exposed as snapshot copies.
type Stats struct {
	EntanglementsCreated int64 `json:"entanglements_created"`
	EntanglementsBroken  int64 `json:"entanglements_broken"`
	Propagations         int64 `json:"propagations"`
	PropagationErrors    int64 `json:"propagation_errors"`
}

// State is a point-in-time snapshot of graph shape and counters.
// NodeCount counts sources holding at least one outgoing edge; nodes that
// only ever appear as targets are invisible to it.
type State struct {
	EdgeCount int   `json:"edge_count"`
	NodeCount int   `json:"node_count"`
	Stats     Stats `json:"stats"`
}

// Graph maintains a directed, optionally bidirectional adjacency structure
// between opaque node identifiers, with per-edge strength and creation time,
// and propagates payloads along edges with optional transformation and
// time-based strength decay.
// PRINCIPLES:
// - KISS: Plain maps and slices, no abstraction layers inside the core
// - SRP: Only responsible for edge structure and propagation, not hosting
//
// A Graph is NOT safe for concurrent use. It runs inside a single logical
// thread of control: no operation blocks or yields, and the in-flight set
// guards one call tree against revisiting a node, never two independent
// callers against each other. Hosts that accept concurrent requests must
// serialize access per instance themselves.
type Graph struct {
	config Config

	// adjacency and sources keep enumeration in insertion order; strengths
	// and timestamps are kept in lockstep with adjacency membership on every
	// create and delete.
	adjacency  map[string][]string
	sources    []string
	strengths  map[pairKey]float64
	timestamps map[pairKey]time.Time

	// inFlight is the propagation cycle guard. An id is present only while
	// that node's own propagation frame is executing.
	inFlight map[string]struct{}

	stats     Stats
	observers []Observer

	now func() time.Time
}

// New constructs a Graph with the given configuration.
func New(cfg Config) (*Graph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Graph{
		config:     cfg,
		adjacency:  make(map[string][]string),
		strengths:  make(map[pairKey]float64),
		timestamps: make(map[pairKey]time.Time),
		inFlight:   make(map[string]struct{}),
		now:        time.Now,
	}, nil
}

// NewDefault constructs a Graph with DefaultConfig.
func NewDefault() *Graph {
	g, err := New(DefaultConfig())
	if err != nil {
		// DefaultConfig always validates.
		panic(err)
	}
	return g
}

// Config returns the configuration fixed at construction.
func (g *Graph) Config() Config {
	return g.config
}

// Entangle creates or updates the directed edge source->target. It returns
// false without mutation when either id is empty or strength falls outside
// [0, 1]. An existing forward edge has its strength updated in place; the
// edge keeps its original creation time, so repeated entangling does not
// reset the decay clock. Otherwise the forward edge is created and, when
// bidirectional, the reverse edge as well, each with its own timestamp. The
// created counter moves only on first creation of the forward edge.
func (g *Graph) Entangle(source, target string, strength float64, bidirectional bool) bool {
	if source == "" || target == "" {
		return false
	}
	if strength < 0 || strength > 1 {
		return false
	}

	forward := pairKey{source, target}
	if _, exists := g.strengths[forward]; exists {
		g.strengths[forward] = strength
	} else {
		g.createEdge(source, target, strength)
		g.stats.EntanglementsCreated++
		if bidirectional {
			g.createEdge(target, source, strength)
		}
	}

	g.emit(Observation{
		Kind:          ObservationEntangled,
		Source:        source,
		Target:        target,
		Strength:      strength,
		Bidirectional: bidirectional,
		At:            g.now(),
	})
	return true
}

// Disentangle removes the directed edge source->target and, when
// bidirectional, the reverse edge if present. It returns false when no
// forward edge exists. The broken counter moves once per successful call,
// not per removed direction.
func (g *Graph) Disentangle(source, target string, bidirectional bool) bool {
	if _, exists := g.strengths[pairKey{source, target}]; !exists {
		return false
	}

	g.removeEdge(source, target)
	if bidirectional {
		g.removeEdge(target, source)
	}

	g.stats.EntanglementsBroken++
	g.emit(Observation{
		Kind:          ObservationDisentangled,
		Source:        source,
		Target:        target,
		Bidirectional: bidirectional,
		At:            g.now(),
	})
	return true
}

// IsEntangled reports whether the directed edge source->target exists.
func (g *Graph) IsEntangled(source, target string) bool {
	_, ok := g.strengths[pairKey{source, target}]
	return ok
}

// Strength returns the stored strength for source->target.
func (g *Graph) Strength(source, target string) (float64, bool) {
	s, ok := g.strengths[pairKey{source, target}]
	return s, ok
}

// EffectiveStrength returns the decay-adjusted strength for source->target,
// computed with the same formula propagation uses. Stored strength is never
// mutated by decay.
func (g *Graph) EffectiveStrength(source, target string) (float64, bool) {
	key := pairKey{source, target}
	stored, ok := g.strengths[key]
	if !ok {
		return 0, false
	}
	return g.effective(stored, g.timestamps[key], g.now()), true
}

// Entanglements enumerates every directed edge in adjacency iteration order:
// insertion order of sources, then insertion order of each source's targets.
func (g *Graph) Entanglements() []Entanglement {
	out := make([]Entanglement, 0, len(g.strengths))
	for _, source := range g.sources {
		for _, target := range g.adjacency[source] {
			key := pairKey{source, target}
			out = append(out, Entanglement{
				Source:    source,
				Target:    target,
				Strength:  g.strengths[key],
				CreatedAt: g.timestamps[key],
			})
		}
	}
	return out
}

// State returns a snapshot of edge count, node count and counters.
func (g *Graph) State() State {
	return State{
		EdgeCount: len(g.strengths),
		NodeCount: len(g.adjacency),
		Stats:     g.stats,
	}
}

// Stats returns a copy of the running counters.
func (g *Graph) Stats() Stats {
	return g.stats
}

// createEdge (re)writes the records for one direction. Adjacency membership
// stays unique; strength and timestamp are written unconditionally.
func (g *Graph) createEdge(source, target string, strength float64) {
	key := pairKey{source, target}
	if _, exists := g.strengths[key]; !exists {
		if _, known := g.adjacency[source]; !known {
			g.sources = append(g.sources, source)
		}
		g.adjacency[source] = append(g.adjacency[source], target)
	}
	g.strengths[key] = strength
	g.timestamps[key] = g.now()
}

// removeEdge deletes the records for one direction, keeping adjacency,
// strength and timestamp in lockstep. A source emptied of targets drops out
// of the adjacency index entirely.
func (g *Graph) removeEdge(source, target string) bool {
	key := pairKey{source, target}
	if _, exists := g.strengths[key]; !exists {
		return false
	}
	delete(g.strengths, key)
	delete(g.timestamps, key)

	targets := g.adjacency[source]
	for i, t := range targets {
		if t == target {
			g.adjacency[source] = append(targets[:i], targets[i+1:]...)
			break
		}
	}
	if len(g.adjacency[source]) == 0 {
		delete(g.adjacency, source)
		for i, s := range g.sources {
			if s == source {
				g.sources = append(g.sources[:i], g.sources[i+1:]...)
				break
			}
		}
	}
	return true
}
