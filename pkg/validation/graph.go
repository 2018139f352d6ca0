package validation

import (
	"fmt"

	"github.com/entanglegraph/entanglegraph/internal/core/entangle"
)

// GraphValidationOptions controls optional validation checks.
type GraphValidationOptions struct {
	// CheckCycles enables detection of directed cycles. Cycles are legal at
	// runtime -- propagation's in-flight guard bounds them -- but callers
	// seeding a graph sometimes want to know they are building one.
	CheckCycles bool
	// AllowSelfLoops permits edges whose source and target coincide.
	AllowSelfLoops bool
}

// ValidateEntanglements performs structural validation on a directed edge
// list before it is applied to a graph: ids present, strengths in range, no
// duplicate directed pairs, and optionally no self-loops or cycles. The live
// graph maintains these invariants itself; this guards declarative inputs
// such as topology seeds and imported edge sets.
func ValidateEntanglements(edges []entangle.Entanglement, opts ...GraphValidationOptions) error {
	var cfg GraphValidationOptions
	if len(opts) > 0 {
		cfg = opts[0]
	}

	var errors ValidationErrors
	type pair struct{ s, t string }
	seen := make(map[pair]struct{}, len(edges))

	for i, e := range edges {
		if e.Source == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("edges[%d].source", i),
				Value:   e.Source,
				Message: "field is required",
			})
		}
		if e.Target == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("edges[%d].target", i),
				Value:   e.Target,
				Message: "field is required",
			})
		}
		if e.Strength < 0 || e.Strength > 1 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("edges[%d].strength", i),
				Value:   e.Strength,
				Message: "must be a strength within [0, 1]",
			})
		}
		if !cfg.AllowSelfLoops && e.Source != "" && e.Source == e.Target {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("edges[%d]", i),
				Value:   e.Source,
				Message: "self-loop not allowed",
			})
		}

		k := pair{e.Source, e.Target}
		if _, dup := seen[k]; dup {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("edges[%d]", i),
				Value:   e.Source + "->" + e.Target,
				Message: "duplicate directed edge",
			})
		}
		seen[k] = struct{}{}
	}

	if cfg.CheckCycles && HasCycle(edges) {
		errors = append(errors, ValidationError{
			Field:   "edges",
			Value:   len(edges),
			Message: "edge set contains a directed cycle",
		})
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

// HasCycle detects any directed cycle in an edge list using DFS with
// coloring.
func HasCycle(edges []entangle.Entanglement) bool {
	const (
		white = 0 // unvisited
		gray  = 1 // visiting
		black = 2 // visited
	)
	adj := make(map[string][]string, len(edges))
	color := make(map[string]int, len(edges))
	var order []string
	for _, e := range edges {
		if _, known := adj[e.Source]; !known {
			order = append(order, e.Source)
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	var dfs func(string) bool
	dfs = func(u string) bool {
		color[u] = gray
		for _, v := range adj[u] {
			if color[v] == gray {
				return true // back-edge
			}
			if color[v] == white {
				if dfs(v) {
					return true
				}
			}
		}
		color[u] = black
		return false
	}
	for _, id := range order {
		if color[id] == white {
			if dfs(id) {
				return true
			}
		}
	}
	return false
}
