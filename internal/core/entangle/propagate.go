package entangle

import (
	"fmt"
	"time"
)

// Transform rewrites a payload for one edge during propagation. It receives
// the payload entering the frame, the edge's target id and the decay-adjusted
// strength, and returns the payload to deliver. Returning an error, or
// panicking, fails that edge only.
type Transform func(payload any, target string, effectiveStrength float64) (any, error)

// Propagate walks the outgoing edges of source depth-first, delivering
// payload along each edge with effective strength above zero. A non-nil
// transform rewrites the payload per edge; with auto-cascade enabled each
// target is recursed into before the next sibling edge. The return value
// counts edges this frame processed; cascaded frames report through
// observations and the propagation counter, which moves once per frame that
// passes the guard checks.
//
// A frame refuses to run, returning 0 with no mutation, when source is
// empty, the depth cap is reached, or source is already in flight on the
// current call tree. Re-entry is refused, not queued: this is what bounds
// propagation on cyclic topologies. The in-flight guard does not protect two
// independent Propagate calls from each other.
//
// PRINCIPLES:
// - Isolation: one failing transform never blocks sibling edges
// - Depth-first: cascade before sibling, matching enumeration order
func (g *Graph) Propagate(source string, payload any, transform Transform) int {
	return g.propagate(source, payload, transform, 0)
}

func (g *Graph) propagate(source string, payload any, transform Transform, depth int) int {
	if source == "" || depth >= g.config.MaxPropagationDepth {
		return 0
	}
	if _, active := g.inFlight[source]; active {
		return 0
	}
	g.inFlight[source] = struct{}{}
	defer delete(g.inFlight, source)

	g.stats.Propagations++

	// Snapshot: a transform is free to entangle or disentangle while the
	// frame walks, and removeEdge reshuffles the live slice.
	targets := append([]string(nil), g.adjacency[source]...)

	propagated := 0
	now := g.now()
	for _, target := range targets {
		key := pairKey{source, target}
		stored, exists := g.strengths[key]
		if !exists {
			// Removed by a transform earlier in this frame.
			continue
		}
		effective := g.effective(stored, g.timestamps[key], now)
		if effective <= 0 {
			continue
		}

		delivered, err := applyTransform(transform, payload, target, effective)
		if err != nil {
			g.stats.PropagationErrors++
			g.emit(Observation{
				Kind:   ObservationPropagationError,
				Source: source,
				Target: target,
				Err:    err,
				At:     now,
			})
			continue
		}

		g.emit(Observation{
			Kind:              ObservationPropagated,
			Source:            source,
			Target:            target,
			Payload:           delivered,
			EffectiveStrength: effective,
			At:                now,
		})
		propagated++

		if g.config.AutoPropagate {
			g.propagate(target, delivered, transform, depth+1)
		}
	}
	return propagated
}

// effective applies linear decay to a stored strength, floored at zero.
func (g *Graph) effective(stored float64, createdAt, now time.Time) float64 {
	if g.config.DecayRate <= 0 {
		return stored
	}
	decayed := stored - g.config.DecayRate*now.Sub(createdAt).Seconds()
	if decayed < 0 {
		return 0
	}
	return decayed
}

// applyTransform runs the caller-supplied transform for one edge, containing
// both returned errors and panics to that edge.
func applyTransform(transform Transform, payload any, target string, effective float64) (out any, err error) {
	if transform == nil {
		return payload, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTransformPanic, r)
		}
	}()
	return transform(payload, target, effective)
}
