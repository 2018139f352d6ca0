package prebuilt

import (
	"fmt"

	"github.com/entanglegraph/entanglegraph/pkg/entanglegraph"
	"github.com/entanglegraph/entanglegraph/pkg/validation"
)

// Chain entangles consecutive ids into a line: a-b-c. It returns the number
// of entangle calls the target accepted.
func Chain(g Entangler, ids []string, opts ...Option) (int, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return 0, err
	}
	if err := checkNodes(ids, 2); err != nil {
		return 0, err
	}
	applied := 0
	for i := 0; i < len(ids)-1; i++ {
		if g.Entangle(ids[i], ids[i+1], o.strength, o.bidirectional) {
			applied++
		}
	}
	return applied, nil
}

// Ring wires a chain and closes it back onto the first id. Two nodes are not
// enough; that ring collapses into a chain.
func Ring(g Entangler, ids []string, opts ...Option) (int, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return 0, err
	}
	if err := checkNodes(ids, 3); err != nil {
		return 0, err
	}
	applied := 0
	for i := range ids {
		if g.Entangle(ids[i], ids[(i+1)%len(ids)], o.strength, o.bidirectional) {
			applied++
		}
	}
	return applied, nil
}

// Star entangles the hub with every leaf.
func Star(g Entangler, hub string, leaves []string, opts ...Option) (int, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return 0, err
	}
	if hub == "" {
		return 0, fmt.Errorf("%w: hub", ErrEmptyNodeID)
	}
	if err := checkNodes(leaves, 1); err != nil {
		return 0, err
	}
	for _, leaf := range leaves {
		if leaf == hub {
			return 0, fmt.Errorf("%w: hub %s is also a leaf", ErrDuplicateNode, hub)
		}
	}
	applied := 0
	for _, leaf := range leaves {
		if g.Entangle(hub, leaf, o.strength, o.bidirectional) {
			applied++
		}
	}
	return applied, nil
}

// Mesh entangles every distinct pair of ids once. With Unidirectional the
// earlier id points at the later one.
func Mesh(g Entangler, ids []string, opts ...Option) (int, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return 0, err
	}
	if err := checkNodes(ids, 2); err != nil {
		return 0, err
	}
	applied := 0
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if g.Entangle(ids[i], ids[j], o.strength, o.bidirectional) {
				applied++
			}
		}
	}
	return applied, nil
}

// NewChain wires a fresh graph with the default configuration as a chain.
func NewChain(ids ...string) (*entanglegraph.Graph, error) {
	return fresh(func(g Entangler) error {
		_, err := Chain(g, ids)
		return err
	})
}

// NewRing wires a fresh graph with the default configuration as a ring.
func NewRing(ids ...string) (*entanglegraph.Graph, error) {
	return fresh(func(g Entangler) error {
		_, err := Ring(g, ids)
		return err
	})
}

// NewStar wires a fresh graph with the default configuration as a star.
func NewStar(hub string, leaves ...string) (*entanglegraph.Graph, error) {
	return fresh(func(g Entangler) error {
		_, err := Star(g, hub, leaves)
		return err
	})
}

// NewMesh wires a fresh graph with the default configuration as a mesh.
func NewMesh(ids ...string) (*entanglegraph.Graph, error) {
	return fresh(func(g Entangler) error {
		_, err := Mesh(g, ids)
		return err
	})
}

func fresh(build func(Entangler) error) (*entanglegraph.Graph, error) {
	g := entanglegraph.NewDefault()
	if err := build(g); err != nil {
		return nil, err
	}
	return g, nil
}

// FromSpec wires g according to a declared topology. The hub of a star
// defaults to the first node; the remaining nodes become the leaves.
func FromSpec(g Entangler, spec validation.TopologySpec) (int, error) {
	if err := spec.Validate(); err != nil {
		return 0, err
	}
	var opts []Option
	if spec.Strength != nil {
		opts = append(opts, WithStrength(*spec.Strength))
	}
	if spec.Bidirectional != nil && !*spec.Bidirectional {
		opts = append(opts, Unidirectional())
	}

	switch spec.Kind {
	case validation.TopologyChain:
		return Chain(g, spec.Nodes, opts...)
	case validation.TopologyRing:
		return Ring(g, spec.Nodes, opts...)
	case validation.TopologyStar:
		hub := spec.Hub
		if hub == "" && len(spec.Nodes) > 0 {
			hub = spec.Nodes[0]
		}
		leaves := make([]string, 0, len(spec.Nodes))
		for _, id := range spec.Nodes {
			if id != hub {
				leaves = append(leaves, id)
			}
		}
		return Star(g, hub, leaves, opts...)
	case validation.TopologyMesh:
		return Mesh(g, spec.Nodes, opts...)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownTopology, spec.Kind)
	}
}

// Apply wires each declared edge in order. Unset strength and direction fall
// back to the builder defaults, adjusted by opts. It stops at the first
// invalid edge and reports how many were applied before it.
func Apply(g Entangler, edges []validation.EdgeSpec, opts ...Option) (int, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return 0, err
	}
	applied := 0
	for i, e := range edges {
		if e.Source == "" || e.Target == "" {
			return applied, fmt.Errorf("%w: edge %d", ErrEmptyNodeID, i)
		}
		strength := o.strength
		if e.Strength != nil {
			strength = *e.Strength
		}
		if strength < 0 || strength > 1 {
			return applied, fmt.Errorf("%w: edge %d", ErrInvalidStrength, i)
		}
		bidirectional := o.bidirectional
		if e.Bidirectional != nil {
			bidirectional = *e.Bidirectional
		}
		if g.Entangle(e.Source, e.Target, strength, bidirectional) {
			applied++
		}
	}
	return applied, nil
}
