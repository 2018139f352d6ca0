package main

import (
	"flag"
	"fmt"

	"github.com/entanglegraph/entanglegraph/pkg/entanglegraph"
	"github.com/entanglegraph/entanglegraph/pkg/prebuilt"
	"github.com/entanglegraph/entanglegraph/pkg/validation"
)

// runDemo builds a prebuilt topology on a fresh graph, cascades one payload
// through it and prints every observation along the way.
func runDemo(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	topology := fs.String("topology", "ring", "shape to build: chain, ring, star or mesh")
	nodes := fs.Int("nodes", 5, "number of nodes to wire")
	strength := fs.Float64("strength", 0.8, "stored strength for every edge")
	depth := fs.Int("depth", 4, "maximum propagation depth")
	payload := fs.String("payload", "pulse", "payload to propagate from the first node")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := entanglegraph.DefaultConfig()
	cfg.MaxPropagationDepth = *depth
	g, err := entanglegraph.New(cfg)
	if err != nil {
		return err
	}
	g.AddObserver(printObservation)

	ids := make([]string, *nodes)
	for i := range ids {
		ids[i] = fmt.Sprintf("n%d", i+1)
	}

	fmt.Printf("🕸️  Building a %s over %d nodes\n", *topology, *nodes)
	applied, err := prebuilt.FromSpec(g, validation.TopologySpec{
		Kind:     *topology,
		Nodes:    ids,
		Strength: strength,
	})
	if err != nil {
		return err
	}
	fmt.Printf("   %d entanglements applied\n\n", applied)

	fmt.Printf("⚡ Propagating %q from %s\n", *payload, ids[0])
	delivered := g.Propagate(ids[0], *payload, nil)
	fmt.Printf("   %d direct deliveries\n\n", delivered)

	state := g.State()
	fmt.Println("📊 Final state")
	fmt.Printf("   nodes: %d  edges: %d\n", state.NodeCount, state.EdgeCount)
	fmt.Printf("   created: %d  broken: %d  propagations: %d  errors: %d\n",
		state.Stats.EntanglementsCreated, state.Stats.EntanglementsBroken,
		state.Stats.Propagations, state.Stats.PropagationErrors)
	return nil
}

func printObservation(o entanglegraph.Observation) {
	switch o.Kind {
	case entanglegraph.ObservationEntangled:
		arrow := "→"
		if o.Bidirectional {
			arrow = "↔"
		}
		fmt.Printf("   🔗 %s %s %s (strength %.2f)\n", o.Source, arrow, o.Target, o.Strength)
	case entanglegraph.ObservationDisentangled:
		fmt.Printf("   ✂️  %s ⇸ %s\n", o.Source, o.Target)
	case entanglegraph.ObservationPropagated:
		fmt.Printf("   ⚡ %s → %s carried %v (effective %.2f)\n",
			o.Source, o.Target, o.Payload, o.EffectiveStrength)
	case entanglegraph.ObservationPropagationError:
		fmt.Printf("   💥 %s → %s failed: %v\n", o.Source, o.Target, o.Err)
	}
}
