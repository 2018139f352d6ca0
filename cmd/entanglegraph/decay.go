package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/entanglegraph/entanglegraph/pkg/entanglegraph"
)

// runDecay entangles one pair and samples the edge while its effective
// strength decays toward zero. Stored strength never moves; only the
// read-side value does.
func runDecay(args []string) error {
	fs := flag.NewFlagSet("decay", flag.ContinueOnError)
	rate := fs.Float64("rate", 2.0, "linear strength decay per second")
	steps := fs.Int("steps", 4, "samples to take after the first")
	wait := fs.Duration("wait", 100*time.Millisecond, "pause between samples")
	if err := fs.Parse(args); err != nil {
		return err
	}

	g, err := entanglegraph.New(entanglegraph.Config{
		DefaultStrength:     0.9,
		DecayRate:           *rate,
		AutoPropagate:       true,
		MaxPropagationDepth: 2,
	})
	if err != nil {
		return err
	}

	g.Entangle("alpha", "beta", 0.9, false)
	fmt.Printf("⏳ alpha → beta stored at 0.90, decaying %.2f per second\n", *rate)

	start := time.Now()
	for i := 0; i <= *steps; i++ {
		if i > 0 {
			time.Sleep(*wait)
		}
		stored, _ := g.Strength("alpha", "beta")
		effective, _ := g.EffectiveStrength("alpha", "beta")
		fmt.Printf("   t=%-8s stored=%.2f effective=%.2f\n",
			time.Since(start).Round(time.Millisecond), stored, effective)
	}

	if effective, _ := g.EffectiveStrength("alpha", "beta"); effective == 0 {
		fmt.Println("   fully decayed: propagation along this edge delivers nothing")
	}
	return nil
}
