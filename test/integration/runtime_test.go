// Package integration contains cross-package tests for EntanglementGraph
package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entanglegraph/entanglegraph/pkg/entanglegraph"
	"github.com/entanglegraph/entanglegraph/pkg/prebuilt"
)

// TestRuntimeLifecycle walks the embedding surface end to end: wire a
// topology through the runtime, cascade a payload, read analytics and move
// the journal into a second runtime.
func TestRuntimeLifecycle(t *testing.T) {
	rt, err := entanglegraph.NewRuntime(entanglegraph.RuntimeConfig{
		Name:            "relay-net",
		JournalCapacity: 128,
	})
	require.NoError(t, err)

	// The runtime's EntangleWith satisfies the builders' Entangler shape.
	applied, err := prebuilt.Star(prebuilt.EntangleFunc(rt.EntangleWith),
		"hub", []string{"n1", "n2", "n3"}, prebuilt.WithStrength(0.9))
	require.NoError(t, err)
	require.Equal(t, 3, applied)
	assert.True(t, rt.IsEntangled("n2", "hub"))

	assert.Equal(t, 3, rt.Propagate("hub", "burst"))

	state := rt.State()
	assert.Equal(t, 6, state.EdgeCount)
	assert.Equal(t, int64(3), state.Stats.EntanglementsCreated)

	// Close drains the stream, making the journal complete.
	rt.Close()

	report := rt.Analytics(2)
	assert.Equal(t, 6, report.EdgeCount)
	require.Len(t, report.TopEdges, 2)
	assert.Equal(t, 0.9, report.TopEdges[0].Strength)
	assert.Equal(t, int64(3), report.ObservationTotals["entangled"])
	// Three direct deliveries plus each leaf reporting back into the
	// in-flight hub.
	assert.Equal(t, int64(6), report.ObservationTotals["propagated"])

	snapshot, err := rt.ExportJournal()
	require.NoError(t, err)

	replica, err := entanglegraph.NewRuntime(entanglegraph.RuntimeConfig{Name: "replica"})
	require.NoError(t, err)
	defer replica.Close()

	imported, err := replica.ImportJournal(snapshot)
	require.NoError(t, err)
	assert.Equal(t, 9, imported)
	assert.Len(t, replica.Journal(entanglegraph.JournalFilter{Graph: "relay-net"}), 9)
}

// TestRuntimeDecayReporting ages an edge past the point of full decay and
// checks the read side agrees everywhere.
func TestRuntimeDecayReporting(t *testing.T) {
	rt, err := entanglegraph.NewRuntime(entanglegraph.RuntimeConfig{
		Graph: entanglegraph.Config{
			DefaultStrength:     0.6,
			DecayRate:           500,
			AutoPropagate:       true,
			MaxPropagationDepth: 3,
		},
	})
	require.NoError(t, err)
	defer rt.Close()

	require.True(t, rt.EntangleWith("a", "b", 0.6, false))
	time.Sleep(5 * time.Millisecond)

	effective, ok := rt.EffectiveStrength("a", "b")
	require.True(t, ok)
	assert.Zero(t, effective)

	// A fully decayed edge stops delivering.
	assert.Zero(t, rt.Propagate("a", "ping"))

	report := rt.Analytics(0)
	assert.Equal(t, 1, report.FullyDecayed)
	assert.Zero(t, report.Effective.Mean)

	stored, ok := rt.Strength("a", "b")
	require.True(t, ok)
	assert.Equal(t, 0.6, stored)
}
