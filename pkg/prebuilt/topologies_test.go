package prebuilt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entanglegraph/entanglegraph/pkg/entanglegraph"
	"github.com/entanglegraph/entanglegraph/pkg/validation"
)

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func TestChain(t *testing.T) {
	g := entanglegraph.NewDefault()

	applied, err := Chain(g, []string{"a", "b", "c"}, WithStrength(0.8))
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	assert.True(t, g.IsEntangled("a", "b"))
	assert.True(t, g.IsEntangled("b", "a"))
	assert.True(t, g.IsEntangled("b", "c"))
	assert.False(t, g.IsEntangled("a", "c"))

	strength, ok := g.Strength("b", "c")
	require.True(t, ok)
	assert.Equal(t, 0.8, strength)
	assert.Equal(t, 4, g.State().EdgeCount)
}

func TestChain_Unidirectional(t *testing.T) {
	g := entanglegraph.NewDefault()

	applied, err := Chain(g, []string{"a", "b", "c"}, Unidirectional())
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	assert.True(t, g.IsEntangled("a", "b"))
	assert.False(t, g.IsEntangled("b", "a"))
	assert.Equal(t, 2, g.State().EdgeCount)
}

func TestChain_Errors(t *testing.T) {
	tests := []struct {
		name    string
		ids     []string
		opts    []Option
		wantErr error
	}{
		{name: "too few nodes", ids: []string{"a"}, wantErr: ErrTooFewNodes},
		{name: "duplicate node", ids: []string{"a", "b", "a"}, wantErr: ErrDuplicateNode},
		{name: "empty node id", ids: []string{"a", ""}, wantErr: ErrEmptyNodeID},
		{name: "strength out of range", ids: []string{"a", "b"}, opts: []Option{WithStrength(1.5)}, wantErr: ErrInvalidStrength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := entanglegraph.NewDefault()
			applied, err := Chain(g, tt.ids, tt.opts...)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, applied)
			assert.Zero(t, g.State().EdgeCount)
		})
	}
}

func TestRing(t *testing.T) {
	g := entanglegraph.NewDefault()

	applied, err := Ring(g, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, 3, applied)

	// The closing edge distinguishes a ring from a chain.
	assert.True(t, g.IsEntangled("c", "a"))
	assert.Equal(t, 6, g.State().EdgeCount)

	_, err = Ring(entanglegraph.NewDefault(), []string{"a", "b"})
	assert.ErrorIs(t, err, ErrTooFewNodes)
}

func TestStar(t *testing.T) {
	g := entanglegraph.NewDefault()

	applied, err := Star(g, "hub", []string{"l1", "l2", "l3"}, Unidirectional())
	require.NoError(t, err)
	assert.Equal(t, 3, applied)

	for _, leaf := range []string{"l1", "l2", "l3"} {
		assert.True(t, g.IsEntangled("hub", leaf))
		assert.False(t, g.IsEntangled(leaf, "hub"))
	}
	// Only the hub holds outgoing edges.
	assert.Equal(t, 1, g.State().NodeCount)
	assert.Equal(t, 3, g.State().EdgeCount)
}

func TestStar_Errors(t *testing.T) {
	tests := []struct {
		name    string
		hub     string
		leaves  []string
		wantErr error
	}{
		{name: "empty hub", hub: "", leaves: []string{"a"}, wantErr: ErrEmptyNodeID},
		{name: "no leaves", hub: "hub", leaves: nil, wantErr: ErrTooFewNodes},
		{name: "hub is a leaf", hub: "hub", leaves: []string{"a", "hub"}, wantErr: ErrDuplicateNode},
		{name: "duplicate leaf", hub: "hub", leaves: []string{"a", "a"}, wantErr: ErrDuplicateNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Star(entanglegraph.NewDefault(), tt.hub, tt.leaves)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMesh(t *testing.T) {
	g := entanglegraph.NewDefault()

	applied, err := Mesh(g, []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	assert.Equal(t, 6, applied)
	assert.Equal(t, 12, g.State().EdgeCount)

	uni := entanglegraph.NewDefault()
	applied, err = Mesh(uni, []string{"a", "b", "c", "d"}, Unidirectional())
	require.NoError(t, err)
	assert.Equal(t, 6, applied)
	assert.Equal(t, 6, uni.State().EdgeCount)
	assert.True(t, uni.IsEntangled("a", "d"))
	assert.False(t, uni.IsEntangled("d", "a"))
}

func TestNewVariants(t *testing.T) {
	chain, err := NewChain("a", "b")
	require.NoError(t, err)
	assert.True(t, chain.IsEntangled("a", "b"))

	ring, err := NewRing("a", "b", "c")
	require.NoError(t, err)
	assert.True(t, ring.IsEntangled("c", "a"))

	star, err := NewStar("hub", "l1", "l2")
	require.NoError(t, err)
	assert.True(t, star.IsEntangled("hub", "l2"))

	mesh, err := NewMesh("a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, 6, mesh.State().EdgeCount)

	_, err = NewRing("a", "b")
	assert.ErrorIs(t, err, ErrTooFewNodes)
}

func TestFromSpec(t *testing.T) {
	tests := []struct {
		name        string
		spec        validation.TopologySpec
		wantApplied int
		wantEdge    [2]string
		wantAbsent  [2]string
	}{
		{
			name: "chain",
			spec: validation.TopologySpec{
				Kind:  validation.TopologyChain,
				Nodes: []string{"a", "b", "c"},
			},
			wantApplied: 2,
			wantEdge:    [2]string{"a", "b"},
			wantAbsent:  [2]string{"c", "a"},
		},
		{
			name: "ring",
			spec: validation.TopologySpec{
				Kind:  validation.TopologyRing,
				Nodes: []string{"a", "b", "c"},
			},
			wantApplied: 3,
			wantEdge:    [2]string{"c", "a"},
			wantAbsent:  [2]string{"a", "c"},
		},
		{
			name: "star with default hub",
			spec: validation.TopologySpec{
				Kind:  validation.TopologyStar,
				Nodes: []string{"hub", "l1", "l2"},
			},
			wantApplied: 2,
			wantEdge:    [2]string{"hub", "l2"},
			wantAbsent:  [2]string{"l1", "l2"},
		},
		{
			name: "star with named hub",
			spec: validation.TopologySpec{
				Kind:  validation.TopologyStar,
				Nodes: []string{"l1", "center", "l2"},
				Hub:   "center",
			},
			wantApplied: 2,
			wantEdge:    [2]string{"center", "l1"},
			wantAbsent:  [2]string{"l1", "l2"},
		},
		{
			name: "mesh",
			spec: validation.TopologySpec{
				Kind:  validation.TopologyMesh,
				Nodes: []string{"a", "b", "c"},
			},
			wantApplied: 3,
			wantEdge:    [2]string{"a", "c"},
			wantAbsent:  [2]string{"c", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.spec.Strength = floatPtr(0.9)
			tt.spec.Bidirectional = boolPtr(false)

			g := entanglegraph.NewDefault()
			applied, err := FromSpec(g, tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.wantApplied, applied)
			assert.True(t, g.IsEntangled(tt.wantEdge[0], tt.wantEdge[1]))
			assert.False(t, g.IsEntangled(tt.wantAbsent[0], tt.wantAbsent[1]))

			strength, ok := g.Strength(tt.wantEdge[0], tt.wantEdge[1])
			require.True(t, ok)
			assert.Equal(t, 0.9, strength)
		})
	}
}

func TestFromSpec_Errors(t *testing.T) {
	g := entanglegraph.NewDefault()

	_, err := FromSpec(g, validation.TopologySpec{Kind: "lattice", Nodes: []string{"a", "b"}})
	assert.ErrorIs(t, err, ErrUnknownTopology)

	_, err = FromSpec(g, validation.TopologySpec{
		Kind:  validation.TopologyChain,
		Nodes: []string{"a", "b", "a"},
	})
	assert.Error(t, err)

	_, err = FromSpec(g, validation.TopologySpec{
		Kind:  validation.TopologyStar,
		Nodes: []string{"a", "b"},
		Hub:   "outside",
	})
	assert.Error(t, err)

	assert.Zero(t, g.State().EdgeCount)
}

func TestApply(t *testing.T) {
	g := entanglegraph.NewDefault()

	applied, err := Apply(g, []validation.EdgeSpec{
		{Source: "a", Target: "b"},
		{Source: "b", Target: "c", Strength: floatPtr(0.9), Bidirectional: boolPtr(false)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	// First edge keeps the defaults.
	strength, ok := g.Strength("a", "b")
	require.True(t, ok)
	assert.Equal(t, 0.5, strength)
	assert.True(t, g.IsEntangled("b", "a"))

	strength, ok = g.Strength("b", "c")
	require.True(t, ok)
	assert.Equal(t, 0.9, strength)
	assert.False(t, g.IsEntangled("c", "b"))
}

func TestApply_Errors(t *testing.T) {
	g := entanglegraph.NewDefault()

	applied, err := Apply(g, []validation.EdgeSpec{
		{Source: "a", Target: "b"},
		{Source: "", Target: "c"},
	})
	assert.ErrorIs(t, err, ErrEmptyNodeID)
	assert.Equal(t, 1, applied, "edges before the invalid one stay applied")

	_, err = Apply(g, []validation.EdgeSpec{
		{Source: "x", Target: "y", Strength: floatPtr(2.0)},
	})
	assert.ErrorIs(t, err, ErrInvalidStrength)
}

func TestEntangleFunc(t *testing.T) {
	var calls [][2]string
	sink := EntangleFunc(func(source, target string, strength float64, bidirectional bool) bool {
		calls = append(calls, [2]string{source, target})
		return target != "reject"
	})

	applied, err := Chain(sink, []string{"a", "reject", "b"})
	require.NoError(t, err)
	assert.Equal(t, 1, applied, "refused entangles are not counted")
	assert.Equal(t, [][2]string{{"a", "reject"}, {"reject", "b"}}, calls)
}
