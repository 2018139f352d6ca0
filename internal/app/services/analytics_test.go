package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entanglegraph/entanglegraph/internal/core/entangle"
)

func TestAnalyticsService_EmptyGraph(t *testing.T) {
	svc := NewAnalyticsService()
	report := svc.Analyze(entangle.NewDefault(), 5)

	assert.Equal(t, 0, report.EdgeCount)
	assert.Equal(t, 0, report.NodeCount)
	assert.Equal(t, 0, report.Stored.Count)
	assert.Empty(t, report.TopEdges)
	assert.False(t, report.GeneratedAt.IsZero())

	// Empty summaries must stay JSON-encodable: no NaN fields.
	_, err := json.Marshal(report)
	assert.NoError(t, err)
}

func TestAnalyticsService_StrengthSummary(t *testing.T) {
	g := entangle.NewDefault()
	require.True(t, g.Entangle("a", "b", 0.2, false))
	require.True(t, g.Entangle("a", "c", 0.4, false))
	require.True(t, g.Entangle("b", "c", 0.6, false))
	require.True(t, g.Entangle("c", "d", 0.8, false))

	report := NewAnalyticsService().Analyze(g, 2)

	assert.Equal(t, 4, report.EdgeCount)
	assert.Equal(t, 3, report.NodeCount)

	stored := report.Stored
	assert.Equal(t, 4, stored.Count)
	assert.InDelta(t, 0.5, stored.Mean, 1e-9)
	assert.InDelta(t, 0.2582, stored.StdDev, 1e-4)
	assert.Equal(t, 0.2, stored.Min)
	assert.Equal(t, 0.8, stored.Max)
	assert.InDelta(t, 0.2, stored.Quartiles[0], 1e-9)
	assert.InDelta(t, 0.4, stored.Quartiles[1], 1e-9)
	assert.InDelta(t, 0.6, stored.Quartiles[2], 1e-9)

	// No decay configured: effective matches stored.
	assert.Equal(t, stored.Mean, report.Effective.Mean)
	assert.Equal(t, 0, report.FullyDecayed)

	require.Len(t, report.TopEdges, 2)
	assert.Equal(t, 0.8, report.TopEdges[0].Strength)
	assert.Equal(t, 0.6, report.TopEdges[1].Strength)
}

func TestAnalyticsService_OutDegree(t *testing.T) {
	g := entangle.NewDefault()
	require.True(t, g.Entangle("a", "b", 0.5, false))
	require.True(t, g.Entangle("a", "c", 0.5, false))
	require.True(t, g.Entangle("b", "c", 0.5, false))

	report := NewAnalyticsService().Analyze(g, 0)
	assert.Equal(t, map[string]int{"a": 2, "b": 1}, report.OutDegree)
	assert.Nil(t, report.TopEdges, "topN of zero disables the ranking")
}

func TestAnalyticsService_FullyDecayed(t *testing.T) {
	cfg := entangle.DefaultConfig()
	cfg.DecayRate = 1000 // drains any strength within a millisecond
	g, err := entangle.New(cfg)
	require.NoError(t, err)

	require.True(t, g.Entangle("a", "b", 1.0, false))
	time.Sleep(5 * time.Millisecond)

	report := NewAnalyticsService().Analyze(g, 5)
	assert.Equal(t, 1, report.FullyDecayed)
	assert.Equal(t, 0.0, report.Effective.Max)
	assert.Equal(t, 1.0, report.Stored.Max, "decay must not touch stored strengths")
}

func TestAnalyticsService_SingleEdgeStdDev(t *testing.T) {
	g := entangle.NewDefault()
	require.True(t, g.Entangle("a", "b", 0.7, false))

	report := NewAnalyticsService().Analyze(g, 5)
	assert.Equal(t, 1, report.Stored.Count)
	assert.Equal(t, 0.0, report.Stored.StdDev)

	_, err := json.Marshal(report)
	assert.NoError(t, err)
}
