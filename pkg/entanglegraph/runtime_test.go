package entanglegraph

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entanglegraph/entanglegraph/internal/core/entangle"
)

func TestRuntime_EntangleAndPropagate(t *testing.T) {
	rt, err := NewRuntime(RuntimeConfig{})
	require.NoError(t, err)
	defer rt.Close()

	require.True(t, rt.Entangle("a", "b"))
	assert.True(t, rt.IsEntangled("a", "b"))
	assert.True(t, rt.IsEntangled("b", "a"))

	strength, ok := rt.Strength("a", "b")
	require.True(t, ok)
	assert.Equal(t, 0.5, strength)

	count := rt.Propagate("a", "pulse")
	assert.Equal(t, 1, count)

	state := rt.State()
	assert.Equal(t, 2, state.EdgeCount)
	// Entry frame plus the cascade into b; the edge back into a is refused
	// by the cycle guard.
	assert.Equal(t, int64(2), state.Stats.Propagations)
}

func TestRuntime_InvalidGraphConfig(t *testing.T) {
	_, err := NewRuntime(RuntimeConfig{
		Graph: Config{
			DefaultStrength:     2.0,
			AutoPropagate:       true,
			MaxPropagationDepth: 5,
		},
	})
	assert.ErrorIs(t, err, entangle.ErrInvalidDefaultStrength)
}

func TestRuntime_JournalPipeline(t *testing.T) {
	rt, err := NewRuntime(RuntimeConfig{Name: "pipeline"})
	require.NoError(t, err)

	require.True(t, rt.EntangleWith("a", "b", 0.9, false))
	assert.Equal(t, 1, rt.Propagate("a", "signal"))

	// Close drains the stream, so the journal is complete afterwards.
	rt.Close()

	entries := rt.Journal(JournalFilter{})
	require.Len(t, entries, 2)
	assert.Equal(t, "propagated", entries[0].Kind)
	assert.Equal(t, "signal", entries[0].Payload)
	assert.Equal(t, "entangled", entries[1].Kind)
	assert.Equal(t, "pipeline", entries[1].Graph)

	report := rt.Analytics(3)
	assert.Equal(t, 1, report.EdgeCount)
	assert.Equal(t, map[string]int64{"entangled": 1, "propagated": 1}, report.ObservationTotals)
	require.Len(t, report.TopEdges, 1)
	assert.Equal(t, 0.9, report.TopEdges[0].Strength)
}

func TestRuntime_ExportImportRoundTrip(t *testing.T) {
	rt, err := NewRuntime(RuntimeConfig{Name: "source"})
	require.NoError(t, err)
	require.True(t, rt.Entangle("x", "y"))
	rt.Close()

	assert.Equal(t, "msgpack", rt.JournalCodec())
	data, err := rt.ExportJournal()
	require.NoError(t, err)
	require.NotEmpty(t, data)

	other, err := NewRuntime(RuntimeConfig{Name: "sink"})
	require.NoError(t, err)
	defer other.Close()

	n, err := other.ImportJournal(data)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	imported := other.Journal(JournalFilter{Graph: "source"})
	require.Len(t, imported, 1)
	assert.Equal(t, "entangled", imported[0].Kind)
}

func TestRuntime_Decay(t *testing.T) {
	rt, err := NewRuntime(RuntimeConfig{
		Graph: Config{
			DefaultStrength:     0.8,
			DecayRate:           1000,
			AutoPropagate:       true,
			MaxPropagationDepth: 5,
		},
	})
	require.NoError(t, err)
	defer rt.Close()

	require.True(t, rt.EntangleWith("a", "b", 0.8, false))
	time.Sleep(10 * time.Millisecond)

	stored, ok := rt.Strength("a", "b")
	require.True(t, ok)
	assert.Equal(t, 0.8, stored, "decay must not rewrite the stored strength")

	effective, ok := rt.EffectiveStrength("a", "b")
	require.True(t, ok)
	assert.Zero(t, effective)

	report := rt.Analytics(0)
	assert.Equal(t, 1, report.FullyDecayed)
}

func TestRuntime_CustomHandler(t *testing.T) {
	rt, err := NewRuntime(RuntimeConfig{Name: "observed"})
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []Event
	rt.AddHandler(HandlerFunc(func(e Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e)
		return nil
	}))

	require.True(t, rt.Entangle("a", "b"))
	rt.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.Equal(t, "observed", seen[0].Graph)
	assert.Equal(t, ObservationEntangled, seen[0].Observation.Kind)
}

func TestRuntime_ConcurrentUse(t *testing.T) {
	rt, err := NewRuntime(RuntimeConfig{})
	require.NoError(t, err)
	defer rt.Close()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				source := fmt.Sprintf("n%d", w)
				target := fmt.Sprintf("n%d", (w+1)%8)
				rt.EntangleWith(source, target, 0.5, false)
				rt.Propagate(source, i)
				rt.Entanglements()
			}
		}(w)
	}
	wg.Wait()

	state := rt.State()
	assert.Equal(t, 8, state.EdgeCount)
	// Repeated entangles update the existing edge instead of minting a new one.
	assert.Equal(t, int64(8), state.Stats.EntanglementsCreated)
}
