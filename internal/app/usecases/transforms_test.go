package usecases

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmplifyTransform(t *testing.T) {
	amplify := AmplifyTransform(2.0)

	t.Run("float payload", func(t *testing.T) {
		out, err := amplify(10.0, "b", 0.5)
		require.NoError(t, err)
		assert.Equal(t, 10.0, out, "10 * (0.5 * 2)")
	})

	t.Run("int widens to float", func(t *testing.T) {
		out, err := amplify(4, "b", 1.0)
		require.NoError(t, err)
		assert.Equal(t, 8.0, out)
	})

	t.Run("map scales numeric values only", func(t *testing.T) {
		out, err := amplify(map[string]any{
			"reading": 3.0,
			"count":   2,
			"unit":    "kelvin",
		}, "b", 1.0)
		require.NoError(t, err)
		m, ok := out.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 6.0, m["reading"])
		assert.Equal(t, 4.0, m["count"])
		assert.Equal(t, "kelvin", m["unit"])
	})

	t.Run("map input is not mutated", func(t *testing.T) {
		in := map[string]any{"reading": 3.0}
		_, err := amplify(in, "b", 1.0)
		require.NoError(t, err)
		assert.Equal(t, 3.0, in["reading"])
	})

	t.Run("non-numeric passthrough", func(t *testing.T) {
		out, err := amplify("pulse", "b", 0.1)
		require.NoError(t, err)
		assert.Equal(t, "pulse", out)
	})

	t.Run("zero effective strength zeroes the payload", func(t *testing.T) {
		out, err := amplify(10.0, "b", 0)
		require.NoError(t, err)
		assert.Equal(t, 0.0, out)
	})
}
