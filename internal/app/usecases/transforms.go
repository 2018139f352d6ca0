package usecases

import "github.com/entanglegraph/entanglegraph/internal/core/entangle"

// AmplifyTransform scales numeric payloads by effective strength times
// factor, so a payload fades along weak edges and is boosted along strong
// ones. JSON numbers arrive as float64; integers are widened to keep the
// behavior uniform for library callers. Map payloads are copied with each
// numeric value scaled; everything else passes through untouched.
func AmplifyTransform(factor float64) entangle.Transform {
	return func(payload any, _ string, effectiveStrength float64) (any, error) {
		scale := effectiveStrength * factor
		switch v := payload.(type) {
		case float64:
			return v * scale, nil
		case int:
			return float64(v) * scale, nil
		case map[string]any:
			out := make(map[string]any, len(v))
			for key, val := range v {
				switch n := val.(type) {
				case float64:
					out[key] = n * scale
				case int:
					out[key] = float64(n) * scale
				default:
					out[key] = val
				}
			}
			return out, nil
		default:
			return payload, nil
		}
	}
}
