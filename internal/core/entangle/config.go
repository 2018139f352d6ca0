package entangle

// Config holds graph configuration, fixed at construction time.
// PRINCIPLES:
// - KISS: Four plain fields, no nested option trees
// - Immutable after New: behavior never shifts mid-lifetime
type Config struct {
	// DefaultStrength is applied when a caller does not supply a strength.
	// Must be within [0, 1].
	DefaultStrength float64 `json:"default_strength"`
	// DecayRate is the linear strength decay per second applied when
	// computing effective strength. Zero disables decay. Stored strength is
	// never mutated by decay.
	DecayRate float64 `json:"decay_rate"`
	// AutoPropagate cascades propagation into downstream nodes, depth-first.
	AutoPropagate bool `json:"auto_propagate"`
	// MaxPropagationDepth bounds cascading recursion.
	MaxPropagationDepth int `json:"max_propagation_depth"`
}

// DefaultConfig returns the built-in defaults: moderate default strength,
// decay disabled, auto-cascade on, recursion capped at 5.
func DefaultConfig() Config {
	return Config{
		DefaultStrength:     0.5,
		DecayRate:           0,
		AutoPropagate:       true,
		MaxPropagationDepth: 5,
	}
}

// Validate ensures configuration integrity
// PRINCIPLES:
// - SRP: Single responsibility - validation only
// - KISS: Simple validation rules, easy to understand
func (c Config) Validate() error {
	if c.DefaultStrength < 0 || c.DefaultStrength > 1 {
		return ErrInvalidDefaultStrength
	}
	if c.DecayRate < 0 {
		return ErrInvalidDecayRate
	}
	if c.MaxPropagationDepth < 1 {
		return ErrInvalidMaxDepth
	}
	return nil
}
