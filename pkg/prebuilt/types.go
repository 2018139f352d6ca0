package prebuilt

import (
	"fmt"

	"github.com/entanglegraph/entanglegraph/pkg/entanglegraph"
)

// Entangler is the slice of a graph the topology builders drive.
// *entanglegraph.Graph satisfies it directly; EntangleFunc adapts anything
// else, such as a service call that entangles through a hosted instance.
type Entangler interface {
	Entangle(source, target string, strength float64, bidirectional bool) bool
}

// EntangleFunc adapts a plain function to the Entangler interface.
type EntangleFunc func(source, target string, strength float64, bidirectional bool) bool

func (f EntangleFunc) Entangle(source, target string, strength float64, bidirectional bool) bool {
	return f(source, target, strength, bidirectional)
}

// Option adjusts the edge parameters shared by every edge a builder creates.
type Option func(*options)

type options struct {
	strength      float64
	bidirectional bool
}

// WithStrength fixes the stored strength for built edges.
func WithStrength(strength float64) Option {
	return func(o *options) { o.strength = strength }
}

// Unidirectional wires forward edges only.
func Unidirectional() Option {
	return func(o *options) { o.bidirectional = false }
}

func buildOptions(opts []Option) (options, error) {
	o := options{
		strength:      entanglegraph.DefaultConfig().DefaultStrength,
		bidirectional: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.strength < 0 || o.strength > 1 {
		return o, fmt.Errorf("%w: %v", ErrInvalidStrength, o.strength)
	}
	return o, nil
}

// checkNodes rejects node lists the builders cannot wire unambiguously.
func checkNodes(ids []string, min int) error {
	if len(ids) < min {
		return fmt.Errorf("%w: need at least %d, got %d", ErrTooFewNodes, min, len(ids))
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return ErrEmptyNodeID
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
