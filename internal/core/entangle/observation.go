package entangle

import "time"

// ObservationKind names the operation an observation reports.
type ObservationKind string

const (
	// ObservationEntangled reports a successful Entangle call.
	ObservationEntangled ObservationKind = "entangled"
	// ObservationDisentangled reports a successful Disentangle call.
	ObservationDisentangled ObservationKind = "disentangled"
	// ObservationPropagated reports one edge processed during propagation.
	ObservationPropagated ObservationKind = "propagated"
	// ObservationPropagationError reports a transform failure for one edge.
	ObservationPropagationError ObservationKind = "propagation_error"
)

// Observation is the record delivered to observers. Fields beyond Kind,
// Source and At are populated per kind: Entangled carries Strength and
// Bidirectional, Propagated carries Payload and EffectiveStrength,
// PropagationError carries Err.
type Observation struct {
	Kind              ObservationKind `json:"kind"`
	Source            string          `json:"source"`
	Target            string          `json:"target,omitempty"`
	Strength          float64         `json:"strength,omitempty"`
	Bidirectional     bool            `json:"bidirectional,omitempty"`
	Payload           any             `json:"payload,omitempty"`
	EffectiveStrength float64         `json:"effective_strength,omitempty"`
	Err               error           `json:"-"`
	At                time.Time       `json:"at"`
}

// Observer receives observations synchronously on the goroutine that runs
// the graph operation. Observers must not panic; only transform failures are
// contained by the graph.
type Observer func(Observation)

// AddObserver registers an observer. Delivery order follows registration
// order. There is no unregistration: hosts subscribe once and fan out to
// their own consumers.
func (g *Graph) AddObserver(fn Observer) {
	if fn == nil {
		return
	}
	g.observers = append(g.observers, fn)
}

func (g *Graph) emit(o Observation) {
	for _, fn := range g.observers {
		fn(o)
	}
}
