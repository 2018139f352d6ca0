package dto

import (
	"time"

	"github.com/entanglegraph/entanglegraph/internal/core/entangle"
)

// ObservationEvent is the flattened wire form of a core observation, shared
// by the websocket stream and journal listings. Err collapses to its message
// because errors do not survive JSON.
type ObservationEvent struct {
	Graph             string    `json:"graph"`
	Kind              string    `json:"kind"`
	Source            string    `json:"source"`
	Target            string    `json:"target,omitempty"`
	Strength          float64   `json:"strength,omitempty"`
	Bidirectional     bool      `json:"bidirectional,omitempty"`
	Payload           any       `json:"payload,omitempty"`
	EffectiveStrength float64   `json:"effective_strength,omitempty"`
	Error             string    `json:"error,omitempty"`
	At                time.Time `json:"at"`
}

// NewObservationEvent flattens a core observation for transport.
func NewObservationEvent(graph string, o entangle.Observation) ObservationEvent {
	ev := ObservationEvent{
		Graph:             graph,
		Kind:              string(o.Kind),
		Source:            o.Source,
		Target:            o.Target,
		Strength:          o.Strength,
		Bidirectional:     o.Bidirectional,
		Payload:           o.Payload,
		EffectiveStrength: o.EffectiveStrength,
		At:                o.At,
	}
	if o.Err != nil {
		ev.Error = o.Err.Error()
	}
	return ev
}

// JournalQuery filters journal listings.
type JournalQuery struct {
	Kind  string `form:"kind" json:"kind,omitempty" validate:"omitempty,observation_kind"`
	Node  string `form:"node" json:"node,omitempty" validate:"omitempty,node_id"`
	Limit int    `form:"limit" json:"limit,omitempty" validate:"min=0,max=1000"`
}

// Validate validates the query and applies defaults: a zero Limit becomes
// 100.
func (q *JournalQuery) Validate() error {
	if q.Limit < 0 || q.Limit > 1000 {
		return ErrInvalidLimit
	}
	if q.Limit == 0 {
		q.Limit = 100
	}
	switch entangle.ObservationKind(q.Kind) {
	case "", entangle.ObservationEntangled, entangle.ObservationDisentangled,
		entangle.ObservationPropagated, entangle.ObservationPropagationError:
		return nil
	default:
		return ErrInvalidKind
	}
}

// AnalyticsQuery tunes the analytics report.
type AnalyticsQuery struct {
	Top int `form:"top" json:"top,omitempty" validate:"min=0,max=100"`
}

// Validate validates the query and defaults a zero Top to 5.
func (q *AnalyticsQuery) Validate() error {
	if q.Top < 0 || q.Top > 100 {
		return ErrInvalidTopN
	}
	if q.Top == 0 {
		q.Top = 5
	}
	return nil
}
