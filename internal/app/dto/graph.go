package dto

import (
	"time"

	"github.com/entanglegraph/entanglegraph/internal/core/entangle"
)

// Status reports how the graph received an operation. Rejected means the
// request was well formed but the graph refused it, for example breaking an
// entanglement that does not exist.
type Status string

const (
	StatusOK       Status = "ok"
	StatusRejected Status = "rejected"
)

// CreateGraphRequest registers a new graph instance. Config fields left nil
// inherit the host defaults; supplied values are range-checked during
// construction, so an out-of-range override surfaces as a config error.
type CreateGraphRequest struct {
	Name                string   `json:"name" validate:"required,min=1,max=128"`
	DefaultStrength     *float64 `json:"default_strength,omitempty" validate:"omitempty,strength"`
	DecayRate           *float64 `json:"decay_rate,omitempty" validate:"omitempty,min=0"`
	AutoPropagate       *bool    `json:"auto_propagate,omitempty"`
	MaxPropagationDepth *int     `json:"max_propagation_depth,omitempty" validate:"omitempty,min=1"`
}

// Validate validates the create request
func (req *CreateGraphRequest) Validate() error {
	if req.Name == "" {
		return ErrMissingGraphName
	}
	return nil
}

// GraphConfig overlays the request's overrides onto the host defaults.
func (req *CreateGraphRequest) GraphConfig(base entangle.Config) entangle.Config {
	cfg := base
	if req.DefaultStrength != nil {
		cfg.DefaultStrength = *req.DefaultStrength
	}
	if req.DecayRate != nil {
		cfg.DecayRate = *req.DecayRate
	}
	if req.AutoPropagate != nil {
		cfg.AutoPropagate = *req.AutoPropagate
	}
	if req.MaxPropagationDepth != nil {
		cfg.MaxPropagationDepth = *req.MaxPropagationDepth
	}
	return cfg
}

// GraphResponse describes one registered graph instance.
type GraphResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Config    entangle.Config `json:"config"`
	State     entangle.State  `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
}

// EntangleRequest creates or updates one entanglement.
type EntangleRequest struct {
	Source        string   `json:"source" validate:"required,node_id"`
	Target        string   `json:"target" validate:"required,node_id"`
	Strength      *float64 `json:"strength,omitempty" validate:"omitempty,strength"`
	Bidirectional *bool    `json:"bidirectional,omitempty"`
}

// Validate validates the entangle request and applies defaults: a nil
// Bidirectional becomes true. A nil Strength stays nil so the instance
// default can apply at execution time.
func (req *EntangleRequest) Validate() error {
	if req.Source == "" {
		return ErrMissingSource
	}
	if req.Target == "" {
		return ErrMissingTarget
	}
	if req.Strength != nil && (*req.Strength < 0 || *req.Strength > 1) {
		return ErrStrengthOutOfRange
	}
	if req.Bidirectional == nil {
		bidirectional := true
		req.Bidirectional = &bidirectional
	}
	return nil
}

// StrengthOr returns the requested strength, or def when the request left it
// unset.
func (req *EntangleRequest) StrengthOr(def float64) float64 {
	if req.Strength == nil {
		return def
	}
	return *req.Strength
}

// EntangleResponse reports the applied entanglement.
type EntangleResponse struct {
	Status        Status    `json:"status"`
	Source        string    `json:"source"`
	Target        string    `json:"target"`
	Strength      float64   `json:"strength"`
	Bidirectional bool      `json:"bidirectional"`
	Timestamp     time.Time `json:"timestamp"`
}

// DisentangleRequest removes one entanglement.
type DisentangleRequest struct {
	Source        string `json:"source" validate:"required,node_id"`
	Target        string `json:"target" validate:"required,node_id"`
	Bidirectional *bool  `json:"bidirectional,omitempty"`
}

// Validate validates the disentangle request and defaults a nil
// Bidirectional to true, mirroring EntangleRequest.
func (req *DisentangleRequest) Validate() error {
	if req.Source == "" {
		return ErrMissingSource
	}
	if req.Target == "" {
		return ErrMissingTarget
	}
	if req.Bidirectional == nil {
		bidirectional := true
		req.Bidirectional = &bidirectional
	}
	return nil
}

// DisentangleResponse reports the removal.
type DisentangleResponse struct {
	Status        Status    `json:"status"`
	Source        string    `json:"source"`
	Target        string    `json:"target"`
	Bidirectional bool      `json:"bidirectional"`
	Timestamp     time.Time `json:"timestamp"`
}

// PropagateRequest pushes a payload through a node's outgoing entanglements.
// Amplify, when set, applies the built-in transform that scales numeric
// payload values by effective strength times the factor.
type PropagateRequest struct {
	Source  string   `json:"source" validate:"required,node_id"`
	Payload any      `json:"payload,omitempty"`
	Amplify *float64 `json:"amplify,omitempty" validate:"omitempty,gt=0"`
}

// Validate validates the propagate request
func (req *PropagateRequest) Validate() error {
	if req.Source == "" {
		return ErrMissingSource
	}
	if req.Amplify != nil && *req.Amplify <= 0 {
		return ErrInvalidAmplify
	}
	return nil
}

// PropagateResponse reports one propagation call. Propagated counts edges the
// entry frame processed; cascaded frames show up in Stats and observations.
type PropagateResponse struct {
	Status     Status         `json:"status"`
	Source     string         `json:"source"`
	Propagated int            `json:"propagated"`
	Stats      entangle.Stats `json:"stats"`
	Timestamp  time.Time      `json:"timestamp"`
}

// EntanglementView is one directed edge with its decay-adjusted strength
// computed at listing time.
type EntanglementView struct {
	Source            string    `json:"source"`
	Target            string    `json:"target"`
	Strength          float64   `json:"strength"`
	EffectiveStrength float64   `json:"effective_strength"`
	CreatedAt         time.Time `json:"created_at"`
}
