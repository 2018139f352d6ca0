package dto

import "errors"

// Request validation errors
var (
	ErrMissingGraphName   = errors.New("graph name is required")
	ErrMissingSource      = errors.New("source node id is required")
	ErrMissingTarget      = errors.New("target node id is required")
	ErrStrengthOutOfRange = errors.New("strength must be within [0, 1]")
	ErrInvalidAmplify     = errors.New("amplify factor must be positive")
	ErrInvalidKind        = errors.New("unknown observation kind")
	ErrInvalidLimit       = errors.New("limit must be within [0, 1000]")
	ErrInvalidTopN        = errors.New("top must be within [0, 100]")
)
