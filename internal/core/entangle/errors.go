// Package entangle defines domain-specific errors
package entangle

import "errors"

// Domain errors - DRY principle: defined once, used everywhere
var (
	// Configuration errors
	ErrInvalidDefaultStrength = errors.New("default strength must be within [0, 1]")
	ErrInvalidDecayRate       = errors.New("decay rate cannot be negative")
	ErrInvalidMaxDepth        = errors.New("max propagation depth must be at least 1")

	// Propagation errors
	ErrTransformPanic = errors.New("transform panicked")
)
