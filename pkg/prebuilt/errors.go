package prebuilt

import "errors"

// Topology construction errors
var (
	ErrTooFewNodes     = errors.New("too few nodes for topology")
	ErrDuplicateNode   = errors.New("duplicate node id")
	ErrEmptyNodeID     = errors.New("node id is empty")
	ErrInvalidStrength = errors.New("strength must be within [0, 1]")
	ErrUnknownTopology = errors.New("unknown topology kind")
)
