package journal

import "errors"

var (
	ErrInvalidCapacity = errors.New("journal capacity must be positive")
	ErrInvalidTTL      = errors.New("journal TTL cannot be negative")
	ErrSnapshotVersion = errors.New("unsupported journal snapshot version")
)
