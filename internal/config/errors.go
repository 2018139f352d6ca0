package config

import "errors"

// Configuration validation errors.
var (
	ErrMissingListen           = errors.New("listen address is required")
	ErrInvalidLogLevel         = errors.New("log level must be one of debug, info, warn, error")
	ErrInvalidLogFormat        = errors.New("log format must be text or json")
	ErrInvalidJournalCapacity  = errors.New("journal capacity must be positive")
	ErrInvalidJournalTTL       = errors.New("journal ttl must not be negative")
	ErrInvalidStreamBuffer     = errors.New("stream buffer must be positive")
	ErrInvalidWorkloadInterval = errors.New("workload interval must be positive")
	ErrInvalidWorkloadNodes    = errors.New("workload needs at least two nodes")
	ErrInvalidExportKey        = errors.New("export key is not a valid hex-encoded AES-256 key")
)
