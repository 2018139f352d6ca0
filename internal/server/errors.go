package server

import "errors"

var ErrWorkloadRunning = errors.New("synthetic workload already running")
