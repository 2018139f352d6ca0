package server

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/entanglegraph/entanglegraph/internal/app/dto"
	"github.com/entanglegraph/entanglegraph/internal/app/usecases"
	"github.com/entanglegraph/entanglegraph/internal/config"
	"github.com/entanglegraph/entanglegraph/pkg/prebuilt"
)

// Workload drives a synthetic entangle/disentangle/propagate mix against a
// dedicated graph instance so metrics and the stream have data without
// external traffic. At most one workload runs per server.
type Workload struct {
	graphs *usecases.GraphService
	logger *slog.Logger

	defaultInterval time.Duration
	defaultNodes    int

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	graphID string
}

// NewWorkload wires a workload around the graph service. cfg supplies the
// defaults used when Start is called with zero values.
func NewWorkload(graphs *usecases.GraphService, logger *slog.Logger, cfg config.WorkloadConfig) *Workload {
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.Interval.Std()
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	nodes := cfg.Nodes
	if nodes < 2 {
		nodes = 8
	}
	return &Workload{
		graphs:          graphs,
		logger:          logger,
		defaultInterval: interval,
		defaultNodes:    nodes,
	}
}

// Start creates the workload graph and launches the generator. Zero interval
// or nodes fall back to the configured defaults. Returns ErrWorkloadRunning
// when a generator is already active.
func (w *Workload) Start(interval time.Duration, nodes int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return ErrWorkloadRunning
	}
	if interval <= 0 {
		interval = w.defaultInterval
	}
	if nodes < 2 {
		nodes = w.defaultNodes
	}

	resp, err := w.graphs.CreateGraph(&dto.CreateGraphRequest{Name: "synthetic-workload"})
	if err != nil {
		return fmt.Errorf("create workload graph: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w.cancel = cancel
	w.done = done
	w.graphID = resp.ID

	go w.run(ctx, done, resp.ID, interval, nodes)

	w.logger.Info("synthetic workload started",
		"graph", resp.ID, "interval", interval.String(), "nodes", nodes)
	return nil
}

// Stop cancels the generator, waits for it to exit and drops the workload
// graph. Stopping a stopped workload is a no-op.
func (w *Workload) Stop() {
	w.mu.Lock()
	cancel, done, graphID := w.cancel, w.done, w.graphID
	w.cancel, w.done, w.graphID = nil, nil, ""
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	if err := w.graphs.DeleteGraph(graphID); err != nil {
		w.logger.Warn("failed to drop workload graph", "graph", graphID, "error", err)
	}
	w.logger.Info("synthetic workload stopped", "graph", graphID)
}

// Running reports whether a generator is active.
func (w *Workload) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancel != nil
}

func (w *Workload) run(ctx context.Context, done chan struct{}, graphID string, interval time.Duration, nodes int) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ids := make([]string, nodes)
	for i := range ids {
		ids[i] = fmt.Sprintf("load_%d", i)
	}

	// Seed a topology so propagations have paths to follow from the first
	// tick instead of waiting for random entangles to connect the nodes.
	seed := prebuilt.EntangleFunc(func(source, target string, strength float64, bidirectional bool) bool {
		_, err := w.graphs.Entangle(graphID, &dto.EntangleRequest{
			Source:        source,
			Target:        target,
			Strength:      &strength,
			Bidirectional: &bidirectional,
		})
		return err == nil
	})
	topology := prebuilt.Ring
	if len(ids) < 3 {
		topology = prebuilt.Chain
	}
	if _, err := topology(seed, ids); err != nil {
		w.logger.Warn("failed to seed workload topology", "graph", graphID, "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			source := ids[rng.Intn(len(ids))]
			target := ids[rng.Intn(len(ids))]
			if source == target {
				continue
			}

			var err error
			// Entangling twice as often as the rest keeps the graph dense
			// enough for propagations to cascade.
			switch rng.Intn(4) {
			case 0, 1:
				strength := rng.Float64()
				_, err = w.graphs.Entangle(graphID, &dto.EntangleRequest{
					Source:   source,
					Target:   target,
					Strength: &strength,
				})
			case 2:
				_, err = w.graphs.Disentangle(graphID, &dto.DisentangleRequest{
					Source: source,
					Target: target,
				})
			default:
				_, err = w.graphs.Propagate(graphID, &dto.PropagateRequest{
					Source:  source,
					Payload: rng.Float64(),
				})
			}
			if err != nil {
				// The graph may have been deleted out from under us.
				w.logger.Debug("workload operation failed", "graph", graphID, "error", err)
			}
		}
	}
}
