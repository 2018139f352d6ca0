// Package registry hosts named graph instances behind stable UUID handles.
package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/entanglegraph/entanglegraph/internal/core/entangle"
)

// Instance is one hosted graph. The core graph is single-threaded, so every
// access goes through With, which holds the instance mutex for the duration
// of the callback. ID, Name and CreatedAt are fixed at creation.
type Instance struct {
	ID        string
	Name      string
	CreatedAt time.Time

	mu    sync.Mutex
	graph *entangle.Graph
}

// With runs fn while holding the instance mutex, giving the core graph the
// single logical thread it requires. Callers capture results through the
// closure. fn must not retain the graph past the call.
func (i *Instance) With(fn func(g *entangle.Graph)) {
	i.mu.Lock()
	defer i.mu.Unlock()
	fn(i.graph)
}

// Registry provides in-memory instance storage
// PRINCIPLES:
// - KISS: Simple map-based storage
// - SRP: Only responsible for instance lifecycle, not graph semantics
// - Thread-safe
type Registry struct {
	mu        sync.RWMutex
	instances map[string]*Instance
	order     []string // creation order, for stable listing
}

func NewRegistry() *Registry {
	return &Registry{
		instances: make(map[string]*Instance),
	}
}

// Create constructs a graph from cfg and registers it under a fresh UUID.
func (r *Registry) Create(name string, cfg entangle.Config) (*Instance, error) {
	g, err := entangle.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid graph config: %w", err)
	}

	inst := &Instance{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now(),
		graph:     g,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[inst.ID] = inst
	r.order = append(r.order, inst.ID)
	return inst, nil
}

// Get returns the instance for id.
func (r *Registry) Get(id string) (*Instance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[id]
	if !ok {
		return nil, ErrInstanceNotFound
	}
	return inst, nil
}

// Delete removes the instance for id. The instance stays usable by holders
// of the pointer; it only stops being discoverable.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[id]; !ok {
		return ErrInstanceNotFound
	}
	delete(r.instances, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns all instances in creation order.
func (r *Registry) List() []*Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Instance, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.instances[id])
	}
	return out
}

// Len returns the number of registered instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}
