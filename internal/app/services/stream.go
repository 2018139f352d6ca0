package services

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/entanglegraph/entanglegraph/internal/core/entangle"
	inframetrics "github.com/entanglegraph/entanglegraph/internal/infrastructure/metrics"
	"github.com/entanglegraph/entanglegraph/pkg/metrics"
)

// Event is one observation as seen by stream consumers, tagged with the
// emitting graph so multi-instance hosts can filter.
type Event struct {
	Graph       string
	Observation entangle.Observation
}

// ObservationHandler consumes events on the dispatch goroutine. Handlers run
// sequentially in registration order; a slow handler delays the ones behind
// it, never the graph operation that emitted the event.
type ObservationHandler interface {
	HandleObservation(e Event) error
}

// HandlerFunc adapts a function to ObservationHandler.
type HandlerFunc func(e Event) error

func (f HandlerFunc) HandleObservation(e Event) error { return f(e) }

// StreamService fans graph observations out to registered handlers through a
// bounded buffer. Publish never blocks: when the buffer is full, or the
// service has been stopped, the event is dropped and counted rather than
// stalling the operation that produced it.
type StreamService struct {
	mu       sync.RWMutex
	handlers []ObservationHandler
	events   chan Event
	ctx      context.Context
	cancel   context.CancelFunc
	running  bool
	stopped  bool
	dropped  atomic.Int64
	done     chan struct{}
}

// NewStreamService creates a stream with the given buffer size; sizes below
// one fall back to 1000.
func NewStreamService(buffer int) *StreamService {
	if buffer <= 0 {
		buffer = 1000
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &StreamService{
		handlers: make([]ObservationHandler, 0),
		events:   make(chan Event, buffer),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// AddHandler registers a handler. Registration is allowed while running;
// the handler sees only events dispatched after it was added.
func (s *StreamService) AddHandler(h ObservationHandler) {
	if h == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

// Start launches the dispatch goroutine. Starting twice is a no-op.
func (s *StreamService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.stopped {
		return
	}
	s.running = true

	go func() {
		defer close(s.done)
		for {
			select {
			case e := <-s.events:
				s.dispatch(e)
			case <-s.ctx.Done():
				// Drain what was already buffered before the stop.
				for {
					select {
					case e := <-s.events:
						s.dispatch(e)
					default:
						return
					}
				}
			}
		}
	}()
}

// Stop shuts the dispatch goroutine down after draining the buffer. Events
// published afterwards are dropped. Stop blocks until the drain completes.
func (s *StreamService) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	wasRunning := s.running
	s.mu.Unlock()

	s.cancel()
	if wasRunning {
		<-s.done
	}
}

// Publish queues an event for dispatch. Events may be published before
// Start; they wait in the buffer until the dispatcher comes up.
func (s *StreamService) Publish(e Event) {
	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		s.drop()
		return
	}
	select {
	case s.events <- e:
	default:
		s.drop()
	}
}

// Observer returns a core observer bound to graph, for wiring an instance
// into the stream at creation time.
func (s *StreamService) Observer(graph string) entangle.Observer {
	return func(o entangle.Observation) {
		s.Publish(Event{Graph: graph, Observation: o})
	}
}

// Dropped reports how many events were discarded because of a full buffer
// or a stopped stream.
func (s *StreamService) Dropped() int64 {
	return s.dropped.Load()
}

func (s *StreamService) drop() {
	s.dropped.Add(1)
	inframetrics.AddStreamDropped(1)
	metrics.StreamDroppedTotal.Inc()
}

func (s *StreamService) dispatch(e Event) {
	s.mu.RLock()
	handlers := s.handlers
	s.mu.RUnlock()
	for _, h := range handlers {
		_ = h.HandleObservation(e)
	}
}
