// Package server hosts the entanglement graph over HTTP: a gin API around
// the graph service, a websocket observation stream, prometheus and expvar
// surfaces, and an optional synthetic workload for exercising metrics.
package server

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof handlers on the default mux
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/entanglegraph/entanglegraph/internal/adapters/journal"
	"github.com/entanglegraph/entanglegraph/internal/adapters/registry"
	"github.com/entanglegraph/entanglegraph/internal/app/services"
	"github.com/entanglegraph/entanglegraph/internal/app/usecases"
	"github.com/entanglegraph/entanglegraph/internal/config"
	"github.com/entanglegraph/entanglegraph/pkg/serialization"
)

// Server owns the HTTP host and every collaborator behind it. Observations
// flow graph → stream → {log, metrics, journal, hub} without the handlers
// being involved.
type Server struct {
	cfg    config.Config
	logger *slog.Logger

	registry *registry.Registry
	journal  *journal.Journal
	stream   *services.StreamService
	hub      *Hub
	workload *Workload
	graphs   *usecases.GraphService

	engine     *gin.Engine
	httpServer *http.Server
}

// New assembles the full host from cfg: journal (msgpack+zstd exports,
// AES-GCM when an export key is configured), registry, stream pipeline with
// its built-in handlers, websocket hub and router.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	exportKey, err := cfg.ExportKeyBytes()
	if err != nil {
		return nil, err
	}
	serializer := serialization.NewSerializer(serialization.Config{
		Codec:       serialization.NewMsgPackCodec(),
		Compression: serialization.CompressionZstd,
		EncryptKey:  exportKey,
	})

	jrnl, err := journal.New(journal.Config{
		Capacity:      cfg.Journal.Capacity,
		TTL:           cfg.Journal.TTL.Std(),
		SweepInterval: cfg.Journal.SweepInterval.Std(),
		Serializer:    serializer,
	})
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	reg := registry.NewRegistry()
	stream := services.NewStreamService(cfg.Stream.Buffer)
	hub := NewHub(logger)

	// Handler order matters: the journal must have recorded an event before
	// the hub pushes it to clients that may immediately query the journal.
	stream.AddHandler(services.SlogHandler{Logger: logger})
	stream.AddHandler(services.MetricsHandler{})
	stream.AddHandler(services.HandlerFunc(func(e services.Event) error {
		jrnl.Record(e.Graph, e.Observation)
		return nil
	}))
	stream.AddHandler(hub)

	graphs := usecases.NewGraphService(reg, stream, jrnl, services.NewAnalyticsService(), cfg.Graph.CoreConfig())

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		journal:  jrnl,
		stream:   stream,
		hub:      hub,
		workload: NewWorkload(graphs, logger, cfg.Workload),
		graphs:   graphs,
	}
	s.engine = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) buildRouter() *gin.Engine {
	r := gin.New()

	// Recovery must be outer-most so it also covers the logging middleware.
	r.Use(s.recoveryMiddleware(), s.loggingMiddleware())

	r.GET("/healthz", s.handleHealthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/debug/vars", gin.WrapH(expvar.Handler()))
	if s.cfg.EnablePprof {
		// net/http/pprof registers on the default mux at import time.
		r.GET("/debug/pprof/*profile", gin.WrapH(http.DefaultServeMux))
	}

	api := r.Group("/api/v1")
	if s.cfg.APIKey != "" {
		api.Use(s.authMiddleware())
	}

	api.POST("/graphs", s.handleCreateGraph)
	api.GET("/graphs", s.handleListGraphs)
	api.GET("/graphs/:id", s.handleGetGraph)
	api.DELETE("/graphs/:id", s.handleDeleteGraph)
	api.POST("/graphs/:id/entangle", s.handleEntangle)
	api.POST("/graphs/:id/disentangle", s.handleDisentangle)
	api.POST("/graphs/:id/propagate", s.handlePropagate)
	api.GET("/graphs/:id/entanglements", s.handleEntanglements)
	api.GET("/graphs/:id/state", s.handleState)
	api.GET("/graphs/:id/analytics", s.handleAnalytics)
	api.GET("/graphs/:id/journal", s.handleJournal)
	api.GET("/graphs/:id/journal/export", s.handleJournalExport)

	api.GET("/journal", s.handleJournalAll)
	api.GET("/journal/export", s.handleJournalExport)
	api.POST("/journal/import", s.handleJournalImport)

	api.GET("/stream", s.hub.ServeWS)

	api.POST("/workload/start", s.handleWorkloadStart)
	api.POST("/workload/stop", s.handleWorkloadStop)

	return r
}

// Router exposes the configured handler, for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.engine
}

// Start brings up the background collaborators without binding a listener.
// Run calls it; tests that drive the router directly call it themselves.
func (s *Server) Start() {
	go s.hub.Run()
	s.stream.Start()

	if s.cfg.Workload.Enabled {
		if err := s.workload.Start(s.cfg.Workload.Interval.Std(), s.cfg.Workload.Nodes); err != nil {
			s.logger.Warn("synthetic workload failed to start", "error", err)
		}
	}
}

// Run starts the collaborators and the HTTP listener. It blocks until the
// listener stops; a graceful Shutdown does not count as an error.
func (s *Server) Run() error {
	s.Start()

	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops the listener, then tears the collaborators down in reverse
// dependency order: workload first so it stops producing, stream drained
// before the journal closes so nothing records after Close.
func (s *Server) Shutdown(ctx context.Context) error {
	s.workload.Stop()

	err := s.httpServer.Shutdown(ctx)

	s.hub.Stop()
	s.stream.Stop()
	s.journal.Close()

	s.logger.Info("server stopped")
	return err
}
