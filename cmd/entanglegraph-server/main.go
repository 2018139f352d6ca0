// Command entanglegraph-server hosts the entanglement graph HTTP API.
//
// Configuration is resolved in order: built-in defaults, the optional YAML
// file passed via -config, ENTANGLEGRAPH_* environment variables, then any
// explicit flags below.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/entanglegraph/entanglegraph/internal/config"
	"github.com/entanglegraph/entanglegraph/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to YAML configuration")
	listen := flag.String("listen", "", "listen address override")
	logLevel := flag.String("log-level", "", "log level override: debug, info, warn or error")
	logFormat := flag.String("log-format", "", "log format override: text or json")
	pprof := flag.Bool("pprof", false, "expose /debug/pprof")
	workload := flag.Bool("workload", false, "start the synthetic workload")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Only flags that were actually passed override the loaded config.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.Listen = *listen
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		case "pprof":
			cfg.EnablePprof = *pprof
		case "workload":
			cfg.Workload.Enabled = *workload
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("starting entanglegraph server",
		"listen", cfg.Listen,
		"log_level", cfg.LogLevel,
		"pprof", cfg.EnablePprof,
		"workload", cfg.Workload.Enabled,
	)

	srv, err := server.New(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case sig := <-shutdownChan:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-errChan:
		log.Fatalf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown incomplete", "error", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger. Unknown levels fall back to info and
// unknown formats to text, so a typo cannot leave the server silent.
func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
