// Package config loads server configuration. Precedence, lowest to highest:
// built-in defaults, an optional YAML file, ENTANGLEGRAPH_* environment
// variables. A .env file in the working directory is honored when present.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/entanglegraph/entanglegraph/internal/core/entangle"
)

// Duration wraps time.Duration so YAML files can use human-readable forms
// such as "250ms" or "1h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// GraphDefaults is the entangle.Config applied to newly created instances.
type GraphDefaults struct {
	DefaultStrength     float64 `yaml:"default_strength"`
	DecayRate           float64 `yaml:"decay_rate"`
	AutoPropagate       bool    `yaml:"auto_propagate"`
	MaxPropagationDepth int     `yaml:"max_propagation_depth"`
}

// CoreConfig converts the defaults into a core graph configuration.
func (g GraphDefaults) CoreConfig() entangle.Config {
	return entangle.Config{
		DefaultStrength:     g.DefaultStrength,
		DecayRate:           g.DecayRate,
		AutoPropagate:       g.AutoPropagate,
		MaxPropagationDepth: g.MaxPropagationDepth,
	}
}

// JournalConfig bounds the observation journal.
type JournalConfig struct {
	Capacity      int      `yaml:"capacity"`
	TTL           Duration `yaml:"ttl"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

// StreamConfig sizes the observation stream.
type StreamConfig struct {
	Buffer int `yaml:"buffer"`
}

// WorkloadConfig drives the optional synthetic load generator.
type WorkloadConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Interval Duration `yaml:"interval"`
	Nodes    int      `yaml:"nodes"`
}

// Config holds all configuration for the entanglegraph server.
type Config struct {
	Listen      string `yaml:"listen"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	APIKey      string `yaml:"api_key"`
	EnablePprof bool   `yaml:"enable_pprof"`
	// ExportKey is a hex-encoded AES-256 key. When set, journal exports are
	// encrypted; when empty they are written plaintext.
	ExportKey string `yaml:"export_key"`

	Graph    GraphDefaults  `yaml:"graph"`
	Journal  JournalConfig  `yaml:"journal"`
	Stream   StreamConfig   `yaml:"stream"`
	Workload WorkloadConfig `yaml:"workload"`
}

// Default returns a working local configuration.
func Default() Config {
	core := entangle.DefaultConfig()
	return Config{
		Listen:    ":8080",
		LogLevel:  "info",
		LogFormat: "text",
		Graph: GraphDefaults{
			DefaultStrength:     core.DefaultStrength,
			DecayRate:           core.DecayRate,
			AutoPropagate:       core.AutoPropagate,
			MaxPropagationDepth: core.MaxPropagationDepth,
		},
		Journal: JournalConfig{
			Capacity:      1024,
			TTL:           0, // keep until evicted
			SweepInterval: Duration(time.Minute),
		},
		Stream: StreamConfig{
			Buffer: 1000,
		},
		Workload: WorkloadConfig{
			Enabled:  false,
			Interval: Duration(250 * time.Millisecond),
			Nodes:    8,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and the environment, then validates the result.
func Load(path string) (Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to open config: %w", err)
		}
		defer file.Close()

		// Strict decoding surfaces typos instead of silently ignoring them.
		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnv overlays ENTANGLEGRAPH_* environment variables onto the config.
func (c *Config) applyEnv() {
	c.Listen = getEnvWithDefault("ENTANGLEGRAPH_LISTEN", c.Listen)
	c.LogLevel = getEnvWithDefault("ENTANGLEGRAPH_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvWithDefault("ENTANGLEGRAPH_LOG_FORMAT", c.LogFormat)
	c.APIKey = getEnvWithDefault("ENTANGLEGRAPH_API_KEY", c.APIKey)
	c.EnablePprof = getEnvAsBool("ENTANGLEGRAPH_PPROF", c.EnablePprof)
	c.ExportKey = getEnvWithDefault("ENTANGLEGRAPH_EXPORT_KEY", c.ExportKey)

	c.Graph.DefaultStrength = getEnvAsFloat("ENTANGLEGRAPH_DEFAULT_STRENGTH", c.Graph.DefaultStrength)
	c.Graph.DecayRate = getEnvAsFloat("ENTANGLEGRAPH_DECAY_RATE", c.Graph.DecayRate)
	c.Graph.AutoPropagate = getEnvAsBool("ENTANGLEGRAPH_AUTO_PROPAGATE", c.Graph.AutoPropagate)
	c.Graph.MaxPropagationDepth = getEnvAsInt("ENTANGLEGRAPH_MAX_DEPTH", c.Graph.MaxPropagationDepth)

	c.Journal.Capacity = getEnvAsInt("ENTANGLEGRAPH_JOURNAL_CAPACITY", c.Journal.Capacity)
	c.Journal.TTL = Duration(getEnvAsDuration("ENTANGLEGRAPH_JOURNAL_TTL", c.Journal.TTL.Std()))
	c.Journal.SweepInterval = Duration(getEnvAsDuration("ENTANGLEGRAPH_JOURNAL_SWEEP", c.Journal.SweepInterval.Std()))
	c.Stream.Buffer = getEnvAsInt("ENTANGLEGRAPH_STREAM_BUFFER", c.Stream.Buffer)

	c.Workload.Enabled = getEnvAsBool("ENTANGLEGRAPH_WORKLOAD", c.Workload.Enabled)
	c.Workload.Interval = Duration(getEnvAsDuration("ENTANGLEGRAPH_WORKLOAD_INTERVAL", c.Workload.Interval.Std()))
	c.Workload.Nodes = getEnvAsInt("ENTANGLEGRAPH_WORKLOAD_NODES", c.Workload.Nodes)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return ErrMissingListen
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidLogLevel, c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidLogFormat, c.LogFormat)
	}

	if err := c.Graph.CoreConfig().Validate(); err != nil {
		return fmt.Errorf("graph defaults: %w", err)
	}

	if c.Journal.Capacity <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidJournalCapacity, c.Journal.Capacity)
	}
	if c.Journal.TTL < 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidJournalTTL, c.Journal.TTL)
	}
	if c.Stream.Buffer <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidStreamBuffer, c.Stream.Buffer)
	}

	if c.Workload.Enabled {
		if c.Workload.Interval <= 0 {
			return fmt.Errorf("%w: got %s", ErrInvalidWorkloadInterval, c.Workload.Interval)
		}
		if c.Workload.Nodes < 2 {
			return fmt.Errorf("%w: got %d", ErrInvalidWorkloadNodes, c.Workload.Nodes)
		}
	}

	if _, err := c.ExportKeyBytes(); err != nil {
		return err
	}

	return nil
}

// ExportKeyBytes decodes the hex export key. An empty key returns nil and
// means journal exports are written unencrypted.
func (c *Config) ExportKeyBytes() ([]byte, error) {
	if c.ExportKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.ExportKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExportKey, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: must decode to 32 bytes, got %d", ErrInvalidExportKey, len(key))
	}
	return key, nil
}

// Helper functions for environment variable parsing

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
