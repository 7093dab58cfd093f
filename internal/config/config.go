package config

import (
	"fmt"
	"os"
	"time"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
	"github.com/pelletier/go-toml/v2"

	"github.com/tryonware/stitch/internal/generate"
	"github.com/tryonware/stitch/internal/samples"
	"github.com/tryonware/stitch/internal/sink"
	"github.com/tryonware/stitch/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvStitchEnv             = "STITCH_ENV"
	EnvStitchShutdownTimeout = "STITCH_SHUTDOWN_TIMEOUT"
	EnvStitchVersion         = "STITCH_VERSION"
)

var storageEnv = &storage.Env{
	ContainerName:    "STITCH_STORAGE_CONTAINER_NAME",
	ConnectionString: "STITCH_STORAGE_CONNECTION_STRING",
	MaxListSize:      "STITCH_STORAGE_MAX_LIST_SIZE",
}

var sourceEnv = &samples.Env{
	Kind:         "STITCH_SOURCE_KIND",
	Dir:          "STITCH_SOURCE_DIR",
	Difficulty:   "STITCH_SOURCE_DIFFICULTY",
	Cohorts:      "STITCH_SOURCE_COHORTS",
	BatchSize:    "STITCH_SOURCE_BATCH_SIZE",
	MaxImageSize: "STITCH_SOURCE_MAX_IMAGE_SIZE",
}

var sinkEnv = &sink.Env{
	Kind:   "STITCH_SINK_KIND",
	Dir:    "STITCH_SINK_DIR",
	Prefix: "STITCH_SINK_PREFIX",
}

var generatorEnv = &generate.Env{
	Endpoint: "STITCH_GENERATOR_ENDPOINT",
	Model:    "STITCH_GENERATOR_MODEL",
	Token:    "STITCH_GENERATOR_TOKEN",
	Timeout:  "STITCH_GENERATOR_TIMEOUT",
}

// Config is the root configuration for a stitch batch run.
type Config struct {
	Loop            LoopConfig           `toml:"loop"`
	Source          samples.Config       `toml:"source"`
	Sink            sink.Config          `toml:"sink"`
	Storage         storage.Config       `toml:"storage"`
	Generator       generate.Config      `toml:"generator"`
	Agent           gaconfig.AgentConfig `toml:"agent"`
	ShutdownTimeout string               `toml:"shutdown_timeout"`
	Version         string               `toml:"version"`
}

// Env returns the STITCH_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvStitchEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// NeedsStorage reports whether any configured subsystem requires the blob
// store. Storage config is only validated when something will touch it.
func (c *Config) NeedsStorage() bool {
	return c.Source.Kind == samples.KindBlob || c.Sink.Kind == sink.KindBlob
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Loop.Merge(&overlay.Loop)
	c.Source.Merge(&overlay.Source)
	c.Sink.Merge(&overlay.Sink)
	c.Storage.Merge(&overlay.Storage)
	c.Generator.Merge(&overlay.Generator)
	c.Agent.Merge(&overlay.Agent)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Loop.Finalize(); err != nil {
		return fmt.Errorf("loop: %w", err)
	}
	if err := c.Source.Finalize(sourceEnv); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := c.Sink.Finalize(sinkEnv); err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	if err := c.Generator.Finalize(generatorEnv); err != nil {
		return fmt.Errorf("generator: %w", err)
	}
	if err := FinalizeAgent(&c.Agent); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if c.NeedsStorage() {
		if err := c.Storage.Finalize(storageEnv); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvStitchShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvStitchVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

// FinalizeStorage finalizes the storage section on demand. Command-line
// flags can flip the source to blob after Load, in which case the storage
// section was skipped during the initial finalize.
func FinalizeStorage(c *Config) error {
	return c.Storage.Finalize(storageEnv)
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvStitchEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
