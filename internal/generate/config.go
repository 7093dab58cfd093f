package generate

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds generation endpoint parameters. Sampling defaults follow the
// Flux Klein distilled settings: few steps, neutral guidance, fixed seed for
// reproducible dataset generation.
type Config struct {
	Endpoint string  `toml:"endpoint"`
	Model    string  `toml:"model"`
	Token    string  `toml:"token"`
	Steps    int     `toml:"steps"`
	Guidance float64 `toml:"guidance"`
	Seed     int64   `toml:"seed"`
	Size     int     `toml:"size"`
	Timeout  string  `toml:"timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Endpoint string
	Model    string
	Token    string
	Timeout  string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.Token != "" {
		c.Token = overlay.Token
	}
	if overlay.Steps != 0 {
		c.Steps = overlay.Steps
	}
	if overlay.Guidance != 0 {
		c.Guidance = overlay.Guidance
	}
	if overlay.Seed != 0 {
		c.Seed = overlay.Seed
	}
	if overlay.Size != 0 {
		c.Size = overlay.Size
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *Config) loadDefaults() {
	if c.Model == "" {
		c.Model = "flux.2-klein-9b"
	}
	if c.Steps == 0 {
		c.Steps = 4
	}
	if c.Guidance == 0 {
		c.Guidance = 1.0
	}
	if c.Size == 0 {
		c.Size = 1024
	}
	if c.Timeout == "" {
		c.Timeout = "5m"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Endpoint != "" {
		if v := os.Getenv(env.Endpoint); v != "" {
			c.Endpoint = v
		}
	}
	if env.Model != "" {
		if v := os.Getenv(env.Model); v != "" {
			c.Model = v
		}
	}
	if env.Token != "" {
		if v := os.Getenv(env.Token); v != "" {
			c.Token = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
}

func (c *Config) validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint required")
	}
	if c.Steps < 1 {
		return fmt.Errorf("invalid steps: %d", c.Steps)
	}
	if c.Size < 16 {
		return fmt.Errorf("invalid size: %s", strconv.Itoa(c.Size))
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
