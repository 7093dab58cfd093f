package samples

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/tryonware/stitch/pkg/formatting"
)

// Source kinds.
const (
	KindLocal = "local"
	KindBlob  = "blob"
)

var kinds = []string{KindLocal, KindBlob}

// Config holds sample source parameters.
type Config struct {
	Kind         string   `toml:"kind"`
	Dir          string   `toml:"dir"`
	Difficulty   string   `toml:"difficulty"`
	Cohorts      []string `toml:"cohorts"`
	BatchSize    int      `toml:"batch_size"`
	MaxImageSize string   `toml:"max_image_size"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Kind         string
	Dir          string
	Difficulty   string
	Cohorts      string
	BatchSize    string
	MaxImageSize string
}

// MaxImageBytes returns MaxImageSize as a byte count.
func (c *Config) MaxImageBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxImageSize)
	if err != nil {
		return 20 * 1024 * 1024 // 20MB fallback
	}
	return size
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
	if overlay.Kind != "" {
		c.Kind = overlay.Kind
	}
	if overlay.Dir != "" {
		c.Dir = overlay.Dir
	}
	if overlay.Difficulty != "" {
		c.Difficulty = overlay.Difficulty
	}
	if len(overlay.Cohorts) > 0 {
		c.Cohorts = overlay.Cohorts
	}
	if overlay.BatchSize != 0 {
		c.BatchSize = overlay.BatchSize
	}
	if overlay.MaxImageSize != "" {
		c.MaxImageSize = overlay.MaxImageSize
	}
}

func (c *Config) loadDefaults() {
	if c.Kind == "" {
		c.Kind = KindLocal
	}
	if c.Dir == "" {
		c.Dir = "input"
	}
	if c.Difficulty == "" {
		c.Difficulty = "easy"
	}
	if len(c.Cohorts) == 0 {
		c.Cohorts = []string{"females", "males"}
	}
	if c.BatchSize == 0 {
		c.BatchSize = 100
	}
	if c.MaxImageSize == "" {
		c.MaxImageSize = "20MB"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Kind != "" {
		if v := os.Getenv(env.Kind); v != "" {
			c.Kind = v
		}
	}
	if env.Dir != "" {
		if v := os.Getenv(env.Dir); v != "" {
			c.Dir = v
		}
	}
	if env.Difficulty != "" {
		if v := os.Getenv(env.Difficulty); v != "" {
			c.Difficulty = v
		}
	}
	if env.Cohorts != "" {
		if v := os.Getenv(env.Cohorts); v != "" {
			c.Cohorts = strings.Split(v, ",")
		}
	}
	if env.BatchSize != "" {
		if v := os.Getenv(env.BatchSize); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.BatchSize = n
			}
		}
	}
	if env.MaxImageSize != "" {
		if v := os.Getenv(env.MaxImageSize); v != "" {
			c.MaxImageSize = v
		}
	}
}

func (c *Config) validate() error {
	if !slices.Contains(kinds, c.Kind) {
		return fmt.Errorf("invalid source kind: %q", c.Kind)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("invalid batch_size: %d", c.BatchSize)
	}
	if _, err := formatting.ParseBytes(c.MaxImageSize); err != nil {
		return fmt.Errorf("invalid max_image_size: %w", err)
	}
	return nil
}
