package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvLoopMaxIterations      = "STITCH_LOOP_MAX_ITERATIONS"
	EnvLoopDefaultInstruction = "STITCH_LOOP_DEFAULT_INSTRUCTION"
	EnvLoopSampleSeed         = "STITCH_LOOP_SAMPLE_SEED"
	EnvLoopWorkers            = "STITCH_LOOP_WORKERS"
)

// LoopConfig holds feedback-loop parameters.
type LoopConfig struct {
	// MaxIterations caps generate+evaluate cycles per pair.
	MaxIterations int `toml:"max_iterations"`
	// DefaultInstruction overrides the sampled attempt-1 instruction.
	// Empty selects keyword sampling.
	DefaultInstruction string `toml:"default_instruction"`
	// SampleSeed seeds the instruction sampler for reproducible runs.
	SampleSeed uint64 `toml:"sample_seed"`
	// Workers sets the pair-level worker pool size. 1 processes pairs
	// sequentially.
	Workers int `toml:"workers"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *LoopConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *LoopConfig) Merge(overlay *LoopConfig) {
	if overlay.MaxIterations != 0 {
		c.MaxIterations = overlay.MaxIterations
	}
	if overlay.DefaultInstruction != "" {
		c.DefaultInstruction = overlay.DefaultInstruction
	}
	if overlay.SampleSeed != 0 {
		c.SampleSeed = overlay.SampleSeed
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
}

func (c *LoopConfig) loadDefaults() {
	if c.MaxIterations == 0 {
		c.MaxIterations = 4
	}
	if c.SampleSeed == 0 {
		c.SampleSeed = 1
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
}

func (c *LoopConfig) loadEnv() {
	if v := os.Getenv(EnvLoopMaxIterations); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxIterations = n
		}
	}
	if v := os.Getenv(EnvLoopDefaultInstruction); v != "" {
		c.DefaultInstruction = v
	}
	if v := os.Getenv(EnvLoopSampleSeed); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
			c.SampleSeed = n
		}
	}
	if v := os.Getenv(EnvLoopWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Workers = n
		}
	}
}

func (c *LoopConfig) validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("invalid max_iterations: %d", c.MaxIterations)
	}
	if c.Workers < 1 {
		return fmt.Errorf("invalid workers: %d", c.Workers)
	}
	return nil
}
