package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tryonware/stitch/internal/config"
	"github.com/tryonware/stitch/internal/samples"
	"github.com/tryonware/stitch/internal/sink"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[loop]
max_iterations = 4
sample_seed = 11
workers = 2

[source]
kind = "local"
dir = "input"
difficulty = "easy"
cohorts = ["females", "males"]
batch_size = 50
max_image_size = "20MB"

[sink]
kind = "local"
dir = "output"

[generator]
endpoint = "http://localhost:9090/generate"
model = "flux.2-klein-9b"

[agent]
name = "test-evaluator"

[agent.provider]
name = "ollama"
base_url = "http://localhost:11434"

[agent.model]
name = "qwen2.5vl:7b"
`

const overlayConfig = `
[loop]
max_iterations = 2

[source]
batch_size = 5
`

// minimalConfig provides only the fields validation requires: the generator
// endpoint. Everything else fills in from defaults.
const minimalConfig = `
[generator]
endpoint = "http://localhost:9090/generate"

[agent.provider]
name = "ollama"
base_url = "http://localhost:11434"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(orig); err != nil {
			t.Errorf("restore cwd: %v", err)
		}
	})
}

func TestLoadBase(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Loop.MaxIterations != 4 {
		t.Errorf("MaxIterations = %d, want 4", cfg.Loop.MaxIterations)
	}
	if cfg.Loop.SampleSeed != 11 {
		t.Errorf("SampleSeed = %d, want 11", cfg.Loop.SampleSeed)
	}
	if cfg.Source.BatchSize != 50 {
		t.Errorf("BatchSize = %d, want 50", cfg.Source.BatchSize)
	}
	if cfg.Generator.Endpoint != "http://localhost:9090/generate" {
		t.Errorf("Endpoint = %q", cfg.Generator.Endpoint)
	}
	if cfg.ShutdownTimeoutDuration() != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 30s", cfg.ShutdownTimeoutDuration())
	}
	if cfg.NeedsStorage() {
		t.Error("NeedsStorage = true for all-local config")
	}
	if cfg.Agent.Name != "test-evaluator" {
		t.Errorf("Agent.Name = %q, want test-evaluator", cfg.Agent.Name)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, minimalConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Loop.MaxIterations != 4 {
		t.Errorf("MaxIterations default = %d, want 4", cfg.Loop.MaxIterations)
	}
	if cfg.Loop.Workers != 1 {
		t.Errorf("Workers default = %d, want 1", cfg.Loop.Workers)
	}
	if cfg.Source.Kind != samples.KindLocal {
		t.Errorf("Source.Kind default = %q, want local", cfg.Source.Kind)
	}
	if cfg.Source.BatchSize != 100 {
		t.Errorf("BatchSize default = %d, want 100", cfg.Source.BatchSize)
	}
	if len(cfg.Source.Cohorts) != 2 {
		t.Errorf("Cohorts default = %v", cfg.Source.Cohorts)
	}
	if cfg.Sink.Kind != sink.KindLocal {
		t.Errorf("Sink.Kind default = %q, want local", cfg.Sink.Kind)
	}
	if cfg.Generator.Steps != 4 {
		t.Errorf("Steps default = %d, want 4", cfg.Generator.Steps)
	}
	if cfg.Generator.Guidance != 1.0 {
		t.Errorf("Guidance default = %v, want 1.0", cfg.Generator.Guidance)
	}
	if cfg.ShutdownTimeout != "30s" {
		t.Errorf("ShutdownTimeout default = %q, want 30s", cfg.ShutdownTimeout)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	writeConfig(t, dir, "config.test.toml", overlayConfig)
	chdir(t, dir)
	t.Setenv(config.EnvStitchEnv, "test")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Loop.MaxIterations != 2 {
		t.Errorf("MaxIterations = %d, want overlay value 2", cfg.Loop.MaxIterations)
	}
	if cfg.Source.BatchSize != 5 {
		t.Errorf("BatchSize = %d, want overlay value 5", cfg.Source.BatchSize)
	}
	// untouched fields keep their base values
	if cfg.Loop.SampleSeed != 11 {
		t.Errorf("SampleSeed = %d, want base value 11", cfg.Loop.SampleSeed)
	}
	if cfg.Env() != "test" {
		t.Errorf("Env = %q, want test", cfg.Env())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	chdir(t, dir)

	t.Setenv("STITCH_LOOP_MAX_ITERATIONS", "3")
	t.Setenv("STITCH_SOURCE_DIFFICULTY", "hard")
	t.Setenv("STITCH_SOURCE_COHORTS", "females")
	t.Setenv("STITCH_GENERATOR_MODEL", "flux.2-dev")
	t.Setenv("STITCH_SINK_DIR", "elsewhere")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Loop.MaxIterations != 3 {
		t.Errorf("MaxIterations = %d, want env value 3", cfg.Loop.MaxIterations)
	}
	if cfg.Source.Difficulty != "hard" {
		t.Errorf("Difficulty = %q, want hard", cfg.Source.Difficulty)
	}
	if len(cfg.Source.Cohorts) != 1 || cfg.Source.Cohorts[0] != "females" {
		t.Errorf("Cohorts = %v, want [females]", cfg.Source.Cohorts)
	}
	if cfg.Generator.Model != "flux.2-dev" {
		t.Errorf("Model = %q, want flux.2-dev", cfg.Generator.Model)
	}
	if cfg.Sink.Dir != "elsewhere" {
		t.Errorf("Sink.Dir = %q, want elsewhere", cfg.Sink.Dir)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing generator endpoint", "[loop]\nmax_iterations = 4\n"},
		{"bad shutdown timeout", `shutdown_timeout = "soon"` + minimalConfig},
		{"bad source kind", minimalConfig + "\n[source]\nkind = \"ftp\"\n"},
		{"bad sink kind", minimalConfig + "\n[sink]\nkind = \"tape\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, config.BaseConfigFile, tt.content)
			chdir(t, dir)

			if _, err := config.Load(); err == nil {
				t.Error("Load succeeded, want error")
			}
		})
	}
}

func TestNeedsStorage(t *testing.T) {
	dir := t.TempDir()
	content := minimalConfig + `
[source]
kind = "blob"

[storage]
connection_string = "DefaultEndpointsProtocol=http;AccountName=stitchstore;AccountKey=a2V5;BlobEndpoint=http://127.0.0.1:10000/stitchstore;"
`
	writeConfig(t, dir, config.BaseConfigFile, content)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if !cfg.NeedsStorage() {
		t.Error("NeedsStorage = false with blob source")
	}
	if cfg.Storage.ContainerName != "tryon" {
		t.Errorf("ContainerName default = %q, want tryon", cfg.Storage.ContainerName)
	}
}

func TestFinalizeAgentDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, minimalConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Agent.Name == "" {
		t.Error("Agent.Name not defaulted")
	}
	if cfg.Agent.Provider == nil || cfg.Agent.Provider.Name == "" {
		t.Error("agent provider not finalized")
	}
}
