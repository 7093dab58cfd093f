package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/tryonware/stitch/internal/config"
	"github.com/tryonware/stitch/internal/evaluate"
	"github.com/tryonware/stitch/internal/generate"
	"github.com/tryonware/stitch/internal/infrastructure"
	"github.com/tryonware/stitch/internal/prompts"
	"github.com/tryonware/stitch/internal/runner"
	"github.com/tryonware/stitch/internal/samples"
	"github.com/tryonware/stitch/internal/sink"
	"github.com/tryonware/stitch/internal/stats"
	"github.com/tryonware/stitch/internal/tryon"
)

func main() {
	var (
		batch      = flag.Int("batch", 0, "Maximum pairs to process (overrides source.batch_size)")
		iterations = flag.Int("iterations", 0, "Maximum loop cycles per pair (overrides loop.max_iterations)")
		sourceKind = flag.String("source", "", "Sample source kind: local or blob (overrides source.kind)")
		workers    = flag.Int("workers", 0, "Pair-level worker pool size (overrides loop.workers)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed:", err)
	}

	if *batch > 0 {
		cfg.Source.BatchSize = *batch
	}
	if *iterations > 0 {
		cfg.Loop.MaxIterations = *iterations
	}
	if *workers > 0 {
		cfg.Loop.Workers = *workers
	}
	if *sourceKind != "" {
		needed := cfg.NeedsStorage()
		cfg.Source.Kind = *sourceKind
		if cfg.NeedsStorage() && !needed {
			if err := config.FinalizeStorage(cfg); err != nil {
				log.Fatal("storage config failed:", err)
			}
		}
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		log.Fatal("infrastructure init failed:", err)
	}

	logger := infra.Logger
	logger.Info(
		"stitch starting",
		"version", cfg.Version,
		"env", cfg.Env(),
		"source", cfg.Source.Kind,
		"sink", cfg.Sink.Kind,
	)

	if err := infra.Start(); err != nil {
		log.Fatal("infrastructure start failed:", err)
	}
	infra.Lifecycle.WaitForStartup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source := buildSource(cfg, infra)
	resultSink := buildSink(cfg, infra)

	instruction := cfg.Loop.DefaultInstruction
	if instruction == "" {
		instruction = prompts.NewSampler(cfg.Loop.SampleSeed).SampleInstruction()
	}

	controller := tryon.NewController(
		generate.New(&cfg.Generator, logger),
		evaluate.New(&cfg.Agent, logger),
		tryon.Options{
			MaxIterations:      cfg.Loop.MaxIterations,
			DefaultInstruction: instruction,
		},
		logger,
	)

	run := stats.NewRun()
	r := runner.New(source, controller, resultSink, run, cfg.Loop.Workers, logger)

	summary, err := r.Run(ctx)
	if err != nil {
		logger.Error("batch failed", "error", err)
		shutdown(infra, cfg)
		log.Fatal("batch failed:", err)
	}

	logger.Info(
		"batch complete",
		"run_id", summary.RunID,
		"processed", summary.Processed,
		"accepted", summary.Accepted,
		"exhausted", summary.Exhausted,
		"skipped", summary.Skipped,
		"unrecorded", summary.Unrecorded,
		"generation_failures", summary.GenerationFailures,
		"evaluation_failures", summary.EvaluationFailures,
		"generation_mean", summary.Generation.Mean,
		"generation_p50", summary.Generation.P50,
		"generation_p95", summary.Generation.P95,
		"evaluation_mean", summary.Evaluation.Mean,
		"evaluation_p50", summary.Evaluation.P50,
		"evaluation_p95", summary.Evaluation.P95,
	)

	shutdown(infra, cfg)
	logger.Info("stitch stopped")
}

func buildSource(cfg *config.Config, infra *infrastructure.Infrastructure) samples.Source {
	if cfg.Source.Kind == samples.KindBlob {
		return samples.NewBlob(&cfg.Source, infra.Storage, cfg.Storage.MaxListSize, infra.Logger)
	}
	return samples.NewLocal(&cfg.Source, infra.Logger)
}

func buildSink(cfg *config.Config, infra *infrastructure.Infrastructure) sink.Sink {
	if cfg.Sink.Kind == sink.KindBlob {
		return sink.NewBlob(&cfg.Sink, infra.Storage, infra.Logger)
	}
	return sink.NewLocal(&cfg.Sink, infra.Logger)
}

func shutdown(infra *infrastructure.Infrastructure, cfg *config.Config) {
	if err := infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		infra.Logger.Error("shutdown incomplete", "error", err)
	}
}
