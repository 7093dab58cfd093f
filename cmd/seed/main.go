// Command seed uploads a local sample tree into the blob container using the
// layout the blob source expects. Re-runs skip blobs that already exist;
// -clean resets the difficulty prefix first.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tryonware/stitch/internal/config"
	"github.com/tryonware/stitch/internal/seed"
	"github.com/tryonware/stitch/pkg/lifecycle"
	"github.com/tryonware/stitch/pkg/storage"
)

func main() {
	var (
		dir        = flag.String("dir", "", "Local sample tree root (defaults to source.dir)")
		difficulty = flag.String("difficulty", "", "Target difficulty prefix (defaults to source.difficulty)")
		dryRun     = flag.Bool("dry-run", false, "List uploads without performing them")
		force      = flag.Bool("force", false, "Re-upload blobs that already exist")
		clean      = flag.Bool("clean", false, "Delete every blob under the difficulty prefix before seeding")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed:", err)
	}
	if err := config.FinalizeStorage(cfg); err != nil {
		log.Fatal("storage config failed:", err)
	}

	if *dir == "" {
		*dir = cfg.Source.Dir
	}
	if *difficulty == "" {
		*difficulty = cfg.Source.Difficulty
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	lc := lifecycle.New()
	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		log.Fatal("storage init failed:", err)
	}
	if err := store.Start(lc); err != nil {
		log.Fatal("storage start failed:", err)
	}
	lc.WaitForStartup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seeder := seed.New(store, logger)

	if *clean {
		deleted, err := seeder.Clean(ctx, *difficulty, cfg.Storage.MaxListSize)
		if err != nil {
			logger.Error("clean failed", "error", err, "deleted", deleted)
			lc.Shutdown(cfg.ShutdownTimeoutDuration())
			os.Exit(1)
		}
		logger.Info("prefix cleaned", "difficulty", *difficulty, "deleted", deleted)
	}

	res, err := seeder.Seed(ctx, seed.Options{
		Dir:        *dir,
		Difficulty: *difficulty,
		Cohorts:    cfg.Source.Cohorts,
		DryRun:     *dryRun,
		Force:      *force,
	})
	if err != nil {
		logger.Error("seed failed", "error", err)
		lc.Shutdown(cfg.ShutdownTimeoutDuration())
		os.Exit(1)
	}

	logger.Info(
		"seed complete",
		"uploaded", res.Uploaded,
		"skipped", res.Skipped,
		"dry_run", *dryRun,
	)
	lc.Shutdown(cfg.ShutdownTimeoutDuration())
}
