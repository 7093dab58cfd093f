// Package infrastructure provides core service initialization for batch startup.
// It assembles the common dependencies (logging, lifecycle, blob storage)
// that pipeline systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/tryonware/stitch/internal/config"
	"github.com/tryonware/stitch/pkg/lifecycle"
	"github.com/tryonware/stitch/pkg/storage"
)

// Infrastructure holds the core systems required by the pipeline.
// Storage is nil when neither the source nor the sink is blob-backed.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Storage   storage.System
}

// New creates an Infrastructure from the run configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
	}

	if cfg.NeedsStorage() {
		store, err := storage.New(&cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		infra.Storage = store
	}

	return infra, nil
}

// Start registers infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	return nil
}
