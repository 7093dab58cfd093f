package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/tryonware/stitch/internal/tryon"
	"github.com/tryonware/stitch/pkg/formatting"
)

// Local persists results under <dir>/<cohort>/<bucket>/. Each file is
// written to a temp name in the destination directory and renamed into
// place, so a crash mid-pair never leaves a partially written artifact
// visible and never disturbs previously recorded pairs.
type Local struct {
	mu     sync.Mutex
	dir    string
	logger *slog.Logger
}

// NewLocal creates a local-disk result sink.
func NewLocal(cfg *Config, logger *slog.Logger) *Local {
	return &Local{
		dir:    cfg.Dir,
		logger: logger.With("system", "sink", "sink", KindLocal),
	}
}

func (l *Local) Record(ctx context.Context, runID uuid.UUID, result *tryon.LoopResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, rec := range buildRecords(runID, result) {
		dir := filepath.Join(l.dir, result.Pair.Cohort, rec.bucket)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create %s: %w", tryon.ErrSinkWrite, dir, err)
		}

		if rec.image != nil {
			if err := writeAtomic(filepath.Join(dir, rec.name+".png"), rec.image); err != nil {
				return fmt.Errorf("%w: %w", tryon.ErrSinkWrite, err)
			}
		}

		meta, err := json.MarshalIndent(rec.meta, "", "  ")
		if err != nil {
			return fmt.Errorf("%w: encode metadata: %w", tryon.ErrSinkWrite, err)
		}

		if err := writeAtomic(filepath.Join(dir, rec.name+".json"), meta); err != nil {
			return fmt.Errorf("%w: %w", tryon.ErrSinkWrite, err)
		}

		l.logger.Info(
			"result recorded",
			"pair", result.Pair.Key,
			"bucket", rec.bucket,
			"attempt", rec.meta.AttemptIndex,
			"size", formatting.FormatBytes(int64(len(rec.image)), 1),
		)
	}

	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".stitch-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", path, err)
	}

	return nil
}
