package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/tryonware/stitch/internal/tryon"
	"github.com/tryonware/stitch/pkg/storage"
)

// Blob persists results into blob storage under
// <prefix>/<cohort>/<bucket>/<name>. Blob uploads are atomic per object;
// pair-level writes are serialized to keep the keyspace append-only under
// worker-pool batch modes.
type Blob struct {
	mu     sync.Mutex
	prefix string
	store  storage.System
	logger *slog.Logger
}

// NewBlob creates a blob-backed result sink.
func NewBlob(cfg *Config, store storage.System, logger *slog.Logger) *Blob {
	return &Blob{
		prefix: cfg.Prefix,
		store:  store,
		logger: logger.With("system", "sink", "sink", KindBlob),
	}
}

func (b *Blob) Record(ctx context.Context, runID uuid.UUID, result *tryon.LoopResult) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, rec := range buildRecords(runID, result) {
		base := fmt.Sprintf("%s/%s/%s/%s", b.prefix, result.Pair.Cohort, rec.bucket, rec.name)

		if rec.image != nil {
			err := b.store.Upload(ctx, base+".png", bytes.NewReader(rec.image), "image/png")
			if err != nil {
				return fmt.Errorf("%w: %w", tryon.ErrSinkWrite, err)
			}
		}

		meta, err := json.Marshal(rec.meta)
		if err != nil {
			return fmt.Errorf("%w: encode metadata: %w", tryon.ErrSinkWrite, err)
		}

		err = b.store.Upload(ctx, base+".json", bytes.NewReader(meta), "application/json")
		if err != nil {
			return fmt.Errorf("%w: %w", tryon.ErrSinkWrite, err)
		}

		b.logger.InfoContext(
			ctx, "result recorded",
			"pair", result.Pair.Key,
			"bucket", rec.bucket,
			"attempt", rec.meta.AttemptIndex,
		)
	}

	return nil
}
