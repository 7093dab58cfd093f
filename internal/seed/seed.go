// Package seed uploads a local sample tree into the blob container in the
// layout the blob sample source expects: <difficulty>/<cohort>/initial_image/<name>
// and <difficulty>/<cohort>/cloth_image/<name>. Re-seeding is idempotent:
// blobs that already exist are skipped unless forced.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tryonware/stitch/pkg/storage"
)

var folders = []struct {
	local  string
	remote string
}{
	{"person", "initial_image"},
	{"cloth", "cloth_image"},
}

// Options configures one seeding pass.
type Options struct {
	// Dir is the local sample tree root.
	Dir string
	// Difficulty is the target blob prefix.
	Difficulty string
	// Cohorts lists the cohort folders to walk, in order.
	Cohorts []string
	// DryRun logs planned uploads without performing them.
	DryRun bool
	// Force re-uploads blobs that already exist.
	Force bool
}

// Result summarizes one seeding pass.
type Result struct {
	Uploaded int
	Skipped  int
}

// Seeder uploads local sample trees into blob storage.
type Seeder struct {
	store  storage.System
	logger *slog.Logger
}

// New creates a Seeder over the given storage system.
func New(store storage.System, logger *slog.Logger) *Seeder {
	return &Seeder{
		store:  store,
		logger: logger.With("system", "seed"),
	}
}

// Seed walks the local tree and uploads every image file. Missing cohort
// folders are tolerated; existing blobs are skipped unless opts.Force is set.
func (s *Seeder) Seed(ctx context.Context, opts Options) (Result, error) {
	var res Result

	for _, cohort := range opts.Cohorts {
		for _, folder := range folders {
			root := filepath.Join(opts.Dir, cohort, folder.local)

			entries, err := os.ReadDir(root)
			if err != nil {
				if os.IsNotExist(err) {
					s.logger.Warn("folder missing", "path", root)
					continue
				}
				return res, fmt.Errorf("read %s: %w", root, err)
			}

			for _, entry := range entries {
				if entry.IsDir() || !isImage(entry.Name()) {
					continue
				}
				if ctx.Err() != nil {
					return res, ctx.Err()
				}

				key := fmt.Sprintf("%s/%s/%s/%s", opts.Difficulty, cohort, folder.remote, entry.Name())

				if !opts.Force {
					exists, err := s.store.Exists(ctx, key)
					if err != nil {
						return res, fmt.Errorf("check %s: %w", key, err)
					}
					if exists {
						s.logger.Info("already seeded", "key", key)
						res.Skipped++
						continue
					}
				}

				if opts.DryRun {
					s.logger.Info("would upload", "key", key)
					continue
				}

				if err := s.upload(ctx, filepath.Join(root, entry.Name()), key); err != nil {
					return res, err
				}

				s.logger.Info("uploaded", "key", key)
				res.Uploaded++
			}
		}
	}

	return res, nil
}

// Clean deletes every blob under the difficulty prefix, paging through the
// listing until exhausted. A trailing slash keeps "easy" from matching
// "easy_extended".
func (s *Seeder) Clean(ctx context.Context, difficulty string, pageSize int32) (int, error) {
	prefix := difficulty + "/"
	deleted := 0
	marker := ""

	for {
		page, err := s.store.List(ctx, prefix, marker, pageSize)
		if err != nil {
			return deleted, fmt.Errorf("list %s: %w", prefix, err)
		}

		for _, item := range page.Items {
			if ctx.Err() != nil {
				return deleted, ctx.Err()
			}
			if err := s.store.Delete(ctx, item.Key); err != nil {
				return deleted, fmt.Errorf("delete %s: %w", item.Key, err)
			}
			deleted++
		}

		if page.NextMarker == "" {
			return deleted, nil
		}
		marker = page.NextMarker
	}
}

func (s *Seeder) upload(ctx context.Context, path, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := s.store.Upload(ctx, key, f, contentType(path)); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".webp":
		return true
	}
	return false
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
