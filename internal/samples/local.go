package samples

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tryonware/stitch/internal/tryon"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// Local reads pairs from a directory tree laid out as
// <dir>/<cohort>/person/<n>.<ext> and <dir>/<cohort>/cloth/<n>.<ext>,
// pairing files that share a stem.
type Local struct {
	cfg    Config
	logger *slog.Logger
}

// NewLocal creates a local-disk sample source.
func NewLocal(cfg *Config, logger *slog.Logger) *Local {
	return &Local{
		cfg:    *cfg,
		logger: logger.With("system", "samples", "source", KindLocal),
	}
}

func (l *Local) List(ctx context.Context) ([]PairRef, error) {
	var refs []PairRef

	for _, cohort := range l.cfg.Cohorts {
		persons, err := listImages(filepath.Join(l.cfg.Dir, cohort, "person"))
		if err != nil {
			return nil, fmt.Errorf("list person images: %w", err)
		}

		cloths, err := listImages(filepath.Join(l.cfg.Dir, cohort, "cloth"))
		if err != nil {
			return nil, fmt.Errorf("list cloth images: %w", err)
		}

		clothsByStem := make(map[string]string, len(cloths))
		for _, c := range cloths {
			clothsByStem[stem(c)] = c
		}

		for _, p := range persons {
			c, ok := clothsByStem[stem(p)]
			if !ok {
				l.logger.Warn("unpaired person image", "cohort", cohort, "path", p)
				continue
			}

			refs = append(refs, PairRef{
				Key:    cohort + "/" + stem(p),
				Cohort: cohort,
				Person: p,
				Cloth:  c,
			})
		}
	}

	sortRefs(refs)

	if len(refs) > l.cfg.BatchSize {
		refs = refs[:l.cfg.BatchSize]
	}

	l.logger.Info("samples listed", "pairs", len(refs))
	return refs, nil
}

func (l *Local) Resolve(ctx context.Context, ref PairRef) (*tryon.SamplePair, error) {
	person, err := os.ReadFile(ref.Person)
	if err != nil {
		return nil, fmt.Errorf("read person image: %w", err)
	}

	cloth, err := os.ReadFile(ref.Cloth)
	if err != nil {
		return nil, fmt.Errorf("read cloth image: %w", err)
	}

	return decodePair(ref, person, cloth, l.cfg.MaxImageBytes())
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if slices.Contains(imageExtensions, ext) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}

	return paths, nil
}
