package samples

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"github.com/tryonware/stitch/internal/tryon"
	"github.com/tryonware/stitch/pkg/storage"
)

// basePattern captures the shared sample ID linking a person blob to its
// cloth blob, e.g. 12345_partition_0_0 from 12345_partition_0_0_edit_person.png.
var basePattern = regexp.MustCompile(`(\d+_?partition_?\d+_\d+)`)

// Blob reads pairs from blob storage laid out as
// <difficulty>/<cohort>/initial_image/<id>...<ext> and
// <difficulty>/<cohort>/cloth_image/<id>...<ext>, grouping keys by the
// shared sample ID with the filename stem as fallback.
type Blob struct {
	cfg      Config
	store    storage.System
	pageSize int32
	logger   *slog.Logger
}

// NewBlob creates a blob-backed sample source.
func NewBlob(cfg *Config, store storage.System, pageSize int32, logger *slog.Logger) *Blob {
	return &Blob{
		cfg:      *cfg,
		store:    store,
		pageSize: pageSize,
		logger:   logger.With("system", "samples", "source", KindBlob),
	}
}

func (b *Blob) List(ctx context.Context) ([]PairRef, error) {
	var refs []PairRef

	for _, cohort := range b.cfg.Cohorts {
		prefix := b.cfg.Difficulty + "/" + cohort + "/"

		keys, err := b.listKeys(ctx, prefix)
		if err != nil {
			return nil, err
		}

		refs = append(refs, groupPairs(cohort, prefix, keys, b.logger)...)
	}

	sortRefs(refs)

	if len(refs) > b.cfg.BatchSize {
		refs = refs[:b.cfg.BatchSize]
	}

	b.logger.Info("samples listed", "pairs", len(refs))
	return refs, nil
}

func (b *Blob) Resolve(ctx context.Context, ref PairRef) (*tryon.SamplePair, error) {
	person, err := b.download(ctx, ref.Person)
	if err != nil {
		return nil, fmt.Errorf("download person image: %w", err)
	}

	cloth, err := b.download(ctx, ref.Cloth)
	if err != nil {
		return nil, fmt.Errorf("download cloth image: %w", err)
	}

	return decodePair(ref, person, cloth, b.cfg.MaxImageBytes())
}

func (b *Blob) listKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	marker := ""

	for {
		page, err := b.store.List(ctx, prefix, marker, b.pageSize)
		if err != nil {
			return nil, fmt.Errorf("list samples %s: %w", prefix, err)
		}

		for _, item := range page.Items {
			if isImageKey(item.Key) {
				keys = append(keys, item.Key)
			}
		}

		if page.NextMarker == "" {
			return keys, nil
		}
		marker = page.NextMarker
	}
}

func (b *Blob) download(ctx context.Context, key string) ([]byte, error) {
	reader, err := b.store.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(io.LimitReader(reader, b.cfg.MaxImageBytes()+1))
}

// groupPairs buckets keys under a cohort prefix into person/cloth pairings
// keyed by sample ID. Keys outside the expected subfolders are ignored.
func groupPairs(cohort, prefix string, keys []string, logger *slog.Logger) []PairRef {
	type parts struct {
		person string
		cloth  string
	}

	grouped := make(map[string]*parts)

	for _, key := range keys {
		rel := strings.TrimPrefix(key, prefix)

		isPerson := strings.HasPrefix(rel, "initial_image/")
		isCloth := strings.HasPrefix(rel, "cloth_image/")
		if !isPerson && !isCloth {
			continue
		}

		id := sampleID(key)
		group, ok := grouped[id]
		if !ok {
			group = &parts{}
			grouped[id] = group
		}

		if isPerson {
			group.person = key
		} else {
			group.cloth = key
		}
	}

	var refs []PairRef
	for id, group := range grouped {
		if group.person == "" || group.cloth == "" {
			logger.Warn("incomplete sample group", "cohort", cohort, "id", id)
			continue
		}

		refs = append(refs, PairRef{
			Key:    cohort + "/" + id,
			Cohort: cohort,
			Person: group.person,
			Cloth:  group.cloth,
		})
	}

	return refs
}

func sampleID(key string) string {
	name := path.Base(key)
	if m := basePattern.FindString(name); m != "" {
		return m
	}
	return stem(name)
}

func isImageKey(key string) bool {
	switch strings.ToLower(path.Ext(key)) {
	case ".png", ".jpg", ".jpeg", ".webp":
		return true
	}
	return false
}
