package samples_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/tryonware/stitch/internal/samples"
	"github.com/tryonware/stitch/pkg/lifecycle"
	"github.com/tryonware/stitch/pkg/storage"
)

// fakeStore is an in-memory storage.System with single-item list pages so
// marker continuation gets exercised even by small fixtures.
type fakeStore struct {
	blobs     map[string][]byte
	listCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{blobs: make(map[string][]byte)}
}

func (f *fakeStore) Start(*lifecycle.Coordinator) error { return nil }

func (f *fakeStore) Upload(_ context.Context, key string, reader io.Reader, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.blobs[key] = data
	return nil
}

func (f *fakeStore) Download(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStore) List(_ context.Context, prefix, marker string, _ int32) (*storage.ListResult, error) {
	f.listCalls++

	var keys []string
	for key := range f.blobs {
		if strings.HasPrefix(key, prefix) && key > marker {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	if len(keys) == 0 {
		return &storage.ListResult{}, nil
	}

	result := &storage.ListResult{
		Items: []storage.BlobInfo{{Key: keys[0], Size: int64(len(f.blobs[keys[0]]))}},
	}
	if len(keys) > 1 {
		result.NextMarker = keys[0]
	}
	return result, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	if _, ok := f.blobs[key]; !ok {
		return storage.ErrNotFound
	}
	delete(f.blobs, key)
	return nil
}

func (f *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.blobs[key]
	return ok, nil
}

func blobConfig(t *testing.T, overlay samples.Config) *samples.Config {
	t.Helper()
	cfg := &samples.Config{Kind: samples.KindBlob, Cohorts: []string{"females"}}
	cfg.Merge(&overlay)
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize error: %v", err)
	}
	return cfg
}

func TestBlobListGroupsBySampleID(t *testing.T) {
	store := newFakeStore()
	data := pngBytes(t)

	store.blobs["easy/females/initial_image/123_partition_0_1_edit_person.png"] = data
	store.blobs["easy/females/cloth_image/123_partition_0_1_cloth.png"] = data
	store.blobs["easy/females/initial_image/456_partition_0_2_edit_person.png"] = data
	store.blobs["easy/females/cloth_image/456_partition_0_2_cloth.png"] = data
	// incomplete group: person without cloth
	store.blobs["easy/females/initial_image/789_partition_0_3_edit_person.png"] = data
	// non-image key ignored
	store.blobs["easy/females/initial_image/manifest.json"] = []byte("{}")

	src := samples.NewBlob(blobConfig(t, samples.Config{}), store, 1, testLogger())

	refs, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("pairs = %d, want 2", len(refs))
	}

	for _, ref := range refs {
		if ref.Cohort != "females" {
			t.Errorf("Cohort = %q, want females", ref.Cohort)
		}
		if !strings.Contains(ref.Person, "initial_image/") {
			t.Errorf("Person = %q, want initial_image key", ref.Person)
		}
		if !strings.Contains(ref.Cloth, "cloth_image/") {
			t.Errorf("Cloth = %q, want cloth_image key", ref.Cloth)
		}
	}

	// single-item pages force marker continuation
	if store.listCalls < 2 {
		t.Errorf("listCalls = %d, want multiple pages", store.listCalls)
	}
}

func TestBlobListDeterministic(t *testing.T) {
	store := newFakeStore()
	data := pngBytes(t)

	for _, id := range []string{"300_partition_0_1", "100_partition_0_1", "200_partition_0_1"} {
		store.blobs["easy/females/initial_image/"+id+"_edit_person.png"] = data
		store.blobs["easy/females/cloth_image/"+id+"_cloth.png"] = data
	}

	src := samples.NewBlob(blobConfig(t, samples.Config{}), store, 1, testLogger())

	first, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	second, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}

	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("lengths = %d, %d, want 3", len(first), len(second))
	}
	for i := range first {
		if first[i].Key != second[i].Key {
			t.Errorf("refs[%d] differs: %q vs %q", i, first[i].Key, second[i].Key)
		}
	}
}

func TestBlobResolve(t *testing.T) {
	store := newFakeStore()
	data := pngBytes(t)

	store.blobs["easy/females/initial_image/123_partition_0_1_edit_person.png"] = data
	store.blobs["easy/females/cloth_image/123_partition_0_1_cloth.png"] = data

	src := samples.NewBlob(blobConfig(t, samples.Config{}), store, 10, testLogger())

	refs, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("pairs = %d, want 1", len(refs))
	}

	pair, err := src.Resolve(context.Background(), refs[0])
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(pair.Person.Data) == 0 || len(pair.Cloth.Data) == 0 {
		t.Error("resolved pair has empty payloads")
	}
}

func TestBlobResolveMissingBlob(t *testing.T) {
	store := newFakeStore()

	src := samples.NewBlob(blobConfig(t, samples.Config{}), store, 10, testLogger())

	_, err := src.Resolve(context.Background(), samples.PairRef{
		Key:    "females/123",
		Cohort: "females",
		Person: "easy/females/initial_image/gone.png",
		Cloth:  "easy/females/cloth_image/gone.png",
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestBlobResolveUndecodable(t *testing.T) {
	store := newFakeStore()
	store.blobs["easy/females/initial_image/123_partition_0_1_edit_person.png"] = []byte("junk")
	store.blobs["easy/females/cloth_image/123_partition_0_1_cloth.png"] = []byte("junk")

	src := samples.NewBlob(blobConfig(t, samples.Config{}), store, 10, testLogger())

	refs, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}

	_, err = src.Resolve(context.Background(), refs[0])
	if !errors.Is(err, samples.ErrDecodeFailed) {
		t.Errorf("error = %v, want ErrDecodeFailed", err)
	}
}
