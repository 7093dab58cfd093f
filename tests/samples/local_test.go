package samples_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/tryonware/stitch/internal/samples"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func localConfig(t *testing.T, dir string, overlay samples.Config) *samples.Config {
	t.Helper()
	cfg := &samples.Config{Dir: dir, Cohorts: []string{"females", "males"}}
	cfg.Merge(&overlay)
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize error: %v", err)
	}
	return cfg
}

func seedPair(t *testing.T, dir, cohort, name string, data []byte) {
	t.Helper()
	writeFile(t, filepath.Join(dir, cohort, "person", name), data)
	writeFile(t, filepath.Join(dir, cohort, "cloth", name), data)
}

func TestLocalListPairsByStem(t *testing.T) {
	dir := t.TempDir()
	data := pngBytes(t)

	seedPair(t, dir, "females", "2.png", data)
	seedPair(t, dir, "females", "10.png", data)
	seedPair(t, dir, "males", "1.png", data)
	// person without a matching cloth is skipped
	writeFile(t, filepath.Join(dir, "females", "person", "99.png"), data)
	// non-image files are ignored
	writeFile(t, filepath.Join(dir, "females", "person", "notes.txt"), []byte("x"))

	src := samples.NewLocal(localConfig(t, dir, samples.Config{}), testLogger())

	refs, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(refs) != 3 {
		t.Fatalf("pairs = %d, want 3", len(refs))
	}

	// cohort first, then numeric stem order within a cohort
	want := []string{"females/2", "females/10", "males/1"}
	for i, ref := range refs {
		if ref.Key != want[i] {
			t.Errorf("refs[%d].Key = %q, want %q", i, ref.Key, want[i])
		}
	}
}

func TestLocalListDeterministic(t *testing.T) {
	dir := t.TempDir()
	data := pngBytes(t)

	for _, name := range []string{"7.png", "3.png", "11.png"} {
		seedPair(t, dir, "females", name, data)
	}

	src := samples.NewLocal(localConfig(t, dir, samples.Config{}), testLogger())

	first, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	second, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("list lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Key != second[i].Key {
			t.Errorf("refs[%d] differs between lists: %q vs %q", i, first[i].Key, second[i].Key)
		}
	}
}

func TestLocalListBatchCap(t *testing.T) {
	dir := t.TempDir()
	data := pngBytes(t)

	for _, name := range []string{"1.png", "2.png", "3.png", "4.png", "5.png"} {
		seedPair(t, dir, "females", name, data)
	}

	src := samples.NewLocal(localConfig(t, dir, samples.Config{BatchSize: 2}), testLogger())

	refs, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("pairs = %d, want 2", len(refs))
	}
	if refs[0].Key != "females/1" || refs[1].Key != "females/2" {
		t.Errorf("batch = %q, %q, want first two in order", refs[0].Key, refs[1].Key)
	}
}

func TestLocalListMissingCohortFolder(t *testing.T) {
	dir := t.TempDir()
	seedPair(t, dir, "females", "1.png", pngBytes(t))

	src := samples.NewLocal(localConfig(t, dir, samples.Config{}), testLogger())

	refs, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(refs) != 1 {
		t.Errorf("pairs = %d, want 1 (missing males folder tolerated)", len(refs))
	}
}

func TestLocalResolve(t *testing.T) {
	dir := t.TempDir()
	seedPair(t, dir, "females", "42.png", pngBytes(t))

	src := samples.NewLocal(localConfig(t, dir, samples.Config{}), testLogger())

	refs, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}

	pair, err := src.Resolve(context.Background(), refs[0])
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}

	if pair.Key != "females/42" {
		t.Errorf("Key = %q, want females/42", pair.Key)
	}
	if pair.Cohort != "females" {
		t.Errorf("Cohort = %q, want females", pair.Cohort)
	}
	if pair.Person.Name != "42" || pair.Cloth.Name != "42" {
		t.Errorf("names = %q/%q, want 42/42", pair.Person.Name, pair.Cloth.Name)
	}
	if len(pair.Person.Data) == 0 || len(pair.Cloth.Data) == 0 {
		t.Error("resolved pair has empty payloads")
	}
}

func TestLocalResolveUndecodable(t *testing.T) {
	dir := t.TempDir()
	seedPair(t, dir, "females", "1.png", []byte("not a png"))

	src := samples.NewLocal(localConfig(t, dir, samples.Config{}), testLogger())

	refs, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}

	_, err = src.Resolve(context.Background(), refs[0])
	if !errors.Is(err, samples.ErrDecodeFailed) {
		t.Errorf("error = %v, want ErrDecodeFailed", err)
	}
}

func TestLocalResolveTooLarge(t *testing.T) {
	dir := t.TempDir()
	seedPair(t, dir, "females", "1.png", pngBytes(t))

	src := samples.NewLocal(localConfig(t, dir, samples.Config{MaxImageSize: "10B"}), testLogger())

	refs, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}

	_, err = src.Resolve(context.Background(), refs[0])
	if !errors.Is(err, samples.ErrTooLarge) {
		t.Errorf("error = %v, want ErrTooLarge", err)
	}
}
