package fetch

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNewCarriesSizeCeiling(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine, err := New(dir, 50<<20, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if engine.maxSize != 50<<20 {
		t.Fatalf("size ceiling not stored: %d", engine.maxSize)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("downloads dir not created: %v", err)
	}
}

func TestParseHeights(t *testing.T) {
	raw := `{"formats":[
		{"height":360},
		{"height":1080},
		{"height":144},
		{"height":720},
		{"height":720},
		{"height":null},
		{"height":2160}
	]}`

	got := parseHeights(raw)
	want := []int{360, 720, 1080, 2160}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parseHeights = %v, want %v", got, want)
	}
}

func TestParseHeightsInvalidJSON(t *testing.T) {
	got := parseHeights("not json at all")
	if !reflect.DeepEqual(got, []int{defaultHeight}) {
		t.Fatalf("expected the default fallback, got %v", got)
	}
}

func TestParseHeightsNoUsableFormats(t *testing.T) {
	got := parseHeights(`{"formats":[{"height":144},{"height":240}]}`)
	if !reflect.DeepEqual(got, []int{defaultHeight}) {
		t.Fatalf("expected the default fallback, got %v", got)
	}
}
