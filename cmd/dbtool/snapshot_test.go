package main

import (
	"bytes"
	"context"
	"itinerary-planner-service/internal/adapters/storage"
	"itinerary-planner-service/internal/services"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleSnapshot = `{
  "markers": [{"id":"m1","position":{"lat":48.8566,"lng":2.3522},"label":"New marker at 48.8566, 2.3522","status":"failed"}],
  "itinerary": [{"id":"e1","title":"Paris Trip","arrivalDate":"2024-06-01","stayDurationDays":5,"routeDescription":"A - B"}]
}`

func TestImportThenExport(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKVStore()

	n, err := importState(ctx, kv, strings.NewReader(sampleSnapshot))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 keys, got %d", n)
	}

	raw, ok, _ := kv.Load(ctx, services.KeyItinerary)
	want := `[{"id":"e1","title":"Paris Trip","arrivalDate":"2024-06-01","stayDurationDays":5,"routeDescription":"A - B"}]`
	if !ok || raw != want {
		t.Fatalf("\nwanted:\n%s\ngot:\n%s", want, raw)
	}

	var buf bytes.Buffer
	if err := exportState(ctx, kv, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	again := storage.NewMemoryKVStore()
	if _, err := importState(ctx, again, &buf); err != nil {
		t.Fatalf("re-import: %v", err)
	}
	for _, key := range []string{services.KeyMarkers, services.KeyItinerary} {
		a, _, _ := kv.Load(ctx, key)
		b, _, _ := again.Load(ctx, key)
		if a != b {
			t.Fatalf("key %q differs after round trip:\n%s\n%s", key, a, b)
		}
	}
}

func TestImportRejectsInvalidSnapshot(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKVStore()

	bad := `{"markers":[{"id":"m1"}],"itinerary":[{"id":"e1","stayDurationDays":-1}]}`
	if _, err := importState(ctx, kv, strings.NewReader(bad)); err == nil {
		t.Fatal("expected error")
	}
	if _, ok, _ := kv.Load(ctx, services.KeyMarkers); ok {
		t.Fatal("partial import was written")
	}
}

func TestClearState(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKVStore()
	if _, err := importState(ctx, kv, strings.NewReader(sampleSnapshot)); err != nil {
		t.Fatal(err)
	}

	if err := clearState(ctx, kv); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := exportState(ctx, kv, &buf); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "{}" {
		t.Fatalf("expected empty snapshot, got %s", buf.String())
	}
}

func TestExportFile(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKVStore()
	if _, err := importState(ctx, kv, strings.NewReader(sampleSnapshot)); err != nil {
		t.Fatalf("import: %v", err)
	}

	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := exportFile(ctx, kv, path); err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	again := storage.NewMemoryKVStore()
	if n, err := importState(ctx, again, f); err != nil || n != 2 {
		t.Fatalf("re-import: n=%d err=%v", n, err)
	}

	missingDir := filepath.Join(t.TempDir(), "missing", "snapshot.json")
	if err := exportFile(ctx, kv, missingDir); err == nil || !strings.HasPrefix(err.Error(), "export: create") {
		t.Fatalf("expected create error, got %v", err)
	}
}
