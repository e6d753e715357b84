package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"itinerary-planner-service/internal/ports"
	"itinerary-planner-service/internal/services"
	"os"
)

// snapshot is the on-disk export format. Absent keys stay absent on import.
type snapshot struct {
	Markers   json.RawMessage `json:"markers,omitempty"`
	Itinerary json.RawMessage `json:"itinerary,omitempty"`
}

func exportState(ctx context.Context, kv ports.KVStore, w io.Writer) error {
	var snap snapshot

	for _, key := range []string{services.KeyMarkers, services.KeyItinerary} {
		raw, ok, err := kv.Load(ctx, key)
		if err != nil {
			return fmt.Errorf("export: load %q: %w", key, err)
		}
		if !ok {
			continue
		}
		if !json.Valid([]byte(raw)) {
			return fmt.Errorf("export: %q holds malformed JSON", key)
		}

		switch key {
		case services.KeyMarkers:
			snap.Markers = json.RawMessage(raw)
		case services.KeyItinerary:
			snap.Itinerary = json.RawMessage(raw)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("export: encode: %w", err)
	}
	return nil
}

// exportFile writes the snapshot to path. A failed close is reported since
// it can lose buffered data.
func exportFile(ctx context.Context, kv ports.KVStore, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("export: close %q: %w", path, cerr)
		}
	}()

	return exportState(ctx, kv, f)
}

// importState validates both lists before writing either, and re-encodes
// them so the store holds the canonical form.
func importState(ctx context.Context, kv ports.KVStore, r io.Reader) (int, error) {
	var snap snapshot

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return 0, fmt.Errorf("import: decode snapshot: %w", err)
	}

	writes := map[string]string{}

	if len(snap.Markers) > 0 {
		markers, err := services.DecodeMarkers(string(snap.Markers))
		if err != nil {
			return 0, fmt.Errorf("import: %w", err)
		}
		raw, err := services.EncodeMarkers(markers)
		if err != nil {
			return 0, fmt.Errorf("import: %w", err)
		}
		writes[services.KeyMarkers] = raw
	}

	if len(snap.Itinerary) > 0 {
		entries, err := services.DecodeEntries(string(snap.Itinerary))
		if err != nil {
			return 0, fmt.Errorf("import: %w", err)
		}
		raw, err := services.EncodeEntries(entries)
		if err != nil {
			return 0, fmt.Errorf("import: %w", err)
		}
		writes[services.KeyItinerary] = raw
	}

	for _, key := range []string{services.KeyMarkers, services.KeyItinerary} {
		raw, ok := writes[key]
		if !ok {
			continue
		}
		if err := kv.Save(ctx, key, raw); err != nil {
			return 0, fmt.Errorf("import: save %q: %w", key, err)
		}
	}

	return len(writes), nil
}

func clearState(ctx context.Context, kv ports.KVStore) error {
	for _, key := range []string{services.KeyMarkers, services.KeyItinerary} {
		if err := kv.Remove(ctx, key); err != nil {
			return fmt.Errorf("clear: remove %q: %w", key, err)
		}
	}
	return nil
}
