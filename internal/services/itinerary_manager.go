package services

import (
	"context"
	"errors"
	"fmt"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/ports"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Persisted keys.
const (
	KeyItinerary = "itinerary"
	KeyMarkers   = "markers"
)

var (
	ErrEntryNotFound   = errors.New("itinerary entry not found")
	ErrMarkerNotFound  = errors.New("marker not found")
	ErrIndexOutOfRange = errors.New("itinerary index out of range")
	ErrCorruptState    = errors.New("persisted state is malformed")
	ErrInvalidPosition = errors.New("marker position must be finite")
)

// AddressResolver resolves a position to an address, returning "" when unknown.
type AddressResolver interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) string
}

// Draft is the server-side state of the itinerary form: the addresses that
// resolved marker lookups suggest for the next entry.
type Draft struct {
	From         string
	To           string
	FromMarkerID string
	ToMarkerID   string
	// Pending counts marker address lookups still in flight.
	Pending int
}

type ManagerOptions struct {
	// Resolver is optional; without it markers are never given an address.
	Resolver AddressResolver
	// DiscardCorrupt drops malformed persisted lists at Load instead of failing.
	DiscardCorrupt bool
	// NewID generates identifiers; defaults to UUIDv4 strings.
	NewID func() string
}

// ItineraryManager owns the ordered marker and itinerary lists.
//
// Every mutating operation writes the affected list through to the KVStore
// before returning. If the write fails the in-memory change is undone, so the
// store always holds the serialized form of the lists in memory.
//
// Marker address lookups run in the background. Each click bumps a
// generation counter; a finished lookup always updates its own marker (by ID)
// but only feeds the draft when no newer click happened meanwhile.
type ItineraryManager struct {
	store          ports.KVStore
	resolver       AddressResolver
	discardCorrupt bool
	newID          func() string

	mu         sync.Mutex
	markers    []domain.Marker
	entries    []domain.ItineraryEntry
	draft      Draft
	generation uint64

	baseCtx  context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup
}

type snapshot struct {
	markers []domain.Marker
	entries []domain.ItineraryEntry
	draft   Draft
}

func NewItineraryManager(store ports.KVStore, opts ManagerOptions) *ItineraryManager {
	newID := opts.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &ItineraryManager{
		store:          store,
		resolver:       opts.Resolver,
		discardCorrupt: opts.DiscardCorrupt,
		newID:          newID,
		baseCtx:        ctx,
		cancel:         cancel,
	}
}

// Load initializes both lists from the store; absent keys give empty lists.
// Markers whose address was still pending when last saved are looked up again.
func (m *ItineraryManager) Load(ctx context.Context) error {
	var markers []domain.Marker
	err := m.loadList(ctx, KeyMarkers, func(raw string) error {
		var err error
		markers, err = DecodeMarkers(raw)
		return err
	})
	if err != nil {
		return err
	}

	var entries []domain.ItineraryEntry
	err = m.loadList(ctx, KeyItinerary, func(raw string) error {
		var err error
		entries, err = DecodeEntries(raw)
		return err
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.markers = markers
	m.entries = entries
	m.draft = Draft{}

	var pending []domain.Marker
	for _, mk := range markers {
		if mk.Status == domain.AddressPending {
			pending = append(pending, mk)
		}
	}
	m.mu.Unlock()

	for _, mk := range pending {
		// Generation 0 never matches a click, so reloaded lookups leave the draft alone.
		m.resolveAsync(mk.ID, mk.Position, 0)
	}

	log.Info().
		Int("markers", len(markers)).
		Int("entries", len(entries)).
		Int("pending", len(pending)).
		Msg("itinerary state loaded")

	return nil
}

func (m *ItineraryManager) loadList(ctx context.Context, key string, decode func(raw string) error) error {
	raw, ok, err := m.store.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("load %q: %w", key, err)
	}
	if !ok {
		return nil
	}

	if err := decode(raw); err != nil {
		if !m.discardCorrupt {
			return fmt.Errorf("load %q: %w: %w", key, ErrCorruptState, err)
		}

		log.Warn().Err(err).Str("key", key).Msg("discarding malformed persisted state")
		if err := m.store.Remove(ctx, key); err != nil {
			return fmt.Errorf("load %q: remove malformed value: %w", key, err)
		}
	}

	return nil
}

// AddMarker appends a marker for a map click and starts resolving its address.
// Any finite position is accepted; NaN or Inf gives ErrInvalidPosition since
// it cannot be persisted. Otherwise the only failure is a persistence error.
func (m *ItineraryManager) AddMarker(ctx context.Context, lat, lng float64) (domain.Marker, error) {
	pos := domain.Coordinates{Lat: lat, Lng: lng}
	if !pos.IsFinite() {
		return domain.Marker{}, fmt.Errorf("add marker: %w", ErrInvalidPosition)
	}

	m.mu.Lock()
	snap := m.snapshot()

	marker := domain.Marker{
		ID:       m.newID(),
		Position: pos,
		Label:    domain.MarkerLabel(pos),
		Status:   m.initialStatus(),
	}
	m.markers = append(m.markers, marker)

	if err := m.writeThrough(ctx, snap, KeyMarkers); err != nil {
		m.mu.Unlock()
		return domain.Marker{}, fmt.Errorf("add marker: %w", err)
	}

	m.generation++
	gen := m.generation
	m.mu.Unlock()

	m.resolveAsync(marker.ID, pos, gen)

	return marker, nil
}

// ReplaceMarker moves an existing marker, keeping its ID and list position.
// Its label is regenerated and its address looked up again.
func (m *ItineraryManager) ReplaceMarker(ctx context.Context, id string, lat, lng float64) (domain.Marker, error) {
	pos := domain.Coordinates{Lat: lat, Lng: lng}
	if !pos.IsFinite() {
		return domain.Marker{}, fmt.Errorf("replace marker %q: %w", id, ErrInvalidPosition)
	}

	m.mu.Lock()
	idx := m.markerIndex(id)
	if idx < 0 {
		m.mu.Unlock()
		return domain.Marker{}, fmt.Errorf("replace marker %q: %w", id, ErrMarkerNotFound)
	}

	snap := m.snapshot()
	marker := domain.Marker{
		ID:       id,
		Position: pos,
		Label:    domain.MarkerLabel(pos),
		Status:   m.initialStatus(),
	}
	m.markers[idx] = marker

	if err := m.writeThrough(ctx, snap, KeyMarkers); err != nil {
		m.mu.Unlock()
		return domain.Marker{}, fmt.Errorf("replace marker %q: %w", id, err)
	}

	m.generation++
	gen := m.generation
	m.mu.Unlock()

	m.resolveAsync(id, pos, gen)

	return marker, nil
}

func (m *ItineraryManager) initialStatus() domain.AddressStatus {
	if m.resolver == nil {
		return domain.AddressFailed
	}
	return domain.AddressPending
}

func (m *ItineraryManager) resolveAsync(id string, pos domain.Coordinates, gen uint64) {
	if m.resolver == nil {
		return
	}

	m.mu.Lock()
	m.draft.Pending++
	m.mu.Unlock()

	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()

		addr := m.resolver.ReverseGeocode(m.baseCtx, pos.Lat, pos.Lng)
		m.applyAddress(id, pos, gen, addr)
	}()
}

// applyAddress records a finished lookup. Results for markers that were
// removed or moved since the lookup started are dropped.
func (m *ItineraryManager) applyAddress(id string, pos domain.Coordinates, gen uint64, addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() {
		if m.draft.Pending > 0 {
			m.draft.Pending--
		}
	}()

	idx := m.markerIndex(id)
	if idx < 0 || m.markers[idx].Position != pos {
		log.Debug().Str("marker_id", id).Msg("dropping stale address lookup")
		return
	}

	snap := m.snapshot()

	mk := m.markers[idx]
	if addr == "" {
		mk.Status = domain.AddressFailed
	} else {
		mk.Address = addr
		mk.Status = domain.AddressResolved
	}
	m.markers[idx] = mk

	if addr != "" && gen != 0 && gen == m.generation {
		if m.draft.From == "" {
			m.draft.From = addr
			m.draft.FromMarkerID = id
		}
		m.draft.To = addr
		m.draft.ToMarkerID = id
	}

	if err := m.writeThrough(m.baseCtx, snap, KeyMarkers); err != nil {
		log.Error().Err(err).Str("marker_id", id).Msg("persist resolved address failed")
	}
}

// AddOrUpdateEntry replaces the entry at editIndex when it is given and in
// range, otherwise appends a new entry. replaced reports which one happened.
// Invalid fields leave state untouched.
func (m *ItineraryManager) AddOrUpdateEntry(
	ctx context.Context,
	fields domain.EntryFields,
	editIndex *int,
) (_ domain.ItineraryEntry, replaced bool, _ error) {
	entry, err := fields.Validate()
	if err != nil {
		return domain.ItineraryEntry{}, false, fmt.Errorf("add itinerary entry: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkMarkerIDs(entry.MarkerIDs); err != nil {
		return domain.ItineraryEntry{}, false, fmt.Errorf("add itinerary entry: %w", err)
	}

	snap := m.snapshot()

	replaced = editIndex != nil && *editIndex >= 0 && *editIndex < len(m.entries)
	if replaced {
		entry.ID = m.entries[*editIndex].ID
		m.entries[*editIndex] = entry
	} else {
		entry.ID = m.newID()
		m.entries = append(m.entries, entry)
	}
	m.resetDraft()

	if err := m.writeThrough(ctx, snap, KeyItinerary); err != nil {
		return domain.ItineraryEntry{}, false, fmt.Errorf("add itinerary entry: %w", err)
	}

	return entry, replaced, nil
}

// UpdateEntry replaces the entry with the given ID in place.
func (m *ItineraryManager) UpdateEntry(
	ctx context.Context,
	id string,
	fields domain.EntryFields,
) (domain.ItineraryEntry, error) {
	entry, err := fields.Validate()
	if err != nil {
		return domain.ItineraryEntry{}, fmt.Errorf("update itinerary entry %q: %w", id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.entryIndex(id)
	if idx < 0 {
		return domain.ItineraryEntry{}, fmt.Errorf("update itinerary entry %q: %w", id, ErrEntryNotFound)
	}
	if err := m.checkMarkerIDs(entry.MarkerIDs); err != nil {
		return domain.ItineraryEntry{}, fmt.Errorf("update itinerary entry %q: %w", id, err)
	}

	snap := m.snapshot()
	entry.ID = id
	m.entries[idx] = entry
	m.resetDraft()

	if err := m.writeThrough(ctx, snap, KeyItinerary); err != nil {
		return domain.ItineraryEntry{}, fmt.Errorf("update itinerary entry %q: %w", id, err)
	}

	return entry, nil
}

// DeleteEntryAt removes the entry at index; later entries shift down by one.
func (m *ItineraryManager) DeleteEntryAt(ctx context.Context, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.entries) {
		return fmt.Errorf("delete itinerary entry at %d (len=%d): %w", index, len(m.entries), ErrIndexOutOfRange)
	}

	return m.deleteEntry(ctx, index)
}

// DeleteEntry removes the entry with the given ID.
func (m *ItineraryManager) DeleteEntry(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.entryIndex(id)
	if idx < 0 {
		return fmt.Errorf("delete itinerary entry %q: %w", id, ErrEntryNotFound)
	}

	return m.deleteEntry(ctx, idx)
}

func (m *ItineraryManager) deleteEntry(ctx context.Context, idx int) error {
	snap := m.snapshot()
	m.entries = slices.Delete(m.entries, idx, idx+1)

	if err := m.writeThrough(ctx, snap, KeyItinerary); err != nil {
		return fmt.Errorf("delete itinerary entry: %w", err)
	}
	return nil
}

// ClearAll empties both lists and removes their persisted representation.
// Lookups still in flight are discarded when they finish.
func (m *ItineraryManager) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	m.markers = nil
	m.entries = nil
	m.resetDraft()

	for _, key := range []string{KeyItinerary, KeyMarkers} {
		if err := m.store.Remove(ctx, key); err != nil {
			m.restore(snap)
			m.rewrite(ctx, KeyItinerary, KeyMarkers)
			return fmt.Errorf("clear all: remove %q: %w", key, err)
		}
	}

	return nil
}

func (m *ItineraryManager) Markers() []domain.Marker {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.markers)
}

func (m *ItineraryManager) Entries() []domain.ItineraryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.ItineraryEntry, 0, len(m.entries))
	for _, e := range m.entries {
		e.MarkerIDs = slices.Clone(e.MarkerIDs)
		out = append(out, e)
	}
	return out
}

func (m *ItineraryManager) Draft() Draft {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.draft
}

// Route is the path through all markers in list order.
func (m *ItineraryManager) Route() domain.Route {
	return domain.NewRoute(m.Markers())
}

// Wait blocks until all address lookups started so far have been applied.
func (m *ItineraryManager) Wait() {
	m.inflight.Wait()
}

// Close cancels the lookup context and waits for in-flight lookups to be applied.
// A resolver that detaches from cancellation is bounded by its own timeout.
func (m *ItineraryManager) Close() {
	m.cancel()
	m.inflight.Wait()
}

func (m *ItineraryManager) markerIndex(id string) int {
	return slices.IndexFunc(m.markers, func(mk domain.Marker) bool { return mk.ID == id })
}

func (m *ItineraryManager) entryIndex(id string) int {
	return slices.IndexFunc(m.entries, func(e domain.ItineraryEntry) bool { return e.ID == id })
}

func (m *ItineraryManager) checkMarkerIDs(ids []string) error {
	for _, id := range ids {
		if m.markerIndex(id) < 0 {
			return fmt.Errorf("marker %q: %w", id, ErrMarkerNotFound)
		}
	}
	return nil
}

func (m *ItineraryManager) resetDraft() {
	m.draft = Draft{Pending: m.draft.Pending}
}

// snapshot copies the mutable state; callers hold mu.
func (m *ItineraryManager) snapshot() snapshot {
	return snapshot{
		markers: slices.Clone(m.markers),
		entries: slices.Clone(m.entries),
		draft:   m.draft,
	}
}

// restore puts a snapshot back, keeping the live in-flight counter.
func (m *ItineraryManager) restore(s snapshot) {
	pending := m.draft.Pending
	m.markers = s.markers
	m.entries = s.entries
	m.draft = s.draft
	m.draft.Pending = pending
}

// writeThrough persists the given lists. On failure memory is restored from
// snap and keys written before the failure are rewritten from restored memory.
func (m *ItineraryManager) writeThrough(ctx context.Context, snap snapshot, keys ...string) error {
	written := make([]string, 0, len(keys))
	for _, key := range keys {
		if err := m.save(ctx, key); err != nil {
			m.restore(snap)
			m.rewrite(ctx, written...)
			return fmt.Errorf("write through %q: %w", key, err)
		}
		written = append(written, key)
	}
	return nil
}

// rewrite is a best-effort resync of keys after a failed write.
func (m *ItineraryManager) rewrite(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := m.save(ctx, key); err != nil {
			log.Error().Err(err).Str("key", key).Msg("resync persisted state failed")
		}
	}
}

func (m *ItineraryManager) save(ctx context.Context, key string) error {
	var (
		raw string
		err error
	)

	switch key {
	case KeyMarkers:
		raw, err = EncodeMarkers(m.markers)
	case KeyItinerary:
		raw, err = EncodeEntries(m.entries)
	default:
		return fmt.Errorf("unknown state key %q", key)
	}
	if err != nil {
		return err
	}

	return m.store.Save(ctx, key, raw)
}
