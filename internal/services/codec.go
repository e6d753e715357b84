package services

import (
	"encoding/json"
	"fmt"
	"itinerary-planner-service/internal/domain"
)

// positionRecord is a marker position as persisted.
type positionRecord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// markerRecord represents a marker as persisted under the "markers" key.
type markerRecord struct {
	ID       string         `json:"id"`
	Position positionRecord `json:"position"`
	Label    string         `json:"label"`
	Address  string         `json:"address,omitempty"`
	Status   string         `json:"status,omitempty"`
}

// entryRecord represents an itinerary entry as persisted under the "itinerary" key.
type entryRecord struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	ArrivalDate      domain.Date `json:"arrivalDate"`
	StayDurationDays int         `json:"stayDurationDays"`
	RouteDescription string      `json:"routeDescription"`
	MarkerIDs        []string    `json:"markerIds,omitempty"`
}

func toMarkerRecord(m domain.Marker) markerRecord {
	return markerRecord{
		ID:       m.ID,
		Position: positionRecord{Lat: m.Position.Lat, Lng: m.Position.Lng},
		Label:    m.Label,
		Address:  m.Address,
		Status:   string(m.Status),
	}
}

func toDomainMarker(r markerRecord) domain.Marker {
	return domain.Marker{
		ID:       r.ID,
		Position: domain.Coordinates{Lat: r.Position.Lat, Lng: r.Position.Lng},
		Label:    r.Label,
		Address:  r.Address,
		Status:   domain.AddressStatus(r.Status),
	}
}

func toEntryRecord(e domain.ItineraryEntry) entryRecord {
	return entryRecord{
		ID:               e.ID,
		Title:            e.Title,
		ArrivalDate:      e.ArrivalDate,
		StayDurationDays: e.StayDurationDays,
		RouteDescription: e.RouteDescription,
		MarkerIDs:        e.MarkerIDs,
	}
}

func toDomainEntry(r entryRecord) domain.ItineraryEntry {
	return domain.ItineraryEntry{
		ID:               r.ID,
		Title:            r.Title,
		ArrivalDate:      r.ArrivalDate,
		StayDurationDays: r.StayDurationDays,
		RouteDescription: r.RouteDescription,
		MarkerIDs:        r.MarkerIDs,
	}
}

// EncodeMarkers serializes markers as a JSON array (never "null").
func EncodeMarkers(markers []domain.Marker) (string, error) {
	recs := make([]markerRecord, 0, len(markers))
	for _, m := range markers {
		recs = append(recs, toMarkerRecord(m))
	}

	b, err := json.Marshal(recs)
	if err != nil {
		return "", fmt.Errorf("encode markers: %w", err)
	}
	return string(b), nil
}

func DecodeMarkers(raw string) ([]domain.Marker, error) {
	var recs []markerRecord
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil, fmt.Errorf("decode markers: %w", err)
	}

	out := make([]domain.Marker, 0, len(recs))
	for i, r := range recs {
		if r.ID == "" {
			return nil, fmt.Errorf("decode markers: item %d has no id", i)
		}
		out = append(out, toDomainMarker(r))
	}
	return out, nil
}

// EncodeEntries serializes itinerary entries as a JSON array (never "null").
func EncodeEntries(entries []domain.ItineraryEntry) (string, error) {
	recs := make([]entryRecord, 0, len(entries))
	for _, e := range entries {
		recs = append(recs, toEntryRecord(e))
	}

	b, err := json.Marshal(recs)
	if err != nil {
		return "", fmt.Errorf("encode itinerary: %w", err)
	}
	return string(b), nil
}

func DecodeEntries(raw string) ([]domain.ItineraryEntry, error) {
	var recs []entryRecord
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil, fmt.Errorf("decode itinerary: %w", err)
	}

	out := make([]domain.ItineraryEntry, 0, len(recs))
	for i, r := range recs {
		if r.ID == "" {
			return nil, fmt.Errorf("decode itinerary: item %d has no id", i)
		}
		if r.StayDurationDays < 0 {
			return nil, fmt.Errorf("decode itinerary: item %d: %w", i, domain.ErrNegativeDuration)
		}
		out = append(out, toDomainEntry(r))
	}
	return out, nil
}
