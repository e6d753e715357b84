package domain

import (
	"errors"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestEntryFieldsValidate(t *testing.T) {
	fields := EntryFields{
		Title:            " Paris Trip ",
		ArrivalDate:      "2024-06-01",
		StayDurationDays: intPtr(5),
		Stops:            []string{"A", "B"},
	}

	entry, err := fields.Validate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entry.Title != "Paris Trip" {
		t.Errorf("title = %q, want %q", entry.Title, "Paris Trip")
	}
	if entry.ArrivalDate.String() != "2024-06-01" {
		t.Errorf("arrival date = %s, want 2024-06-01", entry.ArrivalDate)
	}
	if entry.StayDurationDays != 5 {
		t.Errorf("duration = %d, want 5", entry.StayDurationDays)
	}
	if entry.RouteDescription != "A - B" {
		t.Errorf("route = %q, want %q", entry.RouteDescription, "A - B")
	}
	if got := entry.DepartureDate().String(); got != "2024-06-06" {
		t.Errorf("departure = %s, want 2024-06-06", got)
	}
}

func TestEntryFieldsValidateRejects(t *testing.T) {
	valid := func() EntryFields {
		return EntryFields{
			Title:            "Trip",
			ArrivalDate:      "2024-06-01",
			StayDurationDays: intPtr(1),
			Stops:            []string{"A"},
		}
	}

	tests := []struct {
		name   string
		modify func(f *EntryFields)
		want   error
	}{
		{"blank title", func(f *EntryFields) { f.Title = "  " }, ErrInvalidEntry},
		{"blank date", func(f *EntryFields) { f.ArrivalDate = "" }, ErrInvalidEntry},
		{"bad date", func(f *EntryFields) { f.ArrivalDate = "01/06/2024" }, ErrInvalidEntry},
		{"missing duration", func(f *EntryFields) { f.StayDurationDays = nil }, ErrInvalidEntry},
		{"negative duration", func(f *EntryFields) { f.StayDurationDays = intPtr(-1) }, ErrNegativeDuration},
		{"no stops", func(f *EntryFields) { f.Stops = nil }, ErrInvalidEntry},
		{"blank stop", func(f *EntryFields) { f.Stops = []string{"A", " "} }, ErrInvalidEntry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid()
			tt.modify(&f)

			_, err := f.Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestItineraryEntryStops(t *testing.T) {
	e := ItineraryEntry{RouteDescription: RouteDescription("Paris", "Lyon", "Nice")}

	stops := e.Stops()
	if len(stops) != 3 || stops[0] != "Paris" || stops[2] != "Nice" {
		t.Fatalf("stops = %v", stops)
	}

	if got := (ItineraryEntry{}).Stops(); got != nil {
		t.Fatalf("empty route stops = %v, want nil", got)
	}
}

func TestDateJSON(t *testing.T) {
	var d Date
	if err := d.UnmarshalJSON([]byte(`"2024-02-29"`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != `"2024-02-29"` {
		t.Fatalf("marshal = %s", b)
	}

	if err := d.UnmarshalJSON([]byte(`"2023-02-29"`)); err == nil {
		t.Fatal("expected error for invalid day")
	}
}
