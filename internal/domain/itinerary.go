package domain

import (
	"errors"
	"strings"
)

// RouteSeparator joins the ordered location labels of a route description.
const RouteSeparator = " - "

var (
	ErrInvalidEntry     = errors.New("title, arrival date, duration and at least one location are required")
	ErrNegativeDuration = errors.New("stay duration must be a non-negative number of days")
)

// Represents a planned trip segment.
// Entries are ordered by insertion; ID is stable across edits and reorderings.
// MarkerIDs links the entry to the map markers its locations came from.
type ItineraryEntry struct {
	ID               string
	Title            string
	ArrivalDate      Date
	StayDurationDays int
	RouteDescription string
	MarkerIDs        []string
}

// Departure day, arrival plus the length of the stay.
func (e ItineraryEntry) DepartureDate() Date {
	return e.ArrivalDate.AddDays(e.StayDurationDays)
}

// Stops splits the route description back into its location labels.
func (e ItineraryEntry) Stops() []string {
	if e.RouteDescription == "" {
		return nil
	}
	return strings.Split(e.RouteDescription, RouteSeparator)
}

// Raw form input for creating or editing an itinerary entry.
// StayDurationDays is nil when the field was left blank.
type EntryFields struct {
	Title            string
	ArrivalDate      string
	StayDurationDays *int
	Stops            []string
	MarkerIDs        []string
}

// Build a route description from ordered location labels.
func RouteDescription(stops ...string) string {
	trimmed := make([]string, 0, len(stops))
	for _, s := range stops {
		trimmed = append(trimmed, strings.TrimSpace(s))
	}
	return strings.Join(trimmed, RouteSeparator)
}

// Validate checks the required fields and returns the normalized entry
// (without an ID). It never mutates the input.
func (f EntryFields) Validate() (ItineraryEntry, error) {
	title := strings.TrimSpace(f.Title)
	if title == "" || strings.TrimSpace(f.ArrivalDate) == "" || f.StayDurationDays == nil {
		return ItineraryEntry{}, ErrInvalidEntry
	}

	if *f.StayDurationDays < 0 {
		return ItineraryEntry{}, ErrNegativeDuration
	}

	if len(f.Stops) == 0 {
		return ItineraryEntry{}, ErrInvalidEntry
	}
	for _, s := range f.Stops {
		if strings.TrimSpace(s) == "" {
			return ItineraryEntry{}, ErrInvalidEntry
		}
	}

	date, err := ParseDate(f.ArrivalDate)
	if err != nil {
		return ItineraryEntry{}, errors.Join(ErrInvalidEntry, err)
	}

	var markerIDs []string
	if len(f.MarkerIDs) > 0 {
		markerIDs = append([]string(nil), f.MarkerIDs...)
	}

	return ItineraryEntry{
		Title:            title,
		ArrivalDate:      date,
		StayDurationDays: *f.StayDurationDays,
		RouteDescription: RouteDescription(f.Stops...),
		MarkerIDs:        markerIDs,
	}, nil
}
