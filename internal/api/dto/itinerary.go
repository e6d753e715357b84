package dto

// EntryRequest mirrors the itinerary form. Either Stops or From/To name the
// locations; Stops wins when both are set.
type EntryRequest struct {
	Title            string   `json:"title"`
	ArrivalDate      string   `json:"arrival_date"`
	StayDurationDays *int     `json:"stay_duration_days"`
	From             string   `json:"from"`
	To               string   `json:"to"`
	Stops            []string `json:"stops"`
	MarkerIDs        []string `json:"marker_ids"`
	EditIndex        *int     `json:"edit_index"`
}

type EntryResponse struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	ArrivalDate      string   `json:"arrival_date"`
	DepartureDate    string   `json:"departure_date"`
	StayDurationDays int      `json:"stay_duration_days"`
	RouteDescription string   `json:"route_description"`
	Stops            []string `json:"stops"`
	From             string   `json:"from"`
	To               string   `json:"to"`
	MarkerIDs        []string `json:"marker_ids"`
}

type ListEntryResponse struct {
	Entries []EntryResponse `json:"entries"`
}
