package dto

// MarkerRequest is a map click (POST /markers) or a marker move (PUT /markers/{id}).
// Pointers distinguish a missing coordinate from 0.
type MarkerRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type MarkerResponse struct {
	ID      string  `json:"id"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Label   string  `json:"label"`
	Address string  `json:"address,omitempty"`
	Status  string  `json:"status"`
}

type ListMarkerResponse struct {
	Markers []MarkerResponse `json:"markers"`
}

type DraftResponse struct {
	From         string `json:"from"`
	To           string `json:"to"`
	FromMarkerID string `json:"from_marker_id,omitempty"`
	ToMarkerID   string `json:"to_marker_id,omitempty"`
	Pending      int    `json:"pending"`
}

type ReverseGeocodeResponse struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address"`
	Found   bool    `json:"found"`
}
