package domain

// Represents the path drawn through the markers in list order.
// It is derived data; nothing about it is persisted.
type Route struct {
	MarkerIDs      []string
	Points         []Coordinates
	DistanceMeters float64
}

// Build a Route through the given markers, preserving their order.
func NewRoute(markers []Marker) Route {
	r := Route{
		MarkerIDs: make([]string, 0, len(markers)),
		Points:    make([]Coordinates, 0, len(markers)),
	}

	for i, m := range markers {
		r.MarkerIDs = append(r.MarkerIDs, m.ID)
		r.Points = append(r.Points, m.Position)
		if i > 0 {
			r.DistanceMeters += markers[i-1].Position.DistanceTo(m.Position)
		}
	}

	return r
}
