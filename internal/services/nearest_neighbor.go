package services

import (
	"errors"
	"fmt"
	"itinerary-planner-service/internal/domain"
	"math"
)

var ErrEmptyRoute = errors.New("no markers to order")

// NearestNeighborRoute orders markers with a greedy nearest-neighbor walk.
//
// The walk starts at the marker with startID (the first marker when empty)
// and always moves to the closest unvisited marker by great-circle distance.
// It does not attempt global optimization. Ties go to the marker that comes
// first in list order so the result is deterministic.
func NearestNeighborRoute(markers []domain.Marker, startID string) (domain.Route, error) {
	if len(markers) == 0 {
		return domain.Route{}, ErrEmptyRoute
	}

	start := 0
	if startID != "" {
		start = -1
		for i, m := range markers {
			if m.ID == startID {
				start = i
				break
			}
		}
		if start < 0 {
			return domain.Route{}, fmt.Errorf("nearest neighbor route: start %q: %w", startID, ErrMarkerNotFound)
		}
	}

	visited := make([]bool, len(markers))
	ordered := make([]domain.Marker, 0, len(markers))

	current := start
	visited[current] = true
	ordered = append(ordered, markers[current])

	for len(ordered) < len(markers) {
		best := -1
		bestDist := math.Inf(1)

		// Select next stop by minimum distance (greedy step).
		for i, m := range markers {
			if visited[i] {
				continue
			}
			d := markers[current].Position.DistanceTo(m.Position)
			if d < bestDist {
				best, bestDist = i, d
			}
		}

		visited[best] = true
		ordered = append(ordered, markers[best])
		current = best
	}

	return domain.NewRoute(ordered), nil
}
