package ports

import (
	"context"
	"itinerary-planner-service/internal/domain"
)

// Contract for resolving coordinates to a human-readable place name.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, pos domain.Coordinates) (string, error)
}

// Persistent cache of reverse geocode results keyed by a normalized coordinate key.
type ReverseGeocodeCache interface {
	Get(ctx context.Context, key string) (address string, ok bool, err error)
	Put(ctx context.Context, key string, address string) error
}
