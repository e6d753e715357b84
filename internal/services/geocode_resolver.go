package services

import (
	"context"
	"fmt"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/ports"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// GeocodeResolver turns coordinates into an address and never fails:
// any lookup problem yields "" and is only logged.
type GeocodeResolver struct {
	geocoder ports.ReverseGeocoder
	cache    ports.ReverseGeocodeCache
	timeout  time.Duration
	group    singleflight.Group
}

// NewGeocodeResolver wires a geocoder with an optional persistent cache.
// A non-positive timeout disables the per-lookup deadline.
func NewGeocodeResolver(
	geocoder ports.ReverseGeocoder,
	cache ports.ReverseGeocodeCache,
	timeout time.Duration,
) *GeocodeResolver {
	return &GeocodeResolver{geocoder: geocoder, cache: cache, timeout: timeout}
}

// CacheKey normalizes a position to 5 decimal places (about one metre).
func CacheKey(pos domain.Coordinates) string {
	r := pos.Round(5)
	return fmt.Sprintf("%.5f,%.5f", r.Lat, r.Lng)
}

func (r *GeocodeResolver) ReverseGeocode(ctx context.Context, lat, lng float64) string {
	if r == nil || r.geocoder == nil {
		return ""
	}

	pos := domain.Coordinates{Lat: lat, Lng: lng}
	key := CacheKey(pos)

	// Check persistent cache before issuing an external request.
	if r.cache != nil {
		addr, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("coord", key).Msg("geocode cache read failed")
		} else if ok && addr != "" {
			return addr
		}
	}

	v, _, _ := r.group.Do(key, func() (any, error) {
		lookupCtx := context.WithoutCancel(ctx)
		if r.timeout > 0 {
			var cancel context.CancelFunc
			lookupCtx, cancel = context.WithTimeout(lookupCtx, r.timeout)
			defer cancel()
		}

		addr, err := r.geocoder.Reverse(lookupCtx, pos)
		if err != nil {
			log.Warn().Err(err).Str("coord", key).Msg("reverse geocode failed")
			return "", nil
		}

		if r.cache != nil {
			if err := r.cache.Put(lookupCtx, key, addr); err != nil {
				log.Warn().Err(err).Str("coord", key).Msg("geocode cache write failed")
			}
		}
		return addr, nil
	})

	addr, _ := v.(string)
	return addr
}
