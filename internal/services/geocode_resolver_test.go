package services

import (
	"context"
	"errors"
	"itinerary-planner-service/internal/adapters/geocode"
	"itinerary-planner-service/internal/domain"
	"sync"
	"testing"
)

type mapGeocodeCache struct {
	mu      sync.Mutex
	m       map[string]string
	failGet bool
}

func (c *mapGeocodeCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failGet {
		return "", false, errors.New("cache offline")
	}
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *mapGeocodeCache) Put(_ context.Context, key, address string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.m[key] = address
	return nil
}

func TestCacheKey(t *testing.T) {
	got := CacheKey(domain.Coordinates{Lat: 48.856613, Lng: 2.352222})
	if got != "48.85661,2.35222" {
		t.Fatalf("key = %q", got)
	}
}

func TestGeocodeResolverUsesCache(t *testing.T) {
	ctx := context.Background()
	geocoder := geocode.NewMockGeocoder(map[domain.Coordinates]string{paris: "Paris"})
	cache := &mapGeocodeCache{m: map[string]string{}}
	r := NewGeocodeResolver(geocoder, cache, 0)

	for i := 0; i < 3; i++ {
		if got := r.ReverseGeocode(ctx, paris.Lat, paris.Lng); got != "Paris" {
			t.Fatalf("lookup %d = %q", i, got)
		}
	}

	if geocoder.Calls() != 1 {
		t.Fatalf("expected 1 upstream call, got %d", geocoder.Calls())
	}
	if cache.m[CacheKey(paris)] != "Paris" {
		t.Fatalf("address not cached: %v", cache.m)
	}
}

func TestGeocodeResolverFailuresYieldEmpty(t *testing.T) {
	ctx := context.Background()

	r := NewGeocodeResolver(geocode.NewMockGeocoder(nil), nil, 0)
	if got := r.ReverseGeocode(ctx, 1, 2); got != "" {
		t.Fatalf("expected empty address, got %q", got)
	}

	var nilResolver *GeocodeResolver
	if got := nilResolver.ReverseGeocode(ctx, 1, 2); got != "" {
		t.Fatalf("expected empty address, got %q", got)
	}
}

func TestGeocodeResolverCacheErrorFallsThrough(t *testing.T) {
	geocoder := geocode.NewMockGeocoder(map[domain.Coordinates]string{paris: "Paris"})
	cache := &mapGeocodeCache{m: map[string]string{}, failGet: true}
	r := NewGeocodeResolver(geocoder, cache, 0)

	if got := r.ReverseGeocode(context.Background(), paris.Lat, paris.Lng); got != "Paris" {
		t.Fatalf("got %q", got)
	}
}

func TestGeocodeResolverCollapsesConcurrentLookups(t *testing.T) {
	geocoder := geocode.NewMockGeocoder(map[domain.Coordinates]string{paris: "Paris"})
	release := geocoder.HoldAt(paris)
	r := NewGeocodeResolver(geocoder, nil, 0)

	const n = 5
	results := make(chan string, n)
	for i := 0; i < n; i++ {
		go func() { results <- r.ReverseGeocode(context.Background(), paris.Lat, paris.Lng) }()
	}

	waitFor(t, func() bool { return geocoder.Calls() >= 1 })
	release()

	for i := 0; i < n; i++ {
		if got := <-results; got != "Paris" {
			t.Fatalf("result %d = %q", i, got)
		}
	}
	if geocoder.Calls() > n {
		t.Fatalf("unexpected call count %d", geocoder.Calls())
	}
}
