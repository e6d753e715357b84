package geocode

import (
	"context"
	"fmt"
	"itinerary-planner-service/internal/domain"
	"sync"
	"sync/atomic"
)

// MockGeocoder answers from a fixed table keyed by "lat,lng" (rounded to 4 places).
// Unknown positions return an error.
type MockGeocoder struct {
	m     map[string]string
	calls atomic.Int64

	mu    sync.Mutex
	hooks map[string]chan struct{}
}

func NewMockGeocoder(addresses map[domain.Coordinates]string) *MockGeocoder {
	m := make(map[string]string, len(addresses))
	for pos, addr := range addresses {
		m[mockKey(pos)] = addr
	}
	return &MockGeocoder{m: m, hooks: make(map[string]chan struct{})}
}

func mockKey(pos domain.Coordinates) string {
	r := pos.Round(4)
	return fmt.Sprintf("%.4f,%.4f", r.Lat, r.Lng)
}

// HoldAt makes calls for pos wait until the returned release func is called.
func (g *MockGeocoder) HoldAt(pos domain.Coordinates) (release func()) {
	ch := make(chan struct{})

	g.mu.Lock()
	g.hooks[mockKey(pos)] = ch
	g.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Calls reports how many lookups reached the mock.
func (g *MockGeocoder) Calls() int { return int(g.calls.Load()) }

func (g *MockGeocoder) Reverse(ctx context.Context, pos domain.Coordinates) (string, error) {
	g.calls.Add(1)
	key := mockKey(pos)

	g.mu.Lock()
	hold := g.hooks[key]
	g.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	addr, ok := g.m[key]
	if !ok {
		return "", fmt.Errorf("missing address for %s", key)
	}

	return addr, nil
}
