package tiles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"itinerary-planner-service/internal/platform/obs"
	"itinerary-planner-service/internal/ports"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultUpstream = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	MaxZoom         = 19
	maxTileBytes    = 2 << 20
)

var _ ports.TileSource = (*Proxy)(nil)

var ErrInvalidTile = errors.New("invalid tile coordinates")

// Config for the tile proxy. Zero values fall back to OpenStreetMap defaults.
type Config struct {
	Upstream     string
	Subdomains   []string
	CacheEntries int
	Timeout      time.Duration
	UserAgent    string
}

// Stats is a point-in-time snapshot of proxy counters.
type Stats struct {
	Hits        uint64
	Misses      uint64
	Errors      uint64
	Entries     int
	BytesServed uint64
}

// Proxy fetches map tiles from an upstream tile server and keeps the most
// recently used ones in memory. Concurrent misses for the same tile share
// one upstream request.
type Proxy struct {
	client     *http.Client
	upstream   string
	subdomains []string
	userAgent  string
	next       atomic.Uint64

	cache *lru.Cache[ports.TileKey, []byte]
	group singleflight.Group

	hits        atomic.Uint64
	misses      atomic.Uint64
	errors      atomic.Uint64
	bytesServed atomic.Uint64
}

func NewProxy(cfg Config) (*Proxy, error) {
	upstream := strings.TrimSpace(cfg.Upstream)
	if upstream == "" {
		upstream = DefaultUpstream
	}
	for _, ph := range []string{"{z}", "{x}", "{y}"} {
		if !strings.Contains(upstream, ph) {
			return nil, fmt.Errorf("tile proxy: upstream %q lacks %s placeholder", upstream, ph)
		}
	}

	subdomains := cfg.Subdomains
	if len(subdomains) == 0 {
		subdomains = []string{"a", "b", "c"}
	}

	entries := cfg.CacheEntries
	if entries <= 0 {
		entries = 2048
	}
	cache, err := lru.New[ports.TileKey, []byte](entries)
	if err != nil {
		return nil, fmt.Errorf("tile proxy: create cache: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = "itinerary-planner-service/1.0"
	}

	return &Proxy{
		client:     &http.Client{Timeout: timeout},
		upstream:   upstream,
		subdomains: subdomains,
		userAgent:  userAgent,
		cache:      cache,
	}, nil
}

// ValidateTileKey checks z is within zoom range and x, y fit the 2^z grid.
func ValidateTileKey(k ports.TileKey) error {
	if k.Z < 0 || k.Z > MaxZoom {
		return fmt.Errorf("%w: zoom %d out of range 0..%d", ErrInvalidTile, k.Z, MaxZoom)
	}
	n := 1 << k.Z
	if k.X < 0 || k.X >= n || k.Y < 0 || k.Y >= n {
		return fmt.Errorf("%w: x=%d y=%d outside %dx%d grid", ErrInvalidTile, k.X, k.Y, n, n)
	}
	return nil
}

func (p *Proxy) tileURL(k ports.TileKey) string {
	s := p.subdomains[p.next.Add(1)%uint64(len(p.subdomains))]
	r := strings.NewReplacer(
		"{s}", s,
		"{z}", strconv.Itoa(k.Z),
		"{x}", strconv.Itoa(k.X),
		"{y}", strconv.Itoa(k.Y),
	)
	return r.Replace(p.upstream)
}

// Tile returns the PNG bytes for k, from cache when possible.
func (p *Proxy) Tile(ctx context.Context, k ports.TileKey) (_ []byte, err error) {
	if err := ValidateTileKey(k); err != nil {
		return nil, err
	}

	if data, ok := p.cache.Get(k); ok {
		p.hits.Add(1)
		p.bytesServed.Add(uint64(len(data)))
		return data, nil
	}
	p.misses.Add(1)

	defer obs.Time(ctx, "tiles.fetch")(&err)

	flightKey := fmt.Sprintf("%d/%d/%d", k.Z, k.X, k.Y)
	// The shared fetch must outlive any single waiting request.
	fetchCtx := context.WithoutCancel(ctx)

	v, err, _ := p.group.Do(flightKey, func() (any, error) {
		data, err := p.fetch(fetchCtx, k)
		if err != nil {
			return nil, err
		}
		p.cache.Add(k, data)
		return data, nil
	})
	if err != nil {
		p.errors.Add(1)
		return nil, fmt.Errorf("fetch tile %s: %w", flightKey, err)
	}

	data := v.([]byte)
	p.bytesServed.Add(uint64(len(data)))
	return data, nil
}

func (p *Proxy) fetch(ctx context.Context, k ports.TileKey) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.tileURL(k), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected upstream status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTileBytes))
	if err != nil {
		return nil, fmt.Errorf("read tile body: %w", err)
	}

	return data, nil
}

func (p *Proxy) Stats() Stats {
	return Stats{
		Hits:        p.hits.Load(),
		Misses:      p.misses.Load(),
		Errors:      p.errors.Load(),
		Entries:     p.cache.Len(),
		BytesServed: p.bytesServed.Load(),
	}
}
