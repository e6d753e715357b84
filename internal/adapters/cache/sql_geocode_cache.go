package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"itinerary-planner-service/internal/platform/obs"
	"itinerary-planner-service/internal/ports"
	"strings"
)

var _ ports.ReverseGeocodeCache = (*SQLGeocodeCache)(nil)

// SQLGeocodeCache is a PostgreSQL-backed cache mapping coordinate keys to addresses.
type SQLGeocodeCache struct {
	DB *sql.DB
}

func NewSQLGeocodeCache(db *sql.DB) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db}
}

// Fetch the cached address for a coordinate key.
func (s *SQLGeocodeCache) Get(ctx context.Context, key string) (_ string, _ bool, err error) {
	defer obs.Time(ctx, "geocode.cache.Get")(&err)

	if s.DB == nil {
		return "", false, errors.New("geocode cache: db is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, errors.New("get geocode cache: key must not be empty")
	}

	q := `
	SELECT address
    FROM reverse_geocode_cache
    WHERE coord_key = $1;
	`

	var address string
	err = s.DB.QueryRowContext(ctx, q, key).Scan(&address)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get geocode cache: query reverse_geocode_cache table: %w", err)
	}

	return address, true, nil
}

// Store a coordinate key -> address mapping in the cache.
func (s *SQLGeocodeCache) Put(ctx context.Context, key string, address string) error {
	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("insert geocode cache: empty coordinate key")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO reverse_geocode_cache (coord_key, address, fetched_at)
    VALUES ($1, $2, NOW())
	ON CONFLICT (coord_key) DO UPDATE
	SET address = EXCLUDED.address,
		fetched_at = EXCLUDED.fetched_at;
	`, key, address)
	if err != nil {
		return fmt.Errorf("insert geocode cache coord=%q: %w", key, err)
	}

	return nil
}
