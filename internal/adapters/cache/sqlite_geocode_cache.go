package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"itinerary-planner-service/internal/platform/obs"
	"itinerary-planner-service/internal/ports"
	"strings"

	"github.com/jmoiron/sqlx"
)

var _ ports.ReverseGeocodeCache = (*SqliteGeocodeCache)(nil)

// SQLite backed cache mapping coordinate keys to resolved addresses.
// Keys are expected to be normalized (rounded) by the caller.
type SqliteGeocodeCache struct {
	DB *sqlx.DB
}

func NewSqliteGeocodeCache(db *sqlx.DB) *SqliteGeocodeCache {
	return &SqliteGeocodeCache{DB: db}
}

// Fetch the cached address for a coordinate key.
func (s *SqliteGeocodeCache) Get(ctx context.Context, key string) (_ string, _ bool, err error) {
	defer obs.Time(ctx, "geocode.cache.sqlite.Get")(&err)

	if s.DB == nil {
		return "", false, errors.New("geocode cache: db is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, errors.New("get geocode cache: key must not be empty")
	}

	var address string
	err = s.DB.GetContext(ctx, &address, `
	SELECT address
    FROM reverse_geocode_cache
    WHERE coord_key = ?;
	`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get geocode cache: query reverse_geocode_cache table: %w", err)
	}

	return address, true, nil
}

// Store a coordinate key -> address mapping in the cache.
func (s *SqliteGeocodeCache) Put(ctx context.Context, key string, address string) error {
	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("insert geocode cache: empty coordinate key")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO reverse_geocode_cache (
        coord_key,
        address,
        fetched_at
    )
    VALUES (?, ?, CURRENT_TIMESTAMP);
	`, key, address)
	if err != nil {
		return fmt.Errorf("insert geocode cache coord=%q: %w", key, err)
	}

	return nil
}
