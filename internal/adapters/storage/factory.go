package storage

import (
	"context"
	"errors"
	"fmt"
	"itinerary-planner-service/internal/adapters/cache"
	"itinerary-planner-service/internal/platform/db"
	"itinerary-planner-service/internal/ports"
	"os"
	"path/filepath"
	"strings"

	"github.com/pressly/goose/v3"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Options selects and configures a storage backend.
type Options struct {
	Backend      string
	SQLitePath   string
	DatabaseURL  string
	RedisAddr    string
	RedisPass    string
	RedisDB      int
	RedisPrefix  string
	GeocodeCache bool
}

// Backend bundles the opened stores with their shutdown hooks.
// GeocodeCache is nil when caching is disabled or the backend has no SQL database.
type Backend struct {
	Name         string
	KV           ports.KVStore
	GeocodeCache ports.ReverseGeocodeCache
	closers      []func() error
}

func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open creates the storage backend named in opts, applying migrations for SQL backends.
func Open(ctx context.Context, opts Options) (*Backend, error) {
	name := strings.ToLower(strings.TrimSpace(opts.Backend))

	switch name {
	case BackendSQLite:
		if dir := filepath.Dir(opts.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("open storage: create data dir %q: %w", dir, err)
			}
		}

		sqlDB, err := db.OpenSQLite(opts.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		if err := Migrate(sqlDB.DB, goose.DialectSQLite3); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("open storage: %w", err)
		}

		b := &Backend{
			Name:    name,
			KV:      NewSqliteKVStore(sqlDB),
			closers: []func() error{sqlDB.Close},
		}
		if opts.GeocodeCache {
			b.GeocodeCache = cache.NewSqliteGeocodeCache(sqlDB)
		}
		return b, nil

	case BackendPostgres:
		if strings.TrimSpace(opts.DatabaseURL) == "" {
			return nil, errors.New("open storage: DATABASE_URL is required for the postgres backend")
		}

		sqlDB, err := db.Open(opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		if err := Migrate(sqlDB, goose.DialectPostgres); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("open storage: %w", err)
		}

		b := &Backend{
			Name:    name,
			KV:      NewSQLKVStore(sqlDB),
			closers: []func() error{sqlDB.Close},
		}
		if opts.GeocodeCache {
			b.GeocodeCache = cache.NewSQLGeocodeCache(sqlDB)
		}
		return b, nil

	case BackendRedis:
		client, err := NewRedisClient(ctx, opts.RedisAddr, opts.RedisPass, opts.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}

		return &Backend{
			Name:    name,
			KV:      NewRedisKVStore(client, opts.RedisPrefix),
			closers: []func() error{client.Close},
		}, nil

	case BackendMemory:
		return &Backend{Name: name, KV: NewMemoryKVStore()}, nil

	default:
		return nil, fmt.Errorf("open storage: unknown backend %q", opts.Backend)
	}
}
