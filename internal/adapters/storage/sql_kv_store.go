package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"itinerary-planner-service/internal/platform/obs"
	"itinerary-planner-service/internal/ports"
)

var _ ports.KVStore = (*SQLKVStore)(nil)

// SQLKVStore is a PostgreSQL-backed KVStore.
type SQLKVStore struct {
	DB *sql.DB
}

func NewSQLKVStore(db *sql.DB) *SQLKVStore {
	return &SQLKVStore{DB: db}
}

func (s *SQLKVStore) Load(ctx context.Context, key string) (_ string, _ bool, err error) {
	defer obs.Time(ctx, "kv.sql.Load")(&err)

	if s.DB == nil {
		return "", false, errors.New("sql kv store: db is nil")
	}

	var value string
	err = s.DB.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE store_key = $1;`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load key %q: query kv_store table: %w", key, err)
	}

	return value, true, nil
}

func (s *SQLKVStore) Save(ctx context.Context, key string, value string) (err error) {
	defer obs.Time(ctx, "kv.sql.Save")(&err)

	if s.DB == nil {
		return errors.New("sql kv store: db is nil")
	}

	q := `
	INSERT INTO kv_store (store_key, value, updated_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (store_key) DO UPDATE
	SET value = EXCLUDED.value,
		updated_at = EXCLUDED.updated_at;
	`
	if _, err := s.DB.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("save key %q: %w", key, err)
	}

	return nil
}

func (s *SQLKVStore) Remove(ctx context.Context, key string) (err error) {
	defer obs.Time(ctx, "kv.sql.Remove")(&err)

	if s.DB == nil {
		return errors.New("sql kv store: db is nil")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM kv_store WHERE store_key = $1;`, key); err != nil {
		return fmt.Errorf("remove key %q: %w", key, err)
	}

	return nil
}
