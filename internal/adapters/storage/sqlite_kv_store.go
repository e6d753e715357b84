package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"itinerary-planner-service/internal/platform/obs"
	"itinerary-planner-service/internal/ports"

	"github.com/jmoiron/sqlx"
)

var _ ports.KVStore = (*SqliteKVStore)(nil)

// SQLite-backed implementation of the KVStore port.
type SqliteKVStore struct {
	DB *sqlx.DB
}

func NewSqliteKVStore(db *sqlx.DB) *SqliteKVStore {
	return &SqliteKVStore{DB: db}
}

func (s *SqliteKVStore) Load(ctx context.Context, key string) (_ string, _ bool, err error) {
	defer obs.Time(ctx, "kv.sqlite.Load")(&err)

	if s.DB == nil {
		return "", false, errors.New("sqlite kv store: DB is nil")
	}

	var value string
	err = s.DB.GetContext(ctx, &value, `SELECT value FROM kv_store WHERE store_key = ?;`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load key %q: query kv_store table: %w", key, err)
	}

	return value, true, nil
}

func (s *SqliteKVStore) Save(ctx context.Context, key string, value string) (err error) {
	defer obs.Time(ctx, "kv.sqlite.Save")(&err)

	if s.DB == nil {
		return errors.New("sqlite kv store: DB is nil")
	}

	q := `
	INSERT INTO kv_store (store_key, value, updated_at)
	VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT (store_key) DO UPDATE
	SET value = excluded.value,
		updated_at = excluded.updated_at;
	`
	if _, err := s.DB.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("save key %q: %w", key, err)
	}

	return nil
}

func (s *SqliteKVStore) Remove(ctx context.Context, key string) (err error) {
	defer obs.Time(ctx, "kv.sqlite.Remove")(&err)

	if s.DB == nil {
		return errors.New("sqlite kv store: DB is nil")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM kv_store WHERE store_key = ?;`, key); err != nil {
		return fmt.Errorf("remove key %q: %w", key, err)
	}

	return nil
}
