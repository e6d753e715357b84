package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Apply all pending schema migrations for the given goose dialect.
// The same migration set serves SQLite and PostgreSQL.
func Migrate(db *sql.DB, dialect goose.Dialect) error {
	if db == nil {
		return errors.New("migrate: DB is nil")
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("migrate: set dialect %q: %w", dialect, err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("migrate: apply migrations: %w", err)
	}

	return nil
}
