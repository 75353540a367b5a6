package db

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"sort"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

func NewDB(dsn string) (*DB, error) {
	if dsn == "" {
		return nil, errors.New("database DSN is required")
	}

	d, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection keeps sqlite writes serialized and makes
	// :memory: databases usable in tests.
	d.SetMaxOpenConns(1)

	return &DB{d}, nil
}

func (d *DB) Close() error {
	return d.DB.Close()
}

//go:embed migration
var migrationFS embed.FS

// Migrate applies every schema file not yet recorded in migration_history,
// in lexical order.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS migration_history (
			version TEXT NOT NULL PRIMARY KEY,
			created_ts TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return errors.Wrap(err, "failed to create migration history table")
	}

	applied, err := d.appliedVersions(ctx)
	if err != nil {
		return err
	}

	entries, err := fs.Glob(migrationFS, "migration/*.sql")
	if err != nil {
		return errors.Wrap(err, "failed to read migration files")
	}
	sort.Strings(entries)

	for _, name := range entries {
		if applied[name] {
			continue
		}
		buf, err := migrationFS.ReadFile(name)
		if err != nil {
			return errors.Wrapf(err, "failed to read migration %s", name)
		}
		if err := d.applyMigration(ctx, name, string(buf)); err != nil {
			return errors.Wrapf(err, "failed to apply migration %s", name)
		}
	}
	return nil
}

func (d *DB) applyMigration(ctx context.Context, name, stmt string) error {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO migration_history (version) VALUES (?)`, name); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *DB) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := d.DB.QueryContext(ctx, "SELECT version FROM migration_history")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list migration history")
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}
