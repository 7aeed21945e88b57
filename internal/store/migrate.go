package store

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/matheus3301/mingle/internal/store/migrations"
)

// Migration reports the schema version before and after Migrate.
// From is 0 for a database that had never been migrated.
type Migration struct {
	From  uint
	To    uint
	Dirty bool
}

// Changed reports whether any migration ran.
func (m Migration) Changed() bool { return m.From != m.To }

// Migrate brings the kv and outbox tables up to the embedded schema.
func (db *DB) Migrate() (Migration, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return Migration{}, fmt.Errorf("migration source: %w", err)
	}
	drv, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	if err != nil {
		return Migration{}, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", drv)
	if err != nil {
		return Migration{}, fmt.Errorf("migration instance: %w", err)
	}

	var res Migration
	res.From, _, err = m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return res, fmt.Errorf("schema version: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return res, fmt.Errorf("migration up: %w", err)
	}
	res.To, res.Dirty, err = m.Version()
	if err != nil {
		return res, fmt.Errorf("schema version: %w", err)
	}
	return res, nil
}
