package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// schemaSQL is the current schema. Fresh databases are created from it
// directly; older ones are brought up to it by migrations.
//
//go:embed schema.sql
var schemaSQL string

// migration upgrades a database from version i to i+1, where i is its index
// in migrations.
type migration struct {
	name string
	stmt string
}

// migrations are applied in order to databases whose user_version is below
// len(migrations).
//
//	0 -> 1: runs.carryovers, backfilled from the stored report
var migrations = []migration{
	{
		name: "runs.carryovers",
		stmt: `
			ALTER TABLE runs ADD COLUMN carryovers INTEGER NOT NULL DEFAULT 0;
			UPDATE runs SET carryovers = COALESCE(json_array_length(report, '$.carryovers'), 0);
		`,
	},
}

func schemaVersion() int { return len(migrations) }

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Store is the run history: one row per scenario run plus its trace.
type Store struct {
	db *sql.DB
}

// Open creates or opens the run history at path, configures SQLite for a
// single writer in WAL mode and upgrades the schema if needed. Opening the
// same path repeatedly is safe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if err := prepareSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// prepareSchema creates a fresh database at the current version, or
// migrates an existing one forward from its user_version.
func prepareSchema(db *sql.DB) error {
	var tables int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'runs'`).Scan(&tables); err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}

	version := schemaVersion()
	if tables > 0 {
		if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
			return fmt.Errorf("read user_version: %w", err)
		}
		if version > schemaVersion() {
			return fmt.Errorf("database schema version %d is newer than supported version %d", version, schemaVersion())
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := version; i < schemaVersion(); i++ {
		if _, err := tx.Exec(migrations[i].stmt); err != nil {
			return fmt.Errorf("migrate to v%d (%s): %w", i+1, migrations[i].name, err)
		}
	}
	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion())); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return tx.Commit()
}

// pragma returns the current value of a pragma as text.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("query %s: %w", name, err)
	}
	return value, nil
}
