package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migrations[i] upgrades a database from user_version i to i+1. schema.sql
// always describes version 0.
var migrations = []string{
	// A seq is stamped once; a duplicate can only be a double write.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_mutations_seq_unique ON mutations(seq)`,
}

// connParams are applied by the driver to every connection it opens.
var connParams = url.Values{
	"_journal_mode": {"WAL"},
	"_synchronous":  {"NORMAL"},
	"_busy_timeout": {"5000"},
	"_foreign_keys": {"on"},
}

// Journal is the SQLite-backed mutation log and snapshot store. It
// implements engine.Journal and engine.MutationSource.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal at path and brings its schema up to
// date. Opening an existing journal is safe.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path+"?"+connParams.Encode())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One connection: SQLite has a single writer and the engine serializes
	// mutations anyway.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Journal{db: db}, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var version int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	for ; version < len(migrations); version++ {
		if _, err := db.Exec(migrations[version]); err != nil {
			return fmt.Errorf("migrate to v%d: %w", version+1, err)
		}
		if _, err := db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, version+1)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Head returns the highest recorded seq, or 0 for an empty log.
func (j *Journal) Head(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := j.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM mutations`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("read head: %w", err)
	}
	return seq.Int64, nil
}

// pragma reads a single pragma value.
func (j *Journal) pragma(name string) (string, error) {
	var value string
	err := j.db.QueryRow("PRAGMA " + name).Scan(&value)
	return value, err
}
