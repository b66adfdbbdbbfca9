// Package journal provides the SQLite-backed stamp ledger. It records, per
// document, the checksum of the last content this process wrote together
// with when and why, so the watcher can tell its own write-backs apart from
// user edits and the API can answer recent-stamp queries.
package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS stamps (
	path       TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL DEFAULT '',
	kind       TEXT NOT NULL DEFAULT '',
	day_tag    TEXT NOT NULL DEFAULT '',
	stamped_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_stamps_stamped_at ON stamps(stamped_at);
`

// Ledger defines the journal operations. Consumers should depend on this
// interface rather than the concrete *DB type to facilitate testing.
type Ledger interface {
	Record(e Entry) error
	Get(path string) (*Entry, error)
	Delete(path string) error
	Recent(limit int) ([]Entry, error)
	Checksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies Ledger at compile time.
var _ Ledger = (*DB)(nil)

// DB wraps a sql.DB with journal-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("journal: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
