package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Entry is one row in the stamps table: the last stamp this process applied
// to a document.
type Entry struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Kind      string    `json:"kind"`
	DayTag    string    `json:"day_tag"`
	StampedAt time.Time `json:"stamped_at"`
}

// Record inserts or replaces the entry for a document.
func (db *DB) Record(e Entry) error {
	if e.StampedAt.IsZero() {
		e.StampedAt = time.Now()
	}
	_, err := db.conn.Exec(`
		INSERT INTO stamps (path, checksum, kind, day_tag, stamped_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			kind       = excluded.kind,
			day_tag    = excluded.day_tag,
			stamped_at = excluded.stamped_at
	`, e.Path, e.Checksum, e.Kind, e.DayTag, e.StampedAt)
	if err != nil {
		return fmt.Errorf("journal: record %s: %w", e.Path, err)
	}
	return nil
}

// Get returns the entry for a document, or nil when none is recorded.
func (db *DB) Get(path string) (*Entry, error) {
	var e Entry
	err := db.conn.QueryRow(`
		SELECT path, checksum, kind, day_tag, stamped_at
		FROM stamps WHERE path = ?
	`, path).Scan(&e.Path, &e.Checksum, &e.Kind, &e.DayTag, &e.StampedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("journal: get %s: %w", path, err)
	}
	return &e, nil
}

// Delete removes the entry for a document. Missing entries are fine.
func (db *DB) Delete(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM stamps WHERE path = ?`, path); err != nil {
		return fmt.Errorf("journal: delete %s: %w", path, err)
	}
	return nil
}

// Recent returns up to limit entries, most recently stamped first.
func (db *DB) Recent(limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT path, checksum, kind, day_tag, stamped_at
		FROM stamps ORDER BY stamped_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Path, &e.Checksum, &e.Kind, &e.DayTag, &e.StampedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Checksums returns the last written checksum for every journaled document.
func (db *DB) Checksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM stamps`)
	if err != nil {
		return nil, fmt.Errorf("journal: checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
