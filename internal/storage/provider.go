// Package storage defines the vault file-system abstraction.
package storage

import (
	"path/filepath"
	"time"
)

// FileInfo is lightweight metadata for one vault file.
type FileInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for vault file operations. Reads and writes are
// whole-content and single-shot; there is no streaming or partial update.
type Provider interface {
	// List returns metadata for every note file under dir (relative to vault root).
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to vault root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to vault root).
	Delete(path string) error
}

// IsNote reports whether a path names a plain-text note eligible for
// stamping.
func IsNote(path string) bool {
	return filepath.Ext(path) == ".md"
}
