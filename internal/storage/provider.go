// Package storage defines the notebook file-system abstraction.
package storage

import "github.com/starford/noteagator/internal/models"

// Provider is the interface for notebook file operations.
type Provider interface {
	// Root returns the absolute notebook root.
	Root() string
	// List returns metadata for every regular file under dir (relative to root).
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path (relative to root).
	Write(path string, content []byte) error
	// Append adds content to the end of path, creating it and its parents.
	Append(path string, content []byte) error
}
