// Package models defines the domain types shared by storage, catalog and the
// serving layers.
package models

import "time"

// NoteMetadata is a lightweight description of a file in the notebook,
// returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"` // relative to the notebook base, slash separated
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteSummary is a catalog row: what a listing needs to show about a note
// without parsing it again.
type NoteSummary struct {
	Path        string    `json:"path"`
	Description string    `json:"description,omitempty"`
	Format      string    `json:"format,omitempty"`
	Checksum    string    `json:"checksum"`
	UpdatedAt   time.Time `json:"updated_at"`
}
