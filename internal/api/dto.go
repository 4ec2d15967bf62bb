package api

import (
	"github.com/starford/noteagator/internal/index"
	"github.com/starford/noteagator/internal/models"
	"github.com/starford/noteagator/internal/noteservice"
)

// IndexEntry is one numbered line of a listing or search.
type IndexEntry struct {
	Key  int        `json:"key" example:"1" validate:"required"`
	Type index.Kind `json:"type" example:"file" validate:"required"`
	Path string     `json:"path" example:"/work/deploy.md" validate:"required"`
}

// ListingResponse carries the printed listing and its display index.
type ListingResponse struct {
	Listing string       `json:"listing" validate:"required"`
	Entries []IndexEntry `json:"entries" validate:"required"`
}

// NoteListResponse wraps catalog listings.
type NoteListResponse struct {
	Notes []models.NoteSummary `json:"notes" validate:"required"`
	Total int                  `json:"total" example:"42" validate:"required"`
}

// RenderResponse is a rendered note, optionally with its HTML form.
type RenderResponse struct {
	*noteservice.Rendered
	HTML string `json:"html,omitempty"`
}

// NoteDetail is the parsed note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

func newListingResponse(listing string, d index.Display, base string) ListingResponse {
	entries := make([]IndexEntry, 0, len(d))
	for _, k := range d.Keys() {
		e := d[k]
		entries = append(entries, IndexEntry{
			Key:  k,
			Type: e.Kind,
			Path: index.NotebookPath(e.AbsolutePath, base),
		})
	}
	return ListingResponse{Listing: listing, Entries: entries}
}
