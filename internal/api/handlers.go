package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"

	"github.com/starford/noteagator/internal/apperr"
	"github.com/starford/noteagator/internal/models"
	"github.com/starford/noteagator/internal/noteservice"
	"github.com/starford/noteagator/internal/render"
)

// defaultDepth matches the CLI listing default.
const defaultDepth = 1

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the URL (everything after /api/notes/).
// Supports encoded slashes from OpenAPI clients (e.g. work%2Fdeploy.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Tree handles GET /api/tree.
//
//	@Summary		Numbered directory listing
//	@Tags			notebook
//	@Produce		json
//	@Param			path	query		string	false	"Directory relative to the notebook base"
//	@Param			depth	query		int		false	"Levels to list, 0 for all"
//	@Success		200		{object}	ListingResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tree [get]
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	depth := defaultDepth
	if v := q.Get("depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("depth must be an integer"))
			return
		}
		depth = n
	}

	dir, err := h.svc.Dir(q.Get("path"))
	if err != nil {
		writeError(w, "tree", err)
		return
	}
	var buf bytes.Buffer
	d, err := h.svc.Tree(r.Context(), &buf, dir, depth)
	if err != nil {
		writeError(w, "tree", err)
		return
	}
	writeJSON(w, http.StatusOK, newListingResponse(buf.String(), d, h.svc.Base()))
}

// Search handles GET /api/search.
//
//	@Summary		Find notes containing a term
//	@Tags			notebook
//	@Produce		json
//	@Param			q	query		string	true	"Search term, case-insensitive"
//	@Success		200	{object}	ListingResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	var buf bytes.Buffer
	d, err := h.svc.Search(r.Context(), &buf, q)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, newListingResponse(buf.String(), d, h.svc.Base()))
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List catalogued notes
//	@Tags			notes
//	@Produce		json
//	@Param			dir	query		string	false	"Directory prefix"
//	@Success		200	{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.Notes(r.Context(), r.URL.Query().Get("dir"))
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	if notes == nil {
		notes = []models.NoteSummary{}
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// GetNote handles GET /api/notes/*. With raw=1 the parsed note is returned,
// otherwise the rendered one.
//
//	@Summary		Render a note
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Param			mode	query		string	false	"Output mode"	Enums(markdown, slim)
//	@Param			copy	query		int		false	"Copy block to extract"
//	@Param			html	query		bool	false	"Include HTML of the rendered body"
//	@Param			raw		query		bool	false	"Return the parsed note instead"
//	@Success		200		{object}	RenderResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	q := r.URL.Query()

	if isTrue(q.Get("raw")) {
		note, err := h.svc.ReadNote(r.Context(), path)
		if err != nil {
			writeError(w, "read note", err)
			return
		}
		writeJSON(w, http.StatusOK, note)
		return
	}

	opts, err := renderOptions(q)
	if err != nil {
		writeError(w, "render note", err)
		return
	}
	res, err := h.svc.RenderNote(r.Context(), path, opts)
	if err != nil {
		writeError(w, "render note", err)
		return
	}
	resp := RenderResponse{Rendered: res}
	if isTrue(q.Get("html")) {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(res.Body), &buf); err != nil {
			writeError(w, "render html", err)
			return
		}
		resp.HTML = buf.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func renderOptions(q url.Values) (render.Options, error) {
	opts := render.Options{Mode: q.Get("mode")}
	if v := q.Get("copy"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("copy must be an integer: %w", apperr.ErrInvalidArgument)
		}
		opts.Copy = n
	}
	for _, key := range render.PlaceholderKeys {
		if v := q.Get(key); v != "" {
			if opts.Replacements == nil {
				opts.Replacements = render.Replacements{}
			}
			opts.Replacements[key] = v
		}
	}
	return opts, nil
}

func isTrue(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
