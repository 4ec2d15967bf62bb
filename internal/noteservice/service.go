// Package noteservice is the operation layer shared by the CLI, the REST API
// and the MCP server.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/starford/noteagator/internal/apperr"
	"github.com/starford/noteagator/internal/catalog"
	"github.com/starford/noteagator/internal/checksum"
	"github.com/starford/noteagator/internal/index"
	"github.com/starford/noteagator/internal/models"
	"github.com/starford/noteagator/internal/parser"
	"github.com/starford/noteagator/internal/render"
	"github.com/starford/noteagator/internal/storage"
)

// JotDir is the directory below the base that holds daily jot files.
const JotDir = "jots"

// JotLayout names a jot file after the local date.
const JotLayout = "01-02-2006"

// NoteDetail is a parsed note as returned by the read operations.
type NoteDetail struct {
	Path        string         `json:"path"`
	Description string         `json:"description,omitempty"`
	Format      string         `json:"format,omitempty"`
	Metadata    map[string]any `json:"metadata"`
	Body        string         `json:"body"`
	Checksum    string         `json:"checksum"`
}

// Rendered is a note after the render pipeline.
type Rendered struct {
	Path      string      `json:"path"`
	Mode      render.Mode `json:"mode"`
	Metadata  string      `json:"metadata"`
	Body      string      `json:"body"`
	Copy      string      `json:"copy,omitempty"`
	CopyFound bool        `json:"copy_found"`
}

// Service coordinates the notebook storage, the indexers and the optional
// catalog.
type Service struct {
	store       storage.Provider
	catalog     catalog.Catalog
	logger      *slog.Logger
	defaultMode render.Mode
}

// NewService creates a new note service. cat may be nil.
func NewService(store storage.Provider, cat catalog.Catalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, catalog: cat, logger: logger}
}

// SetDefaultMode sets the saved print mode, used when neither the render
// options nor the note choose one.
func (s *Service) SetDefaultMode(m render.Mode) {
	s.defaultMode = m
}

// Base returns the absolute notebook base.
func (s *Service) Base() string {
	return s.store.Root()
}

// Dir resolves a slash separated directory relative to the base.
func (s *Service) Dir(rel string) (string, error) {
	abs, err := s.abs(rel)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("directory %q: %w", rel, apperr.ErrNotFound)
	}
	return abs, nil
}

func (s *Service) abs(rel string) (string, error) {
	rel = strings.TrimPrefix(rel, "/")
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if cleaned == "." {
		return s.Base(), nil
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the notebook: %w", rel, apperr.ErrInvalidArgument)
	}
	return filepath.Join(s.Base(), cleaned), nil
}

// Tree writes the numbered listing of cwd to w and returns its display index.
// depth 0 lists everything.
func (s *Service) Tree(_ context.Context, w io.Writer, cwd string, depth int) (index.Display, error) {
	if depth < 0 {
		return nil, fmt.Errorf("depth %d: %w", depth, apperr.ErrInvalidArgument)
	}
	return index.Tree(w, cwd, s.Base(), index.TreeOptions{MaxDepth: depth, Logger: s.logger})
}

// Search writes every file under the base containing term to w and returns
// their display index.
func (s *Service) Search(_ context.Context, w io.Writer, term string) (index.Display, error) {
	if term == "" {
		return nil, fmt.Errorf("empty search term: %w", apperr.ErrInvalidArgument)
	}
	return index.Search(w, s.Base(), term, index.SearchOptions{Logger: s.logger}), nil
}

// ReadNote parses the note at a path relative to the base.
func (s *Service) ReadNote(_ context.Context, rel string) (*NoteDetail, error) {
	doc, data, err := s.load(rel)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{
		Path:        rel,
		Description: doc.Description,
		Format:      doc.Format(),
		Metadata:    doc.Metadata,
		Body:        doc.Body,
		Checksum:    checksum.Sum(data),
	}, nil
}

// RenderNote renders the note at a path relative to the base.
func (s *Service) RenderNote(_ context.Context, rel string, opts render.Options) (*Rendered, error) {
	doc, _, err := s.load(rel)
	if err != nil {
		return nil, err
	}
	return s.renderDoc(rel, doc, opts)
}

// RenderFile renders the note at an absolute path, as taken from a display
// index.
func (s *Service) RenderFile(_ context.Context, path string, opts render.Options) (*Rendered, error) {
	doc, err := parser.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &apperr.StaleIndexError{Path: path}
		}
		return nil, err
	}
	return s.renderDoc(path, doc, opts)
}

func (s *Service) renderDoc(path string, doc *parser.Document, opts render.Options) (*Rendered, error) {
	if opts.DefaultMode == "" {
		opts.DefaultMode = string(s.defaultMode)
	}
	res, err := render.Render(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidArgument, err)
	}
	return &Rendered{
		Path:      path,
		Mode:      res.Mode,
		Metadata:  res.Metadata,
		Body:      res.Body,
		Copy:      res.Copy,
		CopyFound: res.CopyFound,
	}, nil
}

func (s *Service) load(rel string) (*parser.Document, []byte, error) {
	abs, err := s.abs(rel)
	if err != nil {
		return nil, nil, err
	}
	if abs == s.Base() {
		return nil, nil, fmt.Errorf("note %q: %w", rel, apperr.ErrInvalidSelection)
	}
	data, err := s.store.Read(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("note %q: %w", rel, apperr.ErrNotFound)
		}
		if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
			return nil, nil, fmt.Errorf("note %q is a directory: %w", rel, apperr.ErrInvalidSelection)
		}
		return nil, nil, err
	}
	return parser.Parse(abs, data), data, nil
}

// Describe returns the description of the note at a path relative to the
// base, or "".
func (s *Service) Describe(rel string) string {
	abs, err := s.abs(rel)
	if err != nil {
		return ""
	}
	return index.NoteDescription(abs)
}

// Notes lists the notes below dir. With a catalog the rows come from it,
// otherwise the notebook is walked and every file parsed.
func (s *Service) Notes(_ context.Context, dir string) ([]models.NoteSummary, error) {
	if _, err := s.abs(dir); err != nil {
		return nil, err
	}
	if s.catalog != nil {
		return s.catalog.ListDir(dir)
	}
	metas, err := s.store.List(strings.TrimPrefix(dir, "/"))
	if err != nil {
		return nil, err
	}
	out := make([]models.NoteSummary, 0, len(metas))
	for _, m := range metas {
		data, err := s.store.Read(m.Path)
		if err != nil {
			s.logger.Warn("notes: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		doc := parser.Parse(m.Path, data)
		out = append(out, models.NoteSummary{
			Path:        m.Path,
			Description: doc.Description,
			Format:      doc.Format(),
			Checksum:    m.Checksum,
			UpdatedAt:   m.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// JotPath returns the jot file for the day of now, relative to the base.
func JotPath(now time.Time) string {
	return JotDir + "/" + now.Format(JotLayout) + ".md"
}

// Jot appends text to today's jot file, creating it if needed, and returns
// the path it wrote relative to the base. Each entry is preceded by a blank
// line and ends with a newline.
func (s *Service) Jot(_ context.Context, text string, now time.Time) (string, error) {
	entry := "\n" + text
	if !strings.HasSuffix(text, "\n") {
		entry += "\n"
	}
	rel := JotPath(now)
	if err := s.store.Append(rel, []byte(entry)); err != nil {
		return "", err
	}
	s.logger.Debug("jot: appended", slog.String("path", rel))
	return rel, nil
}
