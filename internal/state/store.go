// Package state persists the CLI's per-user document: notebook base, working
// directory, print mode and the display index of the last listing.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/noteagator/internal/index"
	"github.com/starford/noteagator/internal/render"
	"github.com/starford/noteagator/internal/storage"
)

// File names inside the application directory.
const (
	FileName        = "config.json"
	DefaultNotebook = "notebook"
)

// State is the persisted document.
type State struct {
	Base         string        `json:"base"`
	Cwd          string        `json:"cwd"`
	PrintMode    render.Mode   `json:"print_mode"`
	DisplayIndex index.Display `json:"display_index"`
}

// Validate checks the document after repair.
func (s State) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Base, validation.Required, validation.By(absolute)),
		validation.Field(&s.Cwd, validation.Required, validation.By(absolute)),
		validation.Field(&s.PrintMode, validation.Required, validation.In(render.ModeMarkdown, render.ModeSlim)),
	)
}

func absolute(v any) error {
	p, _ := v.(string)
	if p != "" && !filepath.IsAbs(p) {
		return errors.New("must be an absolute path")
	}
	return nil
}

// Store reads and writes the document under the application directory.
type Store struct {
	dir   string
	files *storage.FS
}

// Open ensures appDir and the default notebook inside it exist.
func Open(appDir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(appDir, DefaultNotebook), 0o755); err != nil {
		return nil, fmt.Errorf("state: create app dir: %w", err)
	}
	files, err := storage.NewFS(appDir)
	if err != nil {
		return nil, fmt.Errorf("state: %w", err)
	}
	return &Store{dir: files.Root(), files: files}, nil
}

// Dir returns the absolute application directory.
func (s *Store) Dir() string { return s.dir }

// DefaultBase returns the notebook used when no base has been set.
func (s *Store) DefaultBase() string {
	return filepath.Join(s.dir, DefaultNotebook)
}

// Load reads the document and repairs missing or stale fields. A missing or
// malformed file yields a fresh document.
func (s *Store) Load() (*State, error) {
	st := &State{}
	data, err := s.files.Read(FileName)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("state: %w", err)
	default:
		if jerr := json.Unmarshal(data, st); jerr != nil {
			st = &State{}
		}
	}
	s.repair(st)
	return st, nil
}

func (s *Store) repair(st *State) {
	if st.Base == "" {
		st.Base = s.DefaultBase()
	}
	if st.Cwd == "" || !isDir(st.Cwd) {
		st.Cwd = st.Base
	}
	if !st.PrintMode.Valid() {
		st.PrintMode = render.ModeMarkdown
	}
	if st.DisplayIndex == nil {
		st.DisplayIndex = index.Display{}
	}
}

// Save writes the whole document atomically.
func (s *Store) Save(st *State) error {
	if err := st.Validate(); err != nil {
		return fmt.Errorf("state: invalid document: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "    ")
	if err != nil {
		return fmt.Errorf("state: encode: %w", err)
	}
	if err := s.files.Write(FileName, append(data, '\n')); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	return nil
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
