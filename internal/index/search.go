package index

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// SearchOptions controls a content search.
type SearchOptions struct {
	// Exclude lists directory names to skip. Defaults to ".git".
	Exclude  []string
	Describe func(path string) string
	Logger   *slog.Logger
}

// Search walks root and numbers every regular file with at least one line
// containing term, compared case-insensitively. Each file is listed once.
// Within a directory its files are scanned before its subdirectories are
// entered, both in case-insensitive name order. A file that cannot be read is
// reported to w and skipped.
func Search(w io.Writer, root, term string, opts SearchOptions) Display {
	s := &searcher{
		w:        w,
		root:     root,
		term:     strings.ToLower(term),
		exclude:  make(map[string]struct{}),
		describe: opts.Describe,
		logger:   opts.Logger,
		b:        newBuilder(),
	}
	if len(opts.Exclude) == 0 {
		opts.Exclude = []string{vcsDir}
	}
	for _, name := range opts.Exclude {
		s.exclude[name] = struct{}{}
	}
	if s.describe == nil {
		s.describe = NoteDescription
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.walk(root)
	return s.b.entries
}

type searcher struct {
	w        io.Writer
	root     string
	term     string
	exclude  map[string]struct{}
	describe func(string) string
	logger   *slog.Logger
	b        *builder
}

func (s *searcher) walk(dir string) {
	dirs, files, err := readSorted(dir)
	if err != nil {
		s.logger.Debug("search: skip unreadable dir", slog.String("path", dir), slog.String("error", err.Error()))
		return
	}

	for _, f := range files {
		if f.name == vcsDir {
			continue
		}
		matched, err := s.scan(f.path)
		if err != nil {
			fmt.Fprintf(s.w, "Error reading file '%s': %v\n", f.path, err)
			s.logger.Warn("search: read failed", slog.String("path", f.path), slog.String("error", err.Error()))
			continue
		}
		if !matched {
			continue
		}
		n := s.b.add(KindFile, f.path)
		line := fmt.Sprintf("%d %s", n, NotebookPath(f.path, s.root))
		if desc := s.describe(f.path); desc != "" {
			line += " - " + desc
		}
		fmt.Fprintln(s.w, line)
	}

	for _, d := range dirs {
		if _, skip := s.exclude[d.name]; skip {
			continue
		}
		// Like a plain walk, symlinked directories are not entered.
		if info, err := os.Lstat(d.path); err == nil && info.Mode()&os.ModeSymlink != 0 {
			continue
		}
		s.walk(d.path)
	}
}

// scan reports whether any line of the file contains the search term.
func (s *searcher) scan(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if line != "" && strings.Contains(strings.ToLower(line), s.term) {
			return true, nil
		}
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
}
