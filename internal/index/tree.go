package index

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	folderIcon = "📁"
	fileIcon   = "📄"
)

// vcsDir is never listed or searched.
const vcsDir = ".git"

var headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

// TreeOptions controls a directory listing.
type TreeOptions struct {
	// MaxDepth limits how deep the listing goes; 0 means unbounded.
	// Depth 1 is the immediate children of the listing root.
	MaxDepth int
	// Describe returns the description shown next to a file, or "".
	// Defaults to NoteDescription.
	Describe func(path string) string
	Logger   *slog.Logger
}

// Tree lists cwd depth first, writing a numbered tree to w, and returns the
// display index of everything it printed. At every level subdirectories come
// first, then files, each group ordered by case-insensitive name. A directory
// is numbered before its own children. Unreadable subdirectories are listed
// without children.
func Tree(w io.Writer, cwd, base string, opts TreeOptions) (Display, error) {
	info, err := os.Stat(cwd)
	if err != nil {
		return nil, fmt.Errorf("index: stat %s: %w", cwd, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("index: not a directory: %s", cwd)
	}

	t := &treeWalker{
		w:        w,
		maxDepth: opts.MaxDepth,
		describe: opts.Describe,
		logger:   opts.Logger,
		b:        newBuilder(),
	}
	if t.describe == nil {
		t.describe = NoteDescription
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}

	fmt.Fprintf(w, "Notebook Directory: %s\n", headerStyle.Render(NotebookPath(cwd, base)))
	t.walk(cwd, 0)
	return t.b.entries, nil
}

// NotebookPath renders path relative to base as a "/"-rooted notebook path.
// Paths outside base are returned unchanged.
func NotebookPath(path, base string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	if rel == "." {
		return "/"
	}
	return "/" + filepath.ToSlash(rel)
}

type treeWalker struct {
	w        io.Writer
	maxDepth int
	describe func(string) string
	logger   *slog.Logger
	b        *builder
}

func (t *treeWalker) walk(dir string, depth int) {
	if t.maxDepth > 0 && depth >= t.maxDepth {
		return
	}
	dirs, files, err := readSorted(dir)
	if err != nil {
		t.logger.Debug("tree: skip unreadable dir", slog.String("path", dir), slog.String("error", err.Error()))
		return
	}

	indent := strings.Repeat("  ", depth+1)
	for _, d := range dirs {
		if d.name == vcsDir {
			continue
		}
		n := t.b.add(KindDir, d.path)
		fmt.Fprintf(t.w, "%s%d %s %s\n", indent, n, folderIcon, d.name)
		t.walk(d.path, depth+1)
	}
	for _, f := range files {
		n := t.b.add(KindFile, f.path)
		line := fmt.Sprintf("%s%d %s %s", indent, n, fileIcon, f.name)
		if desc := t.describe(f.path); desc != "" {
			line += " - " + desc
		}
		fmt.Fprintln(t.w, line)
	}
}

type dirEntry struct {
	name string
	path string
}

// readSorted reads dir and splits it into subdirectories and regular files,
// following symlinks to classify them, each sorted by lower-cased name.
// Entries that are neither (sockets, broken links) are dropped.
func readSorted(dir string) (dirs, files []dirEntry, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		mode := e.Type()
		if mode&fs.ModeSymlink != 0 {
			info, statErr := os.Stat(p)
			if statErr != nil {
				continue
			}
			mode = info.Mode().Type()
		}
		switch {
		case mode.IsDir():
			dirs = append(dirs, dirEntry{name: e.Name(), path: p})
		case mode.IsRegular():
			files = append(files, dirEntry{name: e.Name(), path: p})
		}
	}
	sortByFoldedName(dirs)
	sortByFoldedName(files)
	return dirs, files, nil
}

func sortByFoldedName(entries []dirEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].name) < strings.ToLower(entries[j].name)
	})
}
