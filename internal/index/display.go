// Package index builds the numbered display index from a directory listing
// or a content search and resolves index keys back to paths.
package index

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/noteagator/internal/apperr"
)

// Kind is the type of an indexed entry. The values are the persisted form.
type Kind string

// Entry kinds.
const (
	KindDir  Kind = "dir"
	KindFile Kind = "file"
)

// Entry is one numbered item of a listing or search.
type Entry struct {
	Kind         Kind   `json:"type"`
	AbsolutePath string `json:"absolute_path"`
}

// Display maps 1-based keys to entries in the order they were shown.
// It encodes to JSON as an object keyed by decimal strings.
type Display map[int]Entry

// Keys returns the keys in ascending order.
func (d Display) Keys() []int {
	keys := make([]int, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Lookup resolves a user-supplied token such as "3" to its entry.
func (d Display) Lookup(token string) (Entry, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(token))
	if err != nil {
		return Entry{}, false
	}
	e, ok := d[n]
	return e, ok
}

// File resolves token to the path of a file entry that still exists.
// A missing key or a vanished file yields *apperr.StaleIndexError; an entry
// that is not a file yields apperr.ErrInvalidSelection.
func (d Display) File(token string) (string, error) {
	e, ok := d.Lookup(token)
	if !ok {
		return "", &apperr.StaleIndexError{Key: token}
	}
	if e.Kind != KindFile {
		return "", fmt.Errorf("index #%s: %w", token, apperr.ErrInvalidSelection)
	}
	if _, err := os.Stat(e.AbsolutePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &apperr.StaleIndexError{Key: token, Path: e.AbsolutePath}
		}
		return "", fmt.Errorf("index #%s: %w", token, err)
	}
	return e.AbsolutePath, nil
}

// builder hands out sequential keys starting at 1.
type builder struct {
	next    int
	entries Display
}

func newBuilder() *builder {
	return &builder{next: 1, entries: make(Display)}
}

func (b *builder) add(kind Kind, path string) int {
	n := b.next
	b.entries[n] = Entry{Kind: kind, AbsolutePath: path}
	b.next++
	return n
}
