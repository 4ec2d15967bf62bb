// Package apperr defines the error values shared across packages.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrStaleIndex       = errors.New("display index is out of date")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// StaleIndexError reports a display index key that no longer resolves to a
// note on disk. Its message tells the user how to rebuild the index.
type StaleIndexError struct {
	Key  string
	Path string // empty when the key was never in the index
}

func (e *StaleIndexError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("There is no note with index #%s.\n"+
			"Your display index is out of date.\n"+
			"Run `ngt ls` (or `ngt ls -R`) or use `ngt search <term>` to rebuild the display index.", e.Key)
	}
	return fmt.Sprintf("That note no longer exists on disk (index #%s).\n"+
		"Previously at: %s\n"+
		"Your display index is out of date.\n"+
		"Run `ngt ls` (or `ngt ls -R`) or use `ngt search <term>` to rebuild the display index.", e.Key, e.Path)
}

// Unwrap lets errors.Is match ErrStaleIndex.
func (e *StaleIndexError) Unwrap() error {
	return ErrStaleIndex
}
