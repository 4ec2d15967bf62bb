// Package clip copies text to the system clipboard.
package clip

import (
	"errors"

	"github.com/atotto/clipboard"
)

// ErrUnsupported is returned when no clipboard utility is available.
var ErrUnsupported = errors.New("clip: no clipboard utility available")

// Copier places text on a clipboard.
type Copier interface {
	Copy(text string) error
}

// System is the desktop clipboard.
type System struct{}

// Copy writes text to the system clipboard.
func (System) Copy(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(text)
}
