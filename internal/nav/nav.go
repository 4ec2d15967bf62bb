// Package nav computes the notebook working directory after a cd.
package nav

import (
	"path/filepath"

	"github.com/starford/noteagator/internal/index"
)

// Tokens understood besides index keys.
const (
	ParentToken = ".."
	RootToken   = "/"
)

// Resolve returns the new working directory. target is the display index
// entry the token referred to, or nil. A directory entry becomes the new
// directory and a file entry moves to its parent directory. Without a target,
// ".." goes up unless cwd is already base and "/" returns to base. Anything
// else leaves cwd unchanged.
func Resolve(token string, target *index.Entry, cwd, base string) string {
	if target != nil && target.AbsolutePath != "" {
		if target.Kind == index.KindDir {
			return target.AbsolutePath
		}
		return filepath.Dir(target.AbsolutePath)
	}
	switch {
	case token == ParentToken && cwd != base:
		return filepath.Dir(cwd)
	case token == RootToken:
		return base
	}
	return cwd
}
