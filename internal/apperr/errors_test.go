package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaleIndexError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("print: %w", &StaleIndexError{Key: "3", Path: "/notes/a.md"})
	assert.ErrorIs(t, err, ErrStaleIndex)

	var stale *StaleIndexError
	require.True(t, errors.As(err, &stale))
	assert.Equal(t, "3", stale.Key)
}

func TestStaleIndexError_Messages(t *testing.T) {
	gone := (&StaleIndexError{Key: "3", Path: "/notes/a.md"}).Error()
	assert.Contains(t, gone, "Previously at: /notes/a.md")
	assert.Contains(t, gone, "ngt ls")

	missing := (&StaleIndexError{Key: "9"}).Error()
	assert.Contains(t, missing, "#9")
	assert.NotContains(t, missing, "Previously at")
}
