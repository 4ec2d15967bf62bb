package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/noteagator/internal/index"
	"github.com/starford/noteagator/internal/render"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), ".noteagator"))
	require.NoError(t, err)
	return s
}

func TestOpen_CreatesDefaultNotebook(t *testing.T) {
	s := openStore(t)
	info, err := os.Stat(s.DefaultBase())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoad_FreshDocumentDefaults(t *testing.T) {
	s := openStore(t)
	st, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, s.DefaultBase(), st.Base)
	assert.Equal(t, st.Base, st.Cwd)
	assert.Equal(t, render.ModeMarkdown, st.PrintMode)
	assert.NotNil(t, st.DisplayIndex)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := openStore(t)
	sub := filepath.Join(s.DefaultBase(), "work")
	require.NoError(t, os.Mkdir(sub, 0o755))

	in := &State{
		Base:      s.DefaultBase(),
		Cwd:       sub,
		PrintMode: render.ModeSlim,
		DisplayIndex: index.Display{
			1: {Kind: index.KindDir, AbsolutePath: sub},
			2: {Kind: index.KindFile, AbsolutePath: filepath.Join(sub, "n.md")},
		},
	}
	require.NoError(t, s.Save(in))

	out, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, in, out)

	matches, _ := filepath.Glob(filepath.Join(s.Dir(), ".ngt-tmp-*"))
	assert.Empty(t, matches)
}

func TestLoad_RepairsVanishedCwd(t *testing.T) {
	s := openStore(t)
	st, err := s.Load()
	require.NoError(t, err)
	st.Cwd = filepath.Join(st.Base, "gone")
	data := `{"base":"` + st.Base + `","cwd":"` + st.Cwd + `","print_mode":"bogus"}`
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), FileName), []byte(data), 0o644))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, st.Base, got.Cwd)
	assert.Equal(t, render.ModeMarkdown, got.PrintMode)
}

func TestLoad_MalformedFileStartsFresh(t *testing.T) {
	s := openStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), FileName), []byte("{not json"), 0o644))

	st, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, s.DefaultBase(), st.Base)
}

func TestSave_RejectsRelativeBase(t *testing.T) {
	s := openStore(t)
	err := s.Save(&State{Base: "relative", Cwd: "relative", PrintMode: render.ModeMarkdown})
	assert.Error(t, err)
}
