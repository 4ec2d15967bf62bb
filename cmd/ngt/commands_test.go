package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/noteagator/internal/apperr"
	"github.com/starford/noteagator/internal/state"
	"github.com/starford/noteagator/internal/testutil"
)

const deployNote = "---\ndescription: Deploy steps\nplaceholders:\n  i: HOST\n---\n# Deploy\n\n```bash\nssh HOST\n```\n"

type fakeClipboard struct {
	copied []string
}

func (f *fakeClipboard) Copy(text string) error {
	f.copied = append(f.copied, text)
	return nil
}

// testCLI runs ngt against an isolated home directory.
type testCLI struct {
	t     *testing.T
	home  string
	base  string
	out   *bytes.Buffer
	clip  *fakeClipboard
	clock time.Time
}

func newTestCLI(t *testing.T, files map[string]string) *testCLI {
	t.Helper()
	base := t.TempDir()
	testutil.WriteTree(t, base, files)

	c := &testCLI{
		t:     t,
		home:  t.TempDir(),
		base:  base,
		out:   &bytes.Buffer{},
		clip:  &fakeClipboard{},
		clock: time.Date(2026, time.October, 16, 9, 30, 0, 0, time.Local),
	}
	require.NoError(t, c.run("set-base", base))
	c.out.Reset()
	return c
}

func (c *testCLI) run(args ...string) error {
	c.t.Helper()
	app := newApp(deps{
		stdout: c.out,
		clip:   c.clip,
		now:    func() time.Time { return c.clock },
	})
	full := append([]string{"ngt", "--home", c.home}, args...)
	return app.Run(context.Background(), full)
}

func (c *testCLI) state() *state.State {
	c.t.Helper()
	s, err := state.Open(filepath.Join(c.home, appDirName))
	require.NoError(c.t, err)
	st, err := s.Load()
	require.NoError(c.t, err)
	return st
}

func (c *testCLI) output() string {
	defer c.out.Reset()
	return c.out.String()
}

func TestSetBaseAndShowBase(t *testing.T) {
	c := newTestCLI(t, map[string]string{"readme.md": "hi\n"})

	require.NoError(t, c.run("show-base"))
	want, err := filepath.EvalSymlinks(c.base)
	require.NoError(t, err)
	assert.Equal(t, want+"\n", c.output())

	st := c.state()
	assert.Equal(t, want, st.Base)
	assert.Equal(t, want, st.Cwd)
}

func TestSetBase_RejectsMissingDir(t *testing.T) {
	c := newTestCLI(t, nil)

	err := c.run("set-base", filepath.Join(c.base, "nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist or is not a directory")
}

func TestSetBase_ExpandsHome(t *testing.T) {
	c := newTestCLI(t, nil)
	require.NoError(t, os.MkdirAll(filepath.Join(c.home, "notes"), 0o755))

	require.NoError(t, c.run("set-base", "~/notes"))
	want, err := filepath.EvalSymlinks(filepath.Join(c.home, "notes"))
	require.NoError(t, err)
	assert.Equal(t, want, c.state().Base)
}

func TestLs_SavesDisplayIndex(t *testing.T) {
	c := newTestCLI(t, map[string]string{
		"work/deploy.md": deployNote,
		"readme.md":      "hi\n",
	})

	require.NoError(t, c.run("ls"))
	out := c.output()
	assert.Contains(t, out, "Notebook Directory: /")
	assert.Contains(t, out, "1 📁 work")
	assert.Contains(t, out, "2 📄 readme.md")
	assert.NotContains(t, out, "deploy.md")

	st := c.state()
	assert.Equal(t, []int{1, 2}, st.DisplayIndex.Keys())

	require.NoError(t, c.run("ls", "-R"))
	assert.Contains(t, c.output(), "2 📄 deploy.md - Deploy steps")
	assert.Len(t, c.state().DisplayIndex, 3)
}

func TestLs_RejectsZeroDepth(t *testing.T) {
	c := newTestCLI(t, nil)
	err := c.run("ls", "-d", "0")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestPrint_WithPlaceholderAndCopy(t *testing.T) {
	c := newTestCLI(t, map[string]string{"deploy.md": deployNote})
	require.NoError(t, c.run("ls"))
	c.out.Reset()

	require.NoError(t, c.run("print", "-c", "1", "-i", "prod-1", "1"))
	out := c.output()
	assert.Contains(t, out, "description: Deploy steps")
	assert.Contains(t, out, "  i: HOST\n---\n", "metadata runs straight into the separator")
	assert.NotContains(t, out, "\n\n---")
	assert.Contains(t, out, "--copy 1\n```bash\nssh prod-1\n```")
	assert.Equal(t, []string{"ssh prod-1"}, c.clip.copied)
}

func TestPrint_MissingCopyBlock(t *testing.T) {
	c := newTestCLI(t, map[string]string{"deploy.md": deployNote})
	require.NoError(t, c.run("ls"))
	c.out.Reset()

	require.NoError(t, c.run("print", "-c", "4", "1"))
	assert.Contains(t, c.output(), "No --copy 4 block found.")
	assert.Empty(t, c.clip.copied)
}

func TestPrint_SlimFormat(t *testing.T) {
	c := newTestCLI(t, map[string]string{"deploy.md": deployNote})
	require.NoError(t, c.run("ls"))
	c.out.Reset()

	require.NoError(t, c.run("print", "--format", "slim", "1"))
	assert.Contains(t, c.output(), "--copy 1 $ ssh HOST")
}

func TestPrint_StaleIndex(t *testing.T) {
	c := newTestCLI(t, map[string]string{"deploy.md": deployNote})
	require.NoError(t, c.run("ls"))

	err := c.run("print", "7")
	require.ErrorIs(t, err, apperr.ErrStaleIndex)
	assert.Contains(t, err.Error(), "There is no note with index #7.")

	require.NoError(t, os.Remove(filepath.Join(c.base, "deploy.md")))
	err = c.run("print", "1")
	require.ErrorIs(t, err, apperr.ErrStaleIndex)
	assert.Contains(t, err.Error(), "no longer exists on disk (index #1)")
}

func TestPrint_DirectoryIsInvalidSelection(t *testing.T) {
	c := newTestCLI(t, map[string]string{"work/": ""})
	require.NoError(t, c.run("ls"))

	err := c.run("print", "1")
	assert.ErrorIs(t, err, apperr.ErrInvalidSelection)
}

func TestCd(t *testing.T) {
	c := newTestCLI(t, map[string]string{
		"work/deploy.md": deployNote,
		"readme.md":      "hi\n",
	})
	base := c.state().Base

	require.NoError(t, c.run("ls"))
	require.NoError(t, c.run("cd", "1"))
	assert.Equal(t, filepath.Join(base, "work"), c.state().Cwd)

	c.out.Reset()
	require.NoError(t, c.run("ls"))
	assert.Contains(t, c.output(), "Notebook Directory: /work")

	require.NoError(t, c.run("cd", ".."))
	assert.Equal(t, base, c.state().Cwd)

	require.NoError(t, c.run("cd", ".."))
	assert.Equal(t, base, c.state().Cwd)

	require.NoError(t, c.run("cd", "99"))
	assert.Equal(t, base, c.state().Cwd)
}

func TestSearch_ReplacesIndexOnlyOnMatch(t *testing.T) {
	c := newTestCLI(t, map[string]string{
		"work/deploy.md": deployNote,
		"readme.md":      "hi\n",
	})

	require.NoError(t, c.run("search", "ssh"))
	assert.Contains(t, c.output(), "1 /work/deploy.md - Deploy steps")
	st := c.state()
	require.Len(t, st.DisplayIndex, 1)
	assert.True(t, strings.HasSuffix(st.DisplayIndex[1].AbsolutePath, "deploy.md"))

	require.NoError(t, c.run("search", "no-such-term"))
	assert.Len(t, c.state().DisplayIndex, 1)
}

func TestJot(t *testing.T) {
	c := newTestCLI(t, nil)

	require.NoError(t, c.run("jot", "standup: shipped"))
	require.NoError(t, c.run("jot", "second"))

	data, err := os.ReadFile(filepath.Join(c.base, "jots", "10-16-2026.md"))
	require.NoError(t, err)
	assert.Equal(t, "\nstandup: shipped\n\nsecond\n", string(data))
}

func TestPrintMode(t *testing.T) {
	c := newTestCLI(t, nil)

	require.NoError(t, c.run("print-mode", "slim"))
	assert.Equal(t, "Default print mode set to: slim\n", c.output())
	assert.Equal(t, "slim", string(c.state().PrintMode))

	err := c.run("print-mode", "html")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	assert.Equal(t, "slim", string(c.state().PrintMode))
}

func TestPrintMode_AppliesToPrint(t *testing.T) {
	c := newTestCLI(t, map[string]string{"deploy.md": deployNote})
	require.NoError(t, c.run("print-mode", "slim"))
	require.NoError(t, c.run("ls"))
	c.out.Reset()

	require.NoError(t, c.run("print", "1"))
	assert.Contains(t, c.output(), "--copy 1 $ ssh HOST")
}

func TestCatalogSync(t *testing.T) {
	c := newTestCLI(t, map[string]string{
		"work/deploy.md": deployNote,
		"readme.md":      "hi\n",
	})

	require.NoError(t, c.run("catalog", "sync"))
	out := c.output()
	assert.Contains(t, out, "Catalogued 2 notes in ")
	assert.FileExists(t, filepath.Join(c.home, appDirName, "catalog.db"))
}

func TestSettingsFileOverridesCatalogPath(t *testing.T) {
	c := newTestCLI(t, map[string]string{"readme.md": "hi\n"})
	dbPath := filepath.Join(t.TempDir(), "custom.db")
	settings := filepath.Join(c.home, appDirName, "ngt.yaml")
	require.NoError(t, os.WriteFile(settings, []byte("catalog:\n  path: "+dbPath+"\n"), 0o644))

	require.NoError(t, c.run("catalog", "sync"))
	assert.Contains(t, c.output(), dbPath)
	assert.FileExists(t, dbPath)
}

func TestMissingArgument(t *testing.T) {
	c := newTestCLI(t, nil)
	for _, cmd := range []string{"print", "cd", "search", "jot", "print-mode", "set-base"} {
		err := c.run(cmd)
		assert.ErrorIs(t, err, apperr.ErrInvalidArgument, cmd)
	}
}
