package index

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/noteagator/internal/apperr"
	"github.com/starford/noteagator/internal/testutil"
)

func stubDescribe(string) string { return "desc" }

func noDescribe(string) string { return "" }

// sampleTree:
//
//	root/
//	  .git/ignore.txt
//	  a/subfile.txt
//	  a/deep/x.md
//	  B/
//	  A.txt
//	  z.txt
func sampleTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		".git/ignore.txt": "ignored",
		"a/subfile.txt":   "note: one",
		"a/deep/x.md":     "deep",
		"B/":              "",
		"A.txt":           "note: A",
		"z.txt":           "note: Z",
	})
	return root
}

func TestTree_OrdersDirsBeforeFilesCaseInsensitive(t *testing.T) {
	root := sampleTree(t)
	var out bytes.Buffer

	d, err := Tree(&out, root, root, TreeOptions{Describe: noDescribe})
	require.NoError(t, err)

	want := []string{
		"Notebook Directory: /",
		"  1 📁 a",
		"    2 📁 deep",
		"      3 📄 x.md",
		"    4 📄 subfile.txt",
		"  5 📁 B",
		"  6 📄 A.txt",
		"  7 📄 z.txt",
	}
	assert.Equal(t, strings.Join(want, "\n")+"\n", out.String())
	assert.NotContains(t, out.String(), ".git")

	assert.Equal(t, Entry{Kind: KindDir, AbsolutePath: filepath.Join(root, "a")}, d[1])
	assert.Equal(t, Entry{Kind: KindFile, AbsolutePath: filepath.Join(root, "a", "deep", "x.md")}, d[3])
	assert.Equal(t, Entry{Kind: KindFile, AbsolutePath: filepath.Join(root, "z.txt")}, d[7])
}

func TestTree_KeysAreContiguous(t *testing.T) {
	root := sampleTree(t)
	d, err := Tree(&bytes.Buffer{}, root, root, TreeOptions{Describe: noDescribe})
	require.NoError(t, err)

	keys := d.Keys()
	for i, k := range keys {
		assert.Equal(t, i+1, k)
	}
	for _, e := range d {
		assert.True(t, filepath.IsAbs(e.AbsolutePath))
		assert.Contains(t, []Kind{KindDir, KindFile}, e.Kind)
	}
}

func TestTree_MaxDepthOne(t *testing.T) {
	root := sampleTree(t)
	var out bytes.Buffer

	d, err := Tree(&out, root, root, TreeOptions{MaxDepth: 1, Describe: noDescribe})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "📁 a")
	assert.NotContains(t, out.String(), "subfile.txt")
	assert.NotContains(t, out.String(), "deep")
	assert.Contains(t, out.String(), "📄 A.txt")
	assert.Len(t, d, 4)
	for _, e := range d {
		rel, err := filepath.Rel(root, e.AbsolutePath)
		require.NoError(t, err)
		assert.NotContains(t, filepath.ToSlash(rel), "/", "entry %s is below depth 1", rel)
	}
}

func TestTree_MaxDepthTwo(t *testing.T) {
	root := sampleTree(t)
	var out bytes.Buffer

	_, err := Tree(&out, root, root, TreeOptions{MaxDepth: 2, Describe: noDescribe})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "📁 deep")
	assert.Contains(t, out.String(), "📄 subfile.txt")
	assert.NotContains(t, out.String(), "x.md")
}

func TestTree_Descriptions(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"with.md":    "---\ndescription: Deploy steps\n---\nbody",
		"without.md": "plain",
	})
	var out bytes.Buffer

	_, err := Tree(&out, root, root, TreeOptions{})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "  1 📄 with.md - Deploy steps\n")
	assert.Contains(t, out.String(), "  2 📄 without.md\n")
}

func TestTree_HeaderRelativeToBase(t *testing.T) {
	root := sampleTree(t)
	var out bytes.Buffer
	_, err := Tree(&out, filepath.Join(root, "a"), root, TreeOptions{Describe: stubDescribe})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.String(), "Notebook Directory: /a\n"))
	assert.Contains(t, out.String(), "subfile.txt - desc")
}

func TestTree_MissingRoot(t *testing.T) {
	_, err := Tree(&bytes.Buffer{}, filepath.Join(t.TempDir(), "nope"), "/", TreeOptions{})
	assert.Error(t, err)
}

func TestTree_UnreadableDirHasNoChildren(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{"locked/secret.md": "x", "open.md": "y"})
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	var out bytes.Buffer
	d, err := Tree(&out, root, root, TreeOptions{Describe: noDescribe})
	require.NoError(t, err)
	assert.Len(t, d, 2)
	assert.NotContains(t, out.String(), "secret.md")
}

func TestNotebookPath(t *testing.T) {
	base := filepath.FromSlash("/nb")
	assert.Equal(t, "/", NotebookPath(base, base))
	assert.Equal(t, "/a/b", NotebookPath(filepath.Join(base, "a", "b"), base))
	assert.Equal(t, filepath.FromSlash("/elsewhere"), NotebookPath(filepath.FromSlash("/elsewhere"), base))
}

func TestSearch_OneEntryPerFile(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"k8s.md":          "kubectl get pods\nmore K8S here\n",
		"other.md":        "nothing relevant",
		"sub/deploy.md":   "helm upgrade\nk8s cluster",
		".git/config":     "k8s",
		"sub/.git/HEAD":   "k8s",
		"Alpha/notes.txt": "K8s",
	})
	var out bytes.Buffer

	d := Search(&out, root, "K8s", SearchOptions{Describe: noDescribe})

	want := []string{
		"1 /k8s.md",
		"2 /Alpha/notes.txt",
		"3 /sub/deploy.md",
	}
	assert.Equal(t, strings.Join(want, "\n")+"\n", out.String())
	require.Len(t, d, 3)
	for _, e := range d {
		assert.Equal(t, KindFile, e.Kind)
	}
	assert.Equal(t, filepath.Join(root, "sub", "deploy.md"), d[3].AbsolutePath)
}

func TestSearch_NoMatches(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{"a.md": "alpha", "empty.md": ""})
	var out bytes.Buffer
	d := Search(&out, root, "zeta", SearchOptions{Describe: noDescribe})
	assert.Empty(t, d)
	assert.Empty(t, out.String())
}

func TestSearch_EmptyFileNeverMatches(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{"empty.md": "", "full.md": "x"})
	d := Search(&bytes.Buffer{}, root, "", SearchOptions{Describe: noDescribe})
	require.Len(t, d, 1)
	assert.Equal(t, filepath.Join(root, "full.md"), d[1].AbsolutePath)
}

func TestSearch_DescriptionAndUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{"a.md": "term", "b.md": "term"})
	require.NoError(t, os.Chmod(filepath.Join(root, "a.md"), 0o000))

	var out bytes.Buffer
	d := Search(&out, root, "term", SearchOptions{Describe: stubDescribe})
	assert.Contains(t, out.String(), "Error reading file '"+filepath.Join(root, "a.md")+"'")
	assert.Contains(t, out.String(), "1 /b.md - desc")
	assert.Len(t, d, 1)
}

func TestDisplay_JSONRoundTrip(t *testing.T) {
	d := Display{1: {Kind: KindDir, AbsolutePath: "/nb/a"}, 2: {Kind: KindFile, AbsolutePath: "/nb/b.md"}}
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":{"type":"dir","absolute_path":"/nb/a"},"2":{"type":"file","absolute_path":"/nb/b.md"}}`, string(data))

	var back Display
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, d, back)
}

func TestDisplay_File(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{"n.md": "x"})
	d := Display{
		1: {Kind: KindFile, AbsolutePath: filepath.Join(root, "n.md")},
		2: {Kind: KindDir, AbsolutePath: root},
		3: {Kind: KindFile, AbsolutePath: filepath.Join(root, "gone.md")},
	}

	p, err := d.File("1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "n.md"), p)

	_, err = d.File("2")
	assert.True(t, errors.Is(err, apperr.ErrInvalidSelection))

	_, err = d.File("3")
	var stale *apperr.StaleIndexError
	require.True(t, errors.As(err, &stale))
	assert.Equal(t, filepath.Join(root, "gone.md"), stale.Path)

	_, err = d.File("42")
	assert.True(t, errors.Is(err, apperr.ErrStaleIndex))

	_, err = d.File("abc")
	assert.True(t, errors.Is(err, apperr.ErrStaleIndex))
}
