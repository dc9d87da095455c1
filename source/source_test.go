package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/minios-linux/locsync/tree"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func keys(t *testing.T, m *tree.Map) []string {
	t.Helper()
	require.NotNil(t, m)
	return m.Keys()
}

func TestFileUnwrapsLanguage(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "translations.json", `{"en":{"nav":{"home":"Home"},"about":{"title":"About"}}}`)

	doc, err := File{Path: path, Lang: "en"}.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"nav", "about"}, keys(t, doc))
}

func TestFileWithoutWrapper(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "en.json", `{"en":"English","nav":{"home":"Home"}}`)

	doc, err := File{Path: path, Lang: "en"}.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"en", "nav"}, keys(t, doc))

	// A lone language key holding a string is not a wrapper.
	path = write(t, dir, "one.json", `{"en":"English"}`)
	doc, err = File{Path: path, Lang: "en"}.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"en"}, keys(t, doc))
}

func TestFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "en.yaml", "en:\n  zeta:\n    a: A\n  alpha:\n    b: B\n")

	doc, err := File{Path: path, Lang: "en"}.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"zeta", "alpha"}, keys(t, doc))
}

func TestFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := File{Path: filepath.Join(dir, "missing.json")}.Load(context.Background())
	require.True(t, xerrors.Is(err, ErrSourceUnavailable))

	path := write(t, dir, "bad.json", `["not", "an", "object"]`)
	_, err = File{Path: path}.Load(context.Background())
	require.True(t, xerrors.Is(err, ErrSourceUnavailable))
}

func TestDirNamespaces(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "common.json", `{"ok":"OK"}`)
	write(t, dir, "about.json", `{"title":"About"}`)
	write(t, dir, "README.md", `ignored`)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o755))

	doc, err := New(dir, "en").Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"about", "common"}, keys(t, doc))

	v, ok := tree.Lookup(doc, tree.Path{"common", "ok"})
	require.True(t, ok)
	require.Equal(t, tree.String("OK"), v)
}

func TestDirEmpty(t *testing.T) {
	_, err := Dir{Path: t.TempDir()}.Load(context.Background())
	require.True(t, xerrors.Is(err, ErrSourceUnavailable))
}

func TestNewPicksLoader(t *testing.T) {
	dir := t.TempDir()
	require.IsType(t, Dir{}, New(dir, "en"))
	require.IsType(t, File{}, New(filepath.Join(dir, "translations.json"), "en"))
}

func TestStatic(t *testing.T) {
	m := tree.MapOf(tree.Pair{Key: "ns", Value: tree.MapOf(tree.Pair{Key: "k", Value: tree.String("v")})})
	doc, err := Static{Doc: m}.Load(context.Background())
	require.NoError(t, err)
	require.True(t, tree.Equal(m, doc))

	_, err = Static{}.Load(context.Background())
	require.True(t, xerrors.Is(err, ErrSourceUnavailable))
}
