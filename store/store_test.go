package store

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/minios-linux/locsync/tree"
)

const orderedDoc = `{"zeta":{"b":"B","a":"A","list":["x",{"k":1,"j":true}]},"alpha":{"z":null,"m":"M"}}`

func parse(t *testing.T, s string) *tree.Map {
	t.Helper()
	m, err := tree.ParseJSON([]byte(s))
	require.NoError(t, err)
	return m
}

func render(t *testing.T, m *tree.Map) string {
	t.Helper()
	b, err := tree.MarshalJSON(m)
	require.NoError(t, err)
	return string(b)
}

// exercise runs the behaviour every backend must share.
func exercise(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, "de")
	require.True(t, xerrors.Is(err, ErrNotFound), "got %v", err)
	require.False(t, xerrors.Is(err, ErrStoreUnavailable))

	require.NoError(t, s.Put(ctx, "de", parse(t, orderedDoc)))
	rec, err := s.Get(ctx, "de")
	require.NoError(t, err)
	require.Equal(t, "de", rec.Language)
	require.Equal(t, orderedDoc, render(t, rec.Document))

	require.NoError(t, s.Put(ctx, "de", parse(t, `{"ns":{"k":"v"}}`)))
	again, err := s.Get(ctx, "de")
	require.NoError(t, err)
	require.Equal(t, rec.ID, again.ID)
	require.Equal(t, `{"ns":{"k":"v"}}`, render(t, again.Document))

	require.NoError(t, s.Put(ctx, "en", parse(t, `{}`)))
	langs, err := s.Languages(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"de", "en"}, langs)

	require.NoError(t, s.Close())
}

func TestMemoryStore(t *testing.T) {
	exercise(t, NewMemory())
}

func TestMemoryStoreDoesNotShareDocuments(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	doc := parse(t, `{"ns":{"k":"v"}}`)
	require.NoError(t, s.Put(ctx, "de", doc))

	doc.Set("extra", tree.String("x"))
	rec, err := s.Get(ctx, "de")
	require.NoError(t, err)
	require.False(t, rec.Document.Has("extra"))
}

func TestDirStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDir(dir)
	require.NoError(t, err)
	exercise(t, s)

	data, err := os.ReadFile(filepath.Join(dir, "de.json"))
	require.NoError(t, err)
	require.Equal(t, "{\n  \"ns\": {\n    \"k\": \"v\"\n  }\n}\n", string(data))
}

func TestDirStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fr.json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	s, err := NewDir(dir)
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "fr")
	require.True(t, xerrors.Is(err, ErrStoreUnavailable), "got %v", err)

	langs, err := s.Languages(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"fr"}, langs)
}

func TestSqlite3Store(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQL(ctx, DriverSqlite3, filepath.Join(t.TempDir(), "locsync.db"), "")
	require.NoError(t, err)
	require.NoError(t, s.EnsureSchema(ctx))
	require.NoError(t, s.EnsureSchema(ctx), "schema creation must be idempotent")

	exercise(t, s)
}

func TestSqlite3StoreReadsPlainJSON(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQL(ctx, DriverSqlite3, filepath.Join(t.TempDir(), "locsync.db"), "")
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck
	require.NoError(t, s.EnsureSchema(ctx))

	_, err = s.db.ExecContext(ctx, `INSERT INTO "Translation" ("id", "language", "content") VALUES (?, ?, ?)`,
		NewID(), "it", `{"nav":{"home":"Home","about":"Chi siamo"}}`)
	require.NoError(t, err)

	rec, err := s.Get(ctx, "it")
	require.NoError(t, err)
	require.Equal(t, `{"nav":{"home":"Home","about":"Chi siamo"}}`, render(t, rec.Document))
	require.True(t, rec.CreatedAt.IsZero())
}

func TestSqlite3UniqueViolation(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQL(ctx, DriverSqlite3, filepath.Join(t.TempDir(), "locsync.db"), "")
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck
	require.NoError(t, s.EnsureSchema(ctx))

	q := s.adapter.InsertQuery(s.table)
	_, err = s.db.ExecContext(ctx, q, NewID(), "de", "{}", nil, nil)
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx, q, NewID(), "de", "{}", nil, nil)
	require.Error(t, err)
	require.True(t, s.adapter.IsUniqueViolation(err))
}

func TestNewID(t *testing.T) {
	id := NewID()
	require.Regexp(t, regexp.MustCompile(`^cm[0-9a-f]{24}$`), id)
	require.NotEqual(t, id, NewID())
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{Driver: DriverMemory})
	require.NoError(t, err)
	require.IsType(t, &Memory{}, s)

	s, err = Open(ctx, Config{Driver: DriverDir, Dir: t.TempDir()})
	require.NoError(t, err)
	require.IsType(t, &Dir{}, s)

	_, err = Open(ctx, Config{Driver: "mongo"})
	require.Error(t, err)
	_, err = Open(ctx, Config{})
	require.Error(t, err)
}

func TestUnavailableWrapping(t *testing.T) {
	cause := xerrors.New("connection reset")
	err := wrapUnavailable("get de", cause)
	require.True(t, xerrors.Is(err, ErrStoreUnavailable))
	require.True(t, xerrors.Is(err, cause))
	require.Equal(t, err, wrapUnavailable("again", err))
	require.NoError(t, wrapUnavailable("noop", nil))
}
