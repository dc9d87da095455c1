package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/xerrors"

	"github.com/minios-linux/locsync/tree"
)

// Dir stores each language as a human-readable <lang>.json file. The
// files keep the document's key order, so no pairs encoding is needed.
type Dir struct {
	dir string
}

// NewDir returns a store rooted at dir, creating it if needed.
func NewDir(dir string) (*Dir, error) {
	if dir == "" {
		return nil, xerrors.New("dir store: no directory configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, wrapUnavailable("mkdir", err)
	}
	return &Dir{dir: dir}, nil
}

func (d *Dir) path(lang string) string {
	return filepath.Join(d.dir, lang+".json")
}

// Get implements Store.
func (d *Dir) Get(ctx context.Context, lang string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := d.path(lang)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerrors.Errorf("language %q: %w", lang, ErrNotFound)
		}
		return nil, wrapUnavailable("read "+lang, err)
	}
	doc, err := tree.ParseJSON(data)
	if err != nil {
		return nil, wrapUnavailable("read "+lang, xerrors.Errorf("%s: %w", path, err))
	}

	rec := &Record{ID: lang, Language: lang, Document: doc}
	if info, err := os.Stat(path); err == nil {
		rec.CreatedAt = info.ModTime()
		rec.UpdatedAt = info.ModTime()
	}
	return rec, nil
}

// Put implements Store. The file is replaced atomically.
func (d *Dir) Put(ctx context.Context, lang string, doc *tree.Map) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := tree.MarshalIndent(doc)
	if err != nil {
		return xerrors.Errorf("encoding document for %s: %w", lang, err)
	}

	tmp, err := os.CreateTemp(d.dir, "."+lang+".*.tmp")
	if err != nil {
		return wrapUnavailable("write "+lang, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return wrapUnavailable("write "+lang, err)
	}
	if err := tmp.Close(); err != nil {
		return wrapUnavailable("write "+lang, err)
	}
	if err := os.Rename(tmp.Name(), d.path(lang)); err != nil {
		return wrapUnavailable("write "+lang, err)
	}
	return nil
}

// Languages implements Store.
func (d *Dir) Languages(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, wrapUnavailable("list languages", err)
	}
	var langs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		langs = append(langs, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(langs)
	return langs, nil
}

// Close implements Store.
func (d *Dir) Close() error { return nil }
