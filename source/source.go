// Package source loads the source-language document that every target
// language is reconciled against.
package source

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/xerrors"

	"github.com/minios-linux/locsync/tree"
)

// ErrSourceUnavailable wraps every failure to load the source document.
var ErrSourceUnavailable = xerrors.New("source document unavailable")

// Loader produces the source document.
type Loader interface {
	Load(ctx context.Context) (*tree.Map, error)
}

type unavailable struct {
	err error
}

func (e *unavailable) Error() string { return e.err.Error() }

func (e *unavailable) Unwrap() error { return e.err }

func (e *unavailable) Is(target error) bool { return target == ErrSourceUnavailable }

func wrap(format string, args ...any) error {
	return &unavailable{err: xerrors.Errorf(format, args...)}
}

// ---------------------------------------------------------------------------
// File
// ---------------------------------------------------------------------------

// File loads a single JSON or YAML document. If the document's only
// top-level key is Lang and its value is a map, that map is the source
// document ({"en": {...}} layout).
type File struct {
	Path string
	Lang string
}

// Load implements Loader.
func (f File) Load(ctx context.Context) (*tree.Map, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, wrap("reading %s: %w", f.Path, err)
	}

	var doc *tree.Map
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".yaml", ".yml":
		doc, err = tree.ParseYAML(data)
	default:
		doc, err = tree.ParseJSON(data)
	}
	if err != nil {
		return nil, wrap("parsing %s: %w", f.Path, err)
	}
	return unwrapLang(doc, f.Lang), nil
}

func unwrapLang(doc *tree.Map, lang string) *tree.Map {
	if lang == "" || doc.Len() != 1 {
		return doc
	}
	v, ok := doc.Get(lang)
	if !ok {
		return doc
	}
	if inner, ok := v.(*tree.Map); ok {
		return inner
	}
	return doc
}

// ---------------------------------------------------------------------------
// Dir
// ---------------------------------------------------------------------------

// Dir loads one namespace per <ns>.json file in Path, in file-name order
// (the public/locales/<lang>/ layout).
type Dir struct {
	Path string
}

// Load implements Loader.
func (d Dir) Load(ctx context.Context) (*tree.Map, error) {
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		return nil, wrap("reading %s: %w", d.Path, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, wrap("no namespace files in %s", d.Path)
	}

	doc := tree.NewMap()
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(d.Path, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, wrap("reading %s: %w", path, err)
		}
		ns, err := tree.ParseJSON(data)
		if err != nil {
			return nil, wrap("parsing %s: %w", path, err)
		}
		doc.Set(strings.TrimSuffix(name, ".json"), ns)
	}
	return doc, nil
}

// ---------------------------------------------------------------------------
// Static
// ---------------------------------------------------------------------------

// Static serves a document already in memory.
type Static struct {
	Doc *tree.Map
}

// Load implements Loader.
func (s Static) Load(context.Context) (*tree.Map, error) {
	if s.Doc == nil {
		return nil, wrap("no document")
	}
	return tree.Clone(s.Doc).(*tree.Map), nil
}

// New picks a loader for path: a directory becomes a Dir loader,
// anything else a File loader.
func New(path, lang string) Loader {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return Dir{Path: path}
	}
	return File{Path: path, Lang: lang}
}
