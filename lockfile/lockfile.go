// Package lockfile implements locsync.lock, a lock file that tracks MD5
// checksums of the source text each stored translation was produced from,
// per language and leaf path. It is used to report stale translations:
// leaves whose source text changed after they were translated. Stale
// leaves are only reported, never re-translated.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/locsync/tree"
)

// LockFileName is the default lock file name.
const LockFileName = "locsync.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the locsync.lock file structure.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"` // lang -> path -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads a lock file. A directory path means <dir>/locsync.lock.
// Returns an empty lock file if the file doesn't exist.
func Load(path string) (*LockFile, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, LockFileName)
	}
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, xerrors.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, xerrors.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path
	if lf.Version > Version {
		return nil, xerrors.Errorf("%s: unsupported lock file version %d", path, lf.Version)
	}
	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}
	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return xerrors.New("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return xerrors.Errorf("marshaling lock file: %w", err)
	}
	if err := os.WriteFile(lf.path, data, 0o644); err != nil {
		return xerrors.Errorf("writing %s: %w", lf.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksum operations
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// Update records the source text a leaf was just translated from.
func (lf *LockFile) Update(lang string, path tree.Path, source string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	lf.set(lang, path.String(), Hash(source), true)
}

// Baseline records the source text of a leaf only if the leaf is not
// tracked yet. Used for translations that predate the lock file.
func (lf *LockFile) Baseline(lang string, path tree.Path, source string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	lf.set(lang, path.String(), Hash(source), false)
}

func (lf *LockFile) set(lang, key, hash string, overwrite bool) {
	if lf.Checksums[lang] == nil {
		lf.Checksums[lang] = make(map[string]string)
	}
	if _, ok := lf.Checksums[lang][key]; ok && !overwrite {
		return
	}
	lf.Checksums[lang][key] = hash
}

// IsChanged reports whether the source text of a tracked leaf changed
// since it was recorded. Untracked leaves are not changed.
func (lf *LockFile) IsChanged(lang string, path tree.Path, source string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	old, ok := lf.Checksums[lang][path.String()]
	return ok && old != Hash(source)
}

// Stale returns the paths of the string leaves of source whose text
// changed since their translation for lang was recorded, in document order.
func (lf *LockFile) Stale(lang string, source *tree.Map) []string {
	var stale []string
	tree.Walk(source, func(p tree.Path, l tree.Leaf) {
		if s, ok := l.Str(); ok && lf.IsChanged(lang, p, s) {
			stale = append(stale, p.String())
		}
	})
	return stale
}

// Clean removes entries for paths that are no longer string leaves of
// source. This prevents stale entries from accumulating.
func (lf *LockFile) Clean(lang string, source *tree.Map) {
	valid := make(map[string]bool)
	tree.Walk(source, func(p tree.Path, l tree.Leaf) {
		if _, ok := l.Str(); ok {
			valid[p.String()] = true
		}
	})

	lf.mu.Lock()
	defer lf.mu.Unlock()
	for k := range lf.Checksums[lang] {
		if !valid[k] {
			delete(lf.Checksums[lang], k)
		}
	}
}

// RemoveLanguage removes all checksums for a language.
func (lf *LockFile) RemoveLanguage(lang string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	delete(lf.Checksums, lang)
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of languages and total paths in the lock file.
func (lf *LockFile) Stats() (langs, paths int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	langs = len(lf.Checksums)
	for _, m := range lf.Checksums {
		paths += len(m)
	}
	return
}

// Languages returns the sorted list of tracked languages.
func (lf *LockFile) Languages() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	langs := make([]string, 0, len(lf.Checksums))
	for l := range lf.Checksums {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	langs, paths := lf.Stats()
	if langs == 0 {
		return "empty"
	}

	var parts []string
	for _, l := range lf.Languages() {
		lf.mu.Lock()
		n := len(lf.Checksums[l])
		lf.mu.Unlock()
		parts = append(parts, fmt.Sprintf("%s: %d keys", l, n))
	}
	return fmt.Sprintf("%d languages, %d keys (%s)", langs, paths, strings.Join(parts, ", "))
}
