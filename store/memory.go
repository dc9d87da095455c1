package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/xerrors"

	"github.com/minios-linux/locsync/tree"
)

// Memory keeps records in process. Documents are stored pairs-encoded,
// so callers never share state with the store.
type Memory struct {
	mu      sync.Mutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	id        string
	content   []byte
	createdAt time.Time
	updatedAt time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]memoryRecord)}
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context, lang string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	r, ok := m.records[lang]
	m.mu.Unlock()
	if !ok {
		return nil, xerrors.Errorf("language %q: %w", lang, ErrNotFound)
	}
	doc, err := tree.UnmarshalPairsMap(r.content)
	if err != nil {
		return nil, wrapUnavailable("get "+lang, err)
	}
	return &Record{ID: r.id, Language: lang, Document: doc, CreatedAt: r.createdAt, UpdatedAt: r.updatedAt}, nil
}

// Put implements Store.
func (m *Memory) Put(ctx context.Context, lang string, doc *tree.Map) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	content, err := tree.MarshalPairs(doc)
	if err != nil {
		return xerrors.Errorf("encoding document for %s: %w", lang, err)
	}
	now := time.Now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[lang]
	if !ok {
		r = memoryRecord{id: NewID(), createdAt: now}
	}
	r.content = content
	r.updatedAt = now
	m.records[lang] = r
	return nil
}

// Languages implements Store.
func (m *Memory) Languages(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	langs := make([]string, 0, len(m.records))
	for l := range m.records {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs, nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }
