// Package merge implements the incremental structured merge of a source
// document into an existing translated document.
//
// The source document is authoritative for shape and key order. Values
// already present in the existing document are copied verbatim and never
// re-translated; only missing string leaves are sent to the translator.
// An existing value whose shape differs from the source (a map where the
// source has a string, say) counts as missing.
package merge

import (
	"context"

	logging "github.com/ipfs/go-log/v2"

	"github.com/minios-linux/locsync/tree"
)

var log = logging.Logger("merge")

// Translator translates one leaf. Non-string leaves must be returned
// unchanged. Implementations never fail; a leaf that could not be
// translated comes back with its source text.
type Translator interface {
	TranslateLeaf(ctx context.Context, l tree.Leaf) tree.Leaf
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(ctx context.Context, l tree.Leaf) tree.Leaf

// TranslateLeaf implements Translator.
func (f TranslatorFunc) TranslateLeaf(ctx context.Context, l tree.Leaf) tree.Leaf {
	return f(ctx, l)
}

// Options control a merge.
type Options struct {
	// MaxConcurrent bounds the number of leaves translated at once.
	// Values <= 1 translate strictly one leaf at a time.
	MaxConcurrent int
	// OnPlan is called once with the number of leaves to translate,
	// before any translation starts.
	OnPlan func(pending int)
	// OnLeaf is called after each leaf translation. Calls are serialized.
	OnLeaf func(path tree.Path, source, translated string)
}

// Stats describes what a merge did.
type Stats struct {
	// Translated is the number of string leaves sent to the translator.
	Translated int
	// Copied is the number of leaves taken verbatim from the existing document.
	Copied int
	// NewNamespaces is the number of top-level keys absent from the
	// existing document.
	NewNamespaces int
	// Filled lists the paths of the translated leaves, in document order.
	Filled []tree.Path
}

// Merge returns a new document with the shape and key order of source.
// Keys present in existing keep their existing value; missing string
// leaves are translated with tr. Keys only present in existing are not
// carried over. A nil existing document is treated as empty.
//
// If ctx is cancelled before every leaf is translated, Merge returns
// ctx.Err() and no document.
func Merge(ctx context.Context, source, existing *tree.Map, tr Translator, opts Options) (*tree.Map, Stats, error) {
	if source == nil {
		source = tree.NewMap()
	}
	if existing == nil {
		existing = tree.NewMap()
	}

	p := &planner{}
	plan := tree.NewMap()
	for _, pair := range source.Pairs() {
		path := tree.Path{pair.Key}
		ev, ok := existing.Get(pair.Key)
		if !ok {
			p.stats.NewNamespaces++
			log.Debugw("new namespace", "namespace", pair.Key)
			plan.Set(pair.Key, p.fresh(path, pair.Value))
			continue
		}
		plan.Set(pair.Key, p.merge(path, pair.Value, ev))
	}

	if opts.OnPlan != nil {
		opts.OnPlan(len(p.jobs))
	}

	results, err := run(ctx, p.jobs, tr, opts)
	if err != nil {
		return nil, Stats{}, err
	}

	stats := p.stats
	stats.Translated = len(p.jobs)
	for _, j := range p.jobs {
		stats.Filled = append(stats.Filled, j.path)
	}
	return resolve(plan, results).(*tree.Map), stats, nil
}

// TranslateAll translates every string leaf of source, as if merging into
// an empty document.
func TranslateAll(ctx context.Context, source *tree.Map, tr Translator, opts Options) (*tree.Map, Stats, error) {
	return Merge(ctx, source, tree.NewMap(), tr, opts)
}

// ---------------------------------------------------------------------------
// Planning
// ---------------------------------------------------------------------------

// job is one string leaf waiting for translation.
type job struct {
	path tree.Path
	leaf tree.Leaf
}

// slot marks the position of a pending job in a planned document.
type slot struct {
	idx int
}

func (*slot) Kind() tree.Kind { return tree.KindLeaf }

type planner struct {
	jobs  []job
	stats Stats
}

// fresh plans the full translation of a source subtree.
func (p *planner) fresh(path tree.Path, src tree.Node) tree.Node {
	switch v := src.(type) {
	case *tree.Map:
		out := tree.NewMap()
		for _, pair := range v.Pairs() {
			out.Set(pair.Key, p.fresh(path.Child(pair.Key), pair.Value))
		}
		return out
	case tree.List:
		out := make(tree.List, len(v))
		for i, item := range v {
			out[i] = p.fresh(path.Index(i), item)
		}
		return out
	case tree.Leaf:
		if _, ok := v.Str(); !ok {
			return v
		}
		p.jobs = append(p.jobs, job{path: path, leaf: v})
		return &slot{idx: len(p.jobs) - 1}
	default:
		return src
	}
}

// merge plans src against the existing value at the same path.
func (p *planner) merge(path tree.Path, src, existing tree.Node) tree.Node {
	switch s := src.(type) {
	case *tree.Map:
		e, ok := existing.(*tree.Map)
		if !ok {
			return p.conflict(path, src, existing)
		}
		out := tree.NewMap()
		for _, pair := range s.Pairs() {
			child := path.Child(pair.Key)
			if ev, ok := e.Get(pair.Key); ok {
				out.Set(pair.Key, p.merge(child, pair.Value, ev))
			} else {
				out.Set(pair.Key, p.fresh(child, pair.Value))
			}
		}
		return out

	case tree.List:
		e, ok := existing.(tree.List)
		if !ok {
			return p.conflict(path, src, existing)
		}
		out := make(tree.List, len(s))
		for i, item := range s {
			if i < len(e) {
				out[i] = p.merge(path.Index(i), item, e[i])
			} else {
				out[i] = p.fresh(path.Index(i), item)
			}
		}
		return out

	default:
		if existing.Kind() != tree.KindLeaf {
			return p.conflict(path, src, existing)
		}
		p.stats.Copied++
		return existing
	}
}

// conflict plans src as if existing had no value at path: an existing
// value of another shape is discarded and the source subtree translated.
func (p *planner) conflict(path tree.Path, src, existing tree.Node) tree.Node {
	log.Debugw("shape differs from source, translating source value", "path", path.String(),
		"source", src.Kind(), "existing", existing.Kind())
	return p.fresh(path, src)
}

// resolve builds the final document from a plan, replacing slots with
// their translations. Containers are rebuilt so the result shares no
// mutable state with the existing document.
func resolve(n tree.Node, results []tree.Leaf) tree.Node {
	switch v := n.(type) {
	case *slot:
		return results[v.idx]
	case *tree.Map:
		out := tree.NewMap()
		for _, pair := range v.Pairs() {
			out.Set(pair.Key, resolve(pair.Value, results))
		}
		return out
	case tree.List:
		out := make(tree.List, len(v))
		for i, item := range v {
			out[i] = resolve(item, results)
		}
		return out
	default:
		return n
	}
}
