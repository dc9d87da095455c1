// Package reconcile brings the stored translation documents of every
// target language in line with the source document.
//
// For each language the stored document is loaded, merged with the source
// (missing leaves are translated, existing ones kept) and written back once,
// only if it changed. A store failure affects only its language; a source
// failure aborts the run before any language is touched.
package reconcile

import (
	"context"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"go.uber.org/multierr"
	"golang.org/x/xerrors"

	"github.com/minios-linux/locsync/consensus"
	"github.com/minios-linux/locsync/lockfile"
	"github.com/minios-linux/locsync/merge"
	"github.com/minios-linux/locsync/source"
	"github.com/minios-linux/locsync/store"
	"github.com/minios-linux/locsync/tree"
)

var log = logging.Logger("reconcile")

// Configurer returns the consensus configuration of a target language.
// *config.Registry implements it.
type Configurer interface {
	For(ctx context.Context, lang string) (consensus.Config, error)
}

// ConfigFunc adapts a function to Configurer.
type ConfigFunc func(ctx context.Context, lang string) (consensus.Config, error)

// For implements Configurer.
func (f ConfigFunc) For(ctx context.Context, lang string) (consensus.Config, error) {
	return f(ctx, lang)
}

// Options control a run.
type Options struct {
	// SourceLang is the language of the source document ("en" if empty).
	SourceLang string
	// Languages are the target languages, processed in this order.
	// The source language is skipped if listed.
	Languages []string
	// SkipSourceUpsert disables writing the source document under
	// SourceLang before the target languages.
	SkipSourceUpsert bool
	// MaxConcurrent bounds leaf parallelism within a language.
	MaxConcurrent int
	// DryRun merges but never writes to the store or the lock file.
	DryRun bool
	// Lock, when set, records the source text of filled leaves and is
	// used to report stale translations. It is saved at the end of the run.
	Lock *lockfile.LockFile

	OnLanguageStart func(lang string)
	OnPlan          func(lang string, pending int)
	OnLeaf          func(lang string, path tree.Path, source, translated string)
	OnLanguageDone  func(res Result)
}

// Result describes what happened to one language.
type Result struct {
	Language string
	// Created is true when the language had no record before the run.
	Created bool
	// Written is true when the store was updated.
	Written bool
	Stats   merge.Stats
	// Stale lists copied leaves whose source text changed since they were
	// translated. Only known with a lock file.
	Stale    []string
	Duration time.Duration
	Err      error
}

// Report is the outcome of a run.
type Report struct {
	// SourceWritten is true when the source record was created or updated.
	SourceWritten bool
	Results       []Result
}

// Failed returns the languages whose reconciliation failed.
func (r *Report) Failed() []string {
	var out []string
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res.Language)
		}
	}
	return out
}

// Reconciler ties a source, a store and the provider configuration.
type Reconciler struct {
	source source.Loader
	store  store.Store
	config Configurer
	opts   Options
}

// New returns a reconciler.
func New(src source.Loader, st store.Store, cfg Configurer, opts Options) *Reconciler {
	if opts.SourceLang == "" {
		opts.SourceLang = "en"
	}
	return &Reconciler{source: src, store: st, config: cfg, opts: opts}
}

// Run reconciles every language. The returned error aggregates the
// per-language failures; the report is complete even when it is non-nil.
// A source failure or a cancelled context stops the run.
func (r *Reconciler) Run(ctx context.Context) (*Report, error) {
	src, err := r.source.Load(ctx)
	if err != nil {
		return nil, xerrors.Errorf("loading source: %w", err)
	}
	log.Infow("source loaded", "lang", r.opts.SourceLang, "strings", tree.CountStrings(src))

	report := &Report{}
	var errs error

	if !r.opts.SkipSourceUpsert && !r.opts.DryRun {
		written, err := r.upsertSource(ctx, src)
		if err != nil {
			errs = multierr.Append(errs, err)
		}
		report.SourceWritten = written
	}

	for _, lang := range r.opts.Languages {
		if lang == r.opts.SourceLang {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, multierr.Append(errs, err)
		}

		res := r.language(ctx, lang, src)
		report.Results = append(report.Results, res)
		if r.opts.OnLanguageDone != nil {
			r.opts.OnLanguageDone(res)
		}
		if res.Err != nil {
			if xerrors.Is(res.Err, context.Canceled) || xerrors.Is(res.Err, context.DeadlineExceeded) {
				return report, multierr.Append(errs, res.Err)
			}
			log.Errorw("language failed", "lang", lang, "error", res.Err)
			errs = multierr.Append(errs, xerrors.Errorf("%s: %w", lang, res.Err))
		}
	}

	if r.opts.Lock != nil && !r.opts.DryRun {
		if err := r.opts.Lock.Save(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return report, errs
}

// upsertSource writes the source document under the source language,
// unless the stored one is already identical.
func (r *Reconciler) upsertSource(ctx context.Context, src *tree.Map) (bool, error) {
	rec, err := r.store.Get(ctx, r.opts.SourceLang)
	switch {
	case err == nil:
		if tree.Equal(rec.Document, src) {
			log.Debugw("source record up to date", "lang", r.opts.SourceLang)
			return false, nil
		}
	case xerrors.Is(err, store.ErrNotFound):
	default:
		return false, xerrors.Errorf("%s (source): %w", r.opts.SourceLang, err)
	}

	if err := r.store.Put(ctx, r.opts.SourceLang, src); err != nil {
		return false, xerrors.Errorf("%s (source): %w", r.opts.SourceLang, err)
	}
	log.Infow("source record written", "lang", r.opts.SourceLang)
	return true, nil
}

func (r *Reconciler) language(ctx context.Context, lang string, src *tree.Map) (res Result) {
	start := time.Now()
	res.Language = lang
	defer func() { res.Duration = time.Since(start) }()

	if r.opts.OnLanguageStart != nil {
		r.opts.OnLanguageStart(lang)
	}

	existing := tree.NewMap()
	rec, err := r.store.Get(ctx, lang)
	switch {
	case err == nil:
		existing = rec.Document
	case xerrors.Is(err, store.ErrNotFound):
		res.Created = true
	default:
		res.Err = err
		return res
	}

	cfg, err := r.config.For(ctx, lang)
	if err != nil {
		res.Err = err
		return res
	}
	tr := consensus.New(cfg)

	opts := merge.Options{MaxConcurrent: r.opts.MaxConcurrent}
	if r.opts.OnPlan != nil {
		opts.OnPlan = func(n int) { r.opts.OnPlan(lang, n) }
	}
	if r.opts.OnLeaf != nil {
		opts.OnLeaf = func(p tree.Path, s, t string) { r.opts.OnLeaf(lang, p, s, t) }
	}

	merged, stats, err := merge.Merge(ctx, src, existing, tr, opts)
	if err != nil {
		res.Err = err
		return res
	}
	res.Stats = stats

	if res.Created || !tree.Equal(merged, existing) {
		if r.opts.DryRun {
			log.Infow("dry run, not writing", "lang", lang, "translated", stats.Translated)
		} else {
			if err := r.store.Put(ctx, lang, merged); err != nil {
				res.Err = err
				return res
			}
			res.Written = true
		}
	}

	if r.opts.Lock != nil {
		res.Stale = r.track(lang, src, merged, stats)
		for _, p := range res.Stale {
			log.Warnw("translation may be stale, source text changed", "lang", lang, "path", p)
		}
	}

	log.Infow("language reconciled", "lang", lang,
		"translated", stats.Translated, "copied", stats.Copied,
		"new_namespaces", stats.NewNamespaces, "written", res.Written)
	return res
}

// track records filled leaves in the lock file, baselines leaves that
// predate it and returns the stale paths.
func (r *Reconciler) track(lang string, src, merged *tree.Map, stats merge.Stats) []string {
	lock := r.opts.Lock
	if r.opts.DryRun {
		return lock.Stale(lang, src)
	}

	for _, p := range stats.Filled {
		n, _ := tree.Lookup(src, p)
		if l, ok := n.(tree.Leaf); ok {
			if s, ok := l.Str(); ok {
				lock.Update(lang, p, s)
			}
		}
	}
	tree.Walk(src, func(p tree.Path, l tree.Leaf) {
		s, ok := l.Str()
		if !ok {
			return
		}
		if _, ok := tree.Lookup(merged, p); ok {
			lock.Baseline(lang, p, s)
		}
	})
	lock.Clean(lang, src)
	return lock.Stale(lang, src)
}
