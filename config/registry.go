package config

import (
	"context"
	"io"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/time/rate"
	"golang.org/x/xerrors"

	"github.com/minios-linux/locsync/consensus"
	"github.com/minios-linux/locsync/entity"
	"github.com/minios-linux/locsync/langmeta"
	"github.com/minios-linux/locsync/provider"
)

// Factory builds the base provider of a definition for one language pair.
type Factory func(ctx context.Context, def ProviderDef, apiKey, from, to string) (provider.Provider, error)

// DefaultFactories maps provider types to their constructors.
var DefaultFactories = map[string]Factory{
	ProviderGoogle: func(_ context.Context, _ ProviderDef, _, from, to string) (provider.Provider, error) {
		return provider.NewGoogleFree(from, to), nil
	},
	ProviderCloud: func(ctx context.Context, _ ProviderDef, apiKey, from, to string) (provider.Provider, error) {
		return provider.NewCloudTranslate(ctx, apiKey, from, to)
	},
	ProviderOpenAI: llmFactory(provider.FormatOpenAIChat),
	ProviderGemini: llmFactory(provider.FormatGemini),
	ProviderOllama: llmFactory(provider.FormatOllama),
}

func llmFactory(format provider.Format) Factory {
	return func(_ context.Context, def ProviderDef, apiKey, from, to string) (provider.Provider, error) {
		baseURL := def.BaseURL
		if baseURL == "" && format == provider.FormatGemini {
			baseURL = "https://generativelanguage.googleapis.com"
		}
		return &provider.LLM{
			ID:         def.Name,
			Format:     format,
			BaseURL:    baseURL,
			APIKey:     apiKey,
			Model:      def.Model,
			SourceLang: langmeta.Name(from),
			TargetLang: langmeta.Name(to),
			Prompt:     def.Prompt,
			Proxy:      def.Proxy,
		}, nil
	}
}

// Registry turns the project file into per-language consensus
// configurations. It is built once and not modified afterwards; the
// only state it owns is the shared rate limiters and the clients it has
// to close.
type Registry struct {
	file      *File
	env       Env
	factories map[string]Factory
	extractor entity.Extractor
	limiters  map[string]*rate.Limiter

	mu      sync.Mutex
	closers []io.Closer
}

// RegistryOption customizes NewRegistry.
type RegistryOption func(*Registry)

// WithFactory replaces the constructor for a provider type.
func WithFactory(typ string, f Factory) RegistryOption {
	return func(r *Registry) { r.factories[typ] = f }
}

// WithExtractor replaces the entity extractor built from the file.
func WithExtractor(ex entity.Extractor) RegistryOption {
	return func(r *Registry) { r.extractor = ex }
}

// NewRegistry builds a registry for f.
func NewRegistry(f *File, env Env, opts ...RegistryOption) *Registry {
	r := &Registry{
		file:      f,
		env:       env,
		factories: make(map[string]Factory, len(DefaultFactories)),
		limiters:  make(map[string]*rate.Limiter),
	}
	for typ, fn := range DefaultFactories {
		r.factories[typ] = fn
	}

	var ex entity.Union
	if f.NEREnabled() {
		ex = append(ex, entity.NewProse())
	}
	if len(f.Entities.Glossary) > 0 {
		ex = append(ex, entity.NewGlossary(f.Entities.Glossary))
	}
	r.extractor = ex

	// Limiters are per provider, shared by every language.
	for _, def := range f.Providers {
		if def.Rate > 0 {
			burst := int(def.Rate)
			if burst < 1 {
				burst = 1
			}
			r.limiters[def.Name] = rate.NewLimiter(rate.Limit(def.Rate), burst)
		}
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SourceLang returns the source language code.
func (r *Registry) SourceLang() string { return r.file.SourceLang }

// Languages returns the configured target languages.
func (r *Registry) Languages() []string {
	return append([]string(nil), r.file.Languages...)
}

// For builds the consensus configuration of lang.
func (r *Registry) For(ctx context.Context, lang string) (consensus.Config, error) {
	cfg := consensus.Config{
		Language:   lang,
		Extractor:  r.extractor,
		Moderation: r.file.Moderation,
		FanOut:     r.file.Concurrency.Providers,
	}

	for _, def := range r.file.ProvidersFor(lang) {
		p, err := r.build(ctx, def, lang)
		if err != nil {
			return consensus.Config{}, xerrors.Errorf("provider %q for %s: %w", def.Name, lang, err)
		}
		cfg.Providers = append(cfg.Providers, p)
	}

	if name := r.file.PriorityFor(lang); name != "" {
		for i, def := range r.file.ProvidersFor(lang) {
			if def.Name == name {
				cfg.Priority = cfg.Providers[i]
			}
		}
		if cfg.Priority == nil {
			def, _ := r.file.provider(name)
			p, err := r.build(ctx, def, lang)
			if err != nil {
				return consensus.Config{}, xerrors.Errorf("priority provider %q for %s: %w", name, lang, err)
			}
			cfg.Priority = p
		}
	}

	if len(cfg.Providers) == 0 && cfg.Priority == nil {
		return consensus.Config{}, xerrors.Errorf("no providers configured for %s", lang)
	}
	return cfg, nil
}

// build creates a decorated provider: timeout per attempt, shared rate
// limit, retries, then memoization.
func (r *Registry) build(ctx context.Context, def ProviderDef, lang string) (provider.Provider, error) {
	factory, ok := r.factories[def.Type]
	if !ok {
		return nil, xerrors.Errorf("unknown provider type %q", def.Type)
	}
	base, err := factory(ctx, def, r.env.APIKey(def), r.file.SourceLang, lang)
	if err != nil {
		return nil, err
	}
	if c, ok := base.(io.Closer); ok {
		r.mu.Lock()
		r.closers = append(r.closers, c)
		r.mu.Unlock()
	}

	p := provider.WithTimeout(named{base, def.Name}, def.Timeout)
	if l, ok := r.limiters[def.Name]; ok {
		p = provider.WithRateLimit(p, l)
	}
	if def.Retries > 0 {
		p = provider.WithRetry(p, def.Retries+1)
	}
	if def.Cache > 0 {
		if p, err = provider.WithCache(p, def.Cache); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Close releases every client created by For.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	for _, c := range r.closers {
		err = multierr.Append(err, c.Close())
	}
	r.closers = nil
	return err
}

// named reports the configured provider name instead of the adapter's.
type named struct {
	provider.Provider
	name string
}

func (n named) Name() string { return n.name }
