// Package config handles the .locsync.yaml project file.
//
// The project file declares the source document, the target languages,
// the translation providers and where translated documents are stored.
// Secrets come from the environment (see Env) or the credential store.
package config

import (
	"os"
	"path/filepath"
	"time"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/locsync/store"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .locsync.yaml structure.
type File struct {
	// SourceLang is the source language code (default "en").
	SourceLang string `yaml:"source_lang,omitempty"`
	// Source is the source document: a JSON/YAML file or a directory of
	// <namespace>.json files, relative to the project root.
	Source string `yaml:"source"`
	// Languages are the target language codes, processed in this order.
	Languages []string `yaml:"languages"`

	// Providers are the translation backends, in consensus order.
	Providers []ProviderDef `yaml:"providers"`
	// LanguageProviders overrides the provider list per language.
	LanguageProviders map[string][]string `yaml:"language_providers,omitempty"`
	// Priority names a provider whose successful answer is used as is.
	Priority string `yaml:"priority,omitempty"`
	// LanguagePriority overrides Priority per language ("" disables it).
	LanguagePriority map[string]string `yaml:"language_priority,omitempty"`

	Store       StoreDef    `yaml:"store"`
	Entities    EntitiesDef `yaml:"entities,omitempty"`
	Concurrency Concurrency `yaml:"concurrency,omitempty"`
	// Moderation drops provider answers flagged as inappropriate.
	Moderation bool `yaml:"moderation,omitempty"`
	// Lockfile is the lock file path relative to the project root
	// ("" disables stale tracking).
	Lockfile string `yaml:"lockfile,omitempty"`

	// root is the directory the file was loaded from.
	root string
}

// ProviderDef declares one translation provider.
type ProviderDef struct {
	// Name identifies the provider in language_providers and priority.
	Name string `yaml:"name"`
	// Type: "google", "cloud", "openai", "gemini", "ollama".
	Type string `yaml:"type"`
	// Model is the model identifier (LLM types).
	Model string `yaml:"model,omitempty"`
	// BaseURL is the API endpoint (LLM types).
	BaseURL string `yaml:"base_url,omitempty"`
	// Prompt overrides the LLM system prompt.
	Prompt string `yaml:"prompt,omitempty"`
	// Proxy is an optional HTTP/HTTPS proxy URL (LLM types).
	Proxy string `yaml:"proxy,omitempty"`
	// Timeout bounds each call (default 30s).
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// Rate limits calls per second across all languages (0 = unlimited).
	Rate float64 `yaml:"rate,omitempty"`
	// Retries is the number of extra attempts after a failure.
	Retries int `yaml:"retries,omitempty"`
	// Cache is the size of the per-language LRU of results (0 = off).
	Cache int `yaml:"cache,omitempty"`
}

// StoreDef selects the document store.
type StoreDef struct {
	// Driver: "postgres", "sqlite3", "dynamo", "dir", "memory".
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn,omitempty"`
	Dir      string `yaml:"dir,omitempty"`
	Table    string `yaml:"table,omitempty"`
	Region   string `yaml:"region,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
}

// EntitiesDef configures entity protection.
type EntitiesDef struct {
	// NER enables named entity recognition (default true).
	NER *bool `yaml:"ner,omitempty"`
	// Glossary lists terms that are never translated.
	Glossary []string `yaml:"glossary,omitempty"`
}

// Concurrency bounds parallel work. Zero values mean sequential.
type Concurrency struct {
	// Leaves is the number of leaves translated at once per language.
	Leaves int `yaml:"leaves,omitempty"`
	// Providers is the number of providers queried at once per leaf.
	Providers int `yaml:"providers,omitempty"`
}

// Provider types.
const (
	ProviderGoogle = "google"
	ProviderCloud  = "cloud"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// FileName is the default config file name.
const FileName = ".locsync.yaml"

// DefaultLockfile is the lock file name used when none is configured.
const DefaultLockfile = "locsync.lock"

// Load loads and validates .locsync.yaml from the given directory.
// Returns nil if no .locsync.yaml exists.
func Load(rootDir string) (*File, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, xerrors.Errorf("reading %s: %w", path, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", path, err)
	}
	f.root = rootDir
	return f, nil
}

// Parse decodes, defaults and validates a project file.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, xerrors.Errorf("parsing: %w", err)
	}
	f.setDefaults()
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) setDefaults() {
	if f.SourceLang == "" {
		f.SourceLang = "en"
	}
	if f.Store.Driver == "" {
		f.Store.Driver = store.DriverDir
	}
	if f.Store.Driver == store.DriverDir && f.Store.Dir == "" {
		f.Store.Dir = "translations"
	}
	if len(f.Providers) == 0 {
		f.Providers = []ProviderDef{{Name: ProviderGoogle, Type: ProviderGoogle}}
	}
	for i := range f.Providers {
		p := &f.Providers[i]
		if p.Type == "" {
			p.Type = p.Name
		}
	}
}

func (f *File) validate() error {
	if f.Source == "" {
		return xerrors.New("no source document configured")
	}

	seen := make(map[string]bool)
	for i, p := range f.Providers {
		if p.Name == "" {
			return xerrors.Errorf("provider #%d has no name", i+1)
		}
		if seen[p.Name] {
			return xerrors.Errorf("provider %q declared twice", p.Name)
		}
		seen[p.Name] = true

		switch p.Type {
		case ProviderGoogle, ProviderCloud:
		case ProviderOpenAI, ProviderGemini, ProviderOllama:
			if p.Model == "" {
				return xerrors.Errorf("provider %q has no model", p.Name)
			}
			if p.Type == ProviderOpenAI && p.BaseURL == "" {
				return xerrors.Errorf("provider %q has no base_url", p.Name)
			}
		default:
			return xerrors.Errorf("provider %q has unknown type %q (valid: google, cloud, openai, gemini, ollama)", p.Name, p.Type)
		}
		if p.Rate < 0 || p.Retries < 0 || p.Cache < 0 || p.Timeout < 0 {
			return xerrors.Errorf("provider %q: rate, retries, cache and timeout must not be negative", p.Name)
		}
	}

	for lang, names := range f.LanguageProviders {
		for _, n := range names {
			if !seen[n] {
				return xerrors.Errorf("language_providers.%s: unknown provider %q", lang, n)
			}
		}
	}
	if f.Priority != "" && !seen[f.Priority] {
		return xerrors.Errorf("priority: unknown provider %q", f.Priority)
	}
	for lang, n := range f.LanguagePriority {
		if n != "" && !seen[n] {
			return xerrors.Errorf("language_priority.%s: unknown provider %q", lang, n)
		}
	}

	for i, lang := range f.Languages {
		if lang == "" {
			return xerrors.Errorf("language #%d is empty", i+1)
		}
		if lang == f.SourceLang {
			return xerrors.Errorf("language %q is the source language", lang)
		}
	}

	switch f.Store.Driver {
	case store.DriverPostgres, store.DriverSqlite3, store.DriverDynamo, store.DriverDir, store.DriverMemory:
	default:
		return xerrors.Errorf("store has unknown driver %q (valid: postgres, sqlite3, dynamo, dir, memory)", f.Store.Driver)
	}
	if f.Concurrency.Leaves < 0 || f.Concurrency.Providers < 0 {
		return xerrors.New("concurrency must not be negative")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Resolving paths
// ---------------------------------------------------------------------------

// Root returns the project root the file was loaded from.
func (f *File) Root() string {
	if f.root == "" {
		return "."
	}
	return f.root
}

// SetRoot sets the directory relative paths are resolved against.
func (f *File) SetRoot(dir string) { f.root = dir }

func (f *File) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(f.Root(), p)
}

// SourcePath returns the source document path.
func (f *File) SourcePath() string { return f.abs(f.Source) }

// LockfilePath returns the lock file path, or "" when disabled.
func (f *File) LockfilePath() string { return f.abs(f.Lockfile) }

// StoreConfig returns the store configuration with env overrides applied.
func (f *File) StoreConfig(env Env) store.Config {
	cfg := store.Config{
		Driver:   f.Store.Driver,
		DSN:      f.Store.DSN,
		Dir:      f.abs(f.Store.Dir),
		Table:    f.Store.Table,
		Region:   f.Store.Region,
		Endpoint: f.Store.Endpoint,
	}
	if env.DatabaseURL != "" && (cfg.Driver == store.DriverPostgres || cfg.Driver == store.DriverSqlite3) {
		cfg.DSN = env.DatabaseURL
	}
	if env.AWSRegion != "" && cfg.Region == "" {
		cfg.Region = env.AWSRegion
	}
	return cfg
}

// NEREnabled reports whether named entity recognition is on.
func (f *File) NEREnabled() bool {
	return f.Entities.NER == nil || *f.Entities.NER
}

// ProvidersFor returns the provider definitions used for lang, in order.
func (f *File) ProvidersFor(lang string) []ProviderDef {
	names, ok := f.LanguageProviders[lang]
	if !ok {
		return append([]ProviderDef(nil), f.Providers...)
	}
	var out []ProviderDef
	for _, n := range names {
		if def, ok := f.provider(n); ok {
			out = append(out, def)
		}
	}
	return out
}

// PriorityFor returns the priority provider name for lang ("" for none).
func (f *File) PriorityFor(lang string) string {
	if n, ok := f.LanguagePriority[lang]; ok {
		return n
	}
	return f.Priority
}

func (f *File) provider(name string) (ProviderDef, bool) {
	for _, p := range f.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return ProviderDef{}, false
}
