// Command locsync keeps the translation records of a multilingual app in sync
// with its source language document, filling gaps with machine translation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	logging "github.com/ipfs/go-log/v2"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/xerrors"

	"github.com/minios-linux/locsync/config"
	"github.com/minios-linux/locsync/consensus"
	"github.com/minios-linux/locsync/langmeta"
	"github.com/minios-linux/locsync/lockfile"
	"github.com/minios-linux/locsync/merge"
	"github.com/minios-linux/locsync/reconcile"
	"github.com/minios-linux/locsync/settings"
	"github.com/minios-linux/locsync/source"
	"github.com/minios-linux/locsync/store"
	"github.com/minios-linux/locsync/tree"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	colorBlue   = color.New(color.FgBlue).SprintFunc()
	colorGreen  = color.New(color.FgGreen).SprintFunc()
	colorYellow = color.New(color.Bold, color.FgYellow).SprintFunc()
	colorRed    = color.New(color.FgRed).SprintFunc()
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue("[INFO]")+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen("[OK]")+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow("[WARN]")+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed("[ERROR]")+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir  string
	logLevel string
	verbose  bool
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "locsync",
		Short: "Translation record reconciler",
		Long: `locsync keeps stored translation documents in sync with the source
language document.

Every target language record is merged with the source: keys that already
have a translation are kept verbatim, missing ones are translated by a
consensus of the configured providers, keys removed from the source are
dropped. Records are written once per language, only when they changed.

Commands:
  sync        Reconcile all target languages with the source
  status      Show configuration and per-language coverage
  show        List stored records
  translate   Translate the whole source into a standalone JSON file
  export      Write stored records as <lang>.json files
  auth        Manage provider API keys

Providers:
  google      Google Translate (free web endpoint, no key)
  cloud       Google Cloud Translation API (API key)
  openai      OpenAI-compatible chat completions endpoint
  gemini      Google Gemini API (API key)
  ollama      Ollama local server`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Library log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging (same as --log-level debug)")

	root.AddCommand(
		newSyncCmd(),
		newStatusCmd(),
		newShowCmd(),
		newTranslateCmd(),
		newExportCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logError("%v", err)
		stop()
		os.Exit(1)
	}
}

// setupLogging sets the level of every library logger. The flag wins over
// LOCSYNC_LOG_LEVEL; the default is warn.
func setupLogging() error {
	level := logLevel
	if level == "" {
		if env, err := config.LoadEnv(); err == nil {
			level = env.LogLevel
		}
	}
	if verbose {
		level = "debug"
	}
	if level == "" {
		level = "warn"
	}
	lvl, err := logging.LevelFromString(level)
	if err != nil {
		return xerrors.Errorf("invalid log level %q: %w", level, err)
	}
	logging.SetAllLoggers(lvl)
	return nil
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "locsync version %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit:    %s\n", commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// sync (reconcile every target language)
// ---------------------------------------------------------------------------

type syncArgs struct {
	langs       []string
	dryRun      bool
	skipSource  bool
	noLock      bool
	concurrency int
	driver      string
	dsn         string
}

func newSyncCmd() *cobra.Command {
	var a syncArgs

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile stored translations with the source",
		Long: `Merge every target language record with the source document and
translate the missing keys.

The source record is written first under the source language. Existing
translations are never re-translated; use the lock file report to find
translations whose source text changed.

Examples:
  locsync sync                          All configured languages
  locsync sync --lang de,fr             Only German and French
  locsync sync --dry-run                Translate but write nothing
  locsync sync --driver postgres        Override the store driver (uses DATABASE_URL)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), a)
		},
	}

	cmd.Flags().StringSliceVarP(&a.langs, "lang", "l", nil, "Target languages (default: all configured)")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "Merge and translate without writing")
	cmd.Flags().BoolVar(&a.skipSource, "skip-source", false, "Do not write the source record")
	cmd.Flags().BoolVar(&a.noLock, "no-lock", false, "Ignore the lock file")
	cmd.Flags().IntVarP(&a.concurrency, "concurrency", "j", 0, "Leaves translated at once per language (default: from config)")
	cmd.Flags().StringVar(&a.driver, "driver", "", "Store driver override (postgres, sqlite3, dynamo, dir, memory)")
	cmd.Flags().StringVar(&a.dsn, "dsn", "", "Store DSN override")

	return cmd
}

func runSync(ctx context.Context, a syncArgs) error {
	proj, env, err := loadProject()
	if err != nil {
		return err
	}
	if a.driver != "" {
		proj.Store.Driver = a.driver
	}
	if a.dsn != "" {
		proj.Store.DSN = a.dsn
	}

	langs := filterOutLang(proj.Languages, proj.SourceLang)
	if len(a.langs) > 0 {
		langs = intersectLanguages(langs, a.langs)
	}
	if len(langs) == 0 {
		logWarning("No target languages to reconcile")
		return nil
	}

	registry := config.NewRegistry(proj, env)
	defer registry.Close()

	st, err := openStore(ctx, proj, env)
	if err != nil {
		return err
	}
	defer st.Close()

	var lock *lockfile.LockFile
	if path := proj.LockfilePath(); path != "" && !a.noLock {
		if lock, err = lockfile.Load(path); err != nil {
			return err
		}
	}

	concurrency := proj.Concurrency.Leaves
	if a.concurrency > 0 {
		concurrency = a.concurrency
	}

	logInfo("Source: %s (%s)", proj.SourcePath(), proj.SourceLang)
	logInfo("Store: %s", describeStore(proj))
	logInfo("Languages: %s", strings.Join(langs, ", "))

	var bar *progressbar.ProgressBar
	opts := reconcile.Options{
		SourceLang:       proj.SourceLang,
		Languages:        langs,
		SkipSourceUpsert: a.skipSource,
		MaxConcurrent:    concurrency,
		DryRun:           a.dryRun,
		Lock:             lock,
		OnPlan: func(lang string, pending int) {
			bar = nil
			if pending > 0 {
				bar = newProgressBar(pending, lang)
			}
		},
		OnLeaf: func(lang string, path tree.Path, source, translated string) {
			if bar != nil {
				_ = bar.Add(1)
			}
		},
		OnLanguageDone: func(res reconcile.Result) {
			if bar != nil {
				_ = bar.Finish()
				fmt.Fprintln(os.Stderr)
			}
			reportLanguage(res, a.dryRun)
		},
	}

	r := reconcile.New(source.New(proj.SourcePath(), proj.SourceLang), st, registry, opts)
	report, err := r.Run(ctx)
	if report == nil {
		return err
	}
	if report.SourceWritten {
		logSuccess("%s: source record written", proj.SourceLang)
	}
	if failed := report.Failed(); len(failed) > 0 {
		return xerrors.Errorf("%d language(s) failed (%s): %w", len(failed), strings.Join(failed, ", "), err)
	}
	return err
}

func reportLanguage(res reconcile.Result, dryRun bool) {
	name := langmeta.Name(res.Language)
	if res.Err != nil {
		logError("%s (%s): %v", res.Language, name, res.Err)
		return
	}

	s := res.Stats
	switch {
	case res.Written && res.Created:
		logSuccess("%s (%s): created, %d translated", res.Language, name, s.Translated)
	case res.Written:
		logSuccess("%s (%s): %d translated, %d kept", res.Language, name, s.Translated, s.Copied)
	case dryRun && s.Translated > 0:
		logInfo("%s (%s): %d would be translated (dry run)", res.Language, name, s.Translated)
	default:
		logInfo("%s (%s): up to date", res.Language, name)
	}
	if n := len(res.Stale); n > 0 {
		logWarning("%s: %d translation(s) may be stale: %s", res.Language, n, strings.Join(truncateList(res.Stale, 5), ", "))
	}
}

// ---------------------------------------------------------------------------
// status (read-only: configuration + coverage)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and translation coverage",
		Long: `Show the project configuration (or the auto-detected layout when no
.locsync.yaml exists) and the share of source strings each stored language
record covers. Does not modify anything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context())
		},
	}
}

func runStatus(ctx context.Context) error {
	proj, env, err := loadProject()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "%s\n", colorBlue("Project"))
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  %-12s %s (%s)\n", "Source:", proj.SourcePath(), proj.SourceLang)
	fmt.Fprintf(os.Stderr, "  %-12s %s\n", "Store:", describeStore(proj))
	var provs []string
	for _, p := range proj.Providers {
		provs = append(provs, p.Name)
	}
	fmt.Fprintf(os.Stderr, "  %-12s %s\n", "Providers:", strings.Join(provs, ", "))
	if proj.Priority != "" {
		fmt.Fprintf(os.Stderr, "  %-12s %s\n", "Priority:", proj.Priority)
	}
	fmt.Fprintln(os.Stderr)

	src, err := source.New(proj.SourcePath(), proj.SourceLang).Load(ctx)
	if err != nil {
		return err
	}
	total := tree.CountStrings(src)
	if total == 0 {
		logInfo("No translatable strings found in %s", proj.SourcePath())
		return nil
	}

	st, err := openStore(ctx, proj, env)
	if err != nil {
		return err
	}
	defer st.Close()

	var lock *lockfile.LockFile
	if path := proj.LockfilePath(); path != "" {
		if lock, err = lockfile.Load(path); err != nil {
			return err
		}
	}

	langs := filterOutLang(proj.Languages, proj.SourceLang)
	width := langColumnWidth(langs)

	fmt.Fprintf(os.Stderr, "%s\n", colorBlue("Translation Coverage"))
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	for _, lang := range langs {
		rec, err := st.Get(ctx, lang)
		switch {
		case xerrors.Is(err, store.ErrNotFound):
			fmt.Fprintf(os.Stderr, "  %-*s %s\n", width, lang, colorRed("missing"))
			continue
		case err != nil:
			fmt.Fprintf(os.Stderr, "  %-*s %s\n", width, lang, colorRed("unavailable"))
			logWarning("%s: %v", lang, err)
			continue
		}

		covered := coverage(src, rec.Document)
		line := fmt.Sprintf("  %-*s %s  %d/%d", width, lang, progressBar(covered*100/total, 20), covered, total)
		if lock != nil {
			if n := len(lock.Stale(lang, src)); n > 0 {
				line += "  " + colorYellow(fmt.Sprintf("%d stale", n))
			}
		}
		fmt.Fprintln(os.Stderr, line)
	}
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "Total strings: %d\n", total)
	if lock != nil {
		fmt.Fprintf(os.Stderr, "Lock file: %s\n", lock.Summary())
	}
	return nil
}

// coverage counts the source string leaves that have a value in doc.
func coverage(src, doc *tree.Map) int {
	n := 0
	tree.Walk(src, func(p tree.Path, l tree.Leaf) {
		if _, ok := l.Str(); !ok {
			return
		}
		if _, ok := tree.Lookup(doc, p); ok {
			n++
		}
	})
	return n
}

// ---------------------------------------------------------------------------
// show (list stored records)
// ---------------------------------------------------------------------------

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [lang...]",
		Short: "List stored translation records",
		Long: `Print the language, string count and the beginning of the stored
document of every record (or only the given languages).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), cmd, args)
		},
	}
}

func runShow(ctx context.Context, cmd *cobra.Command, langs []string) error {
	proj, env, err := loadProject()
	if err != nil {
		return err
	}
	st, err := openStore(ctx, proj, env)
	if err != nil {
		return err
	}
	defer st.Close()

	if len(langs) == 0 {
		if langs, err = st.Languages(ctx); err != nil {
			return err
		}
	}
	if len(langs) == 0 {
		logInfo("No records stored")
		return nil
	}

	out := cmd.OutOrStdout()
	for _, lang := range langs {
		rec, err := st.Get(ctx, lang)
		if err != nil {
			logError("%s: %v", lang, err)
			continue
		}
		data, err := tree.MarshalJSON(rec.Document)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s  %d strings  %s\n", lang, tree.CountStrings(rec.Document), preview(string(data), 100))
	}
	return nil
}

// preview returns the first n runes of s, with an ellipsis when cut.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// ---------------------------------------------------------------------------
// export (stored records to <lang>.json files)
// ---------------------------------------------------------------------------

func newExportCmd() *cobra.Command {
	var langs []string

	cmd := &cobra.Command{
		Use:   "export <dir>",
		Short: "Write stored records as JSON files",
		Long: `Write the document of every stored record (or only --lang) to
<dir>/<lang>.json, keeping the stored key order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), args[0], langs)
		},
	}
	cmd.Flags().StringSliceVarP(&langs, "lang", "l", nil, "Languages to export (default: all stored)")
	return cmd
}

func runExport(ctx context.Context, dir string, langs []string) error {
	proj, env, err := loadProject()
	if err != nil {
		return err
	}
	st, err := openStore(ctx, proj, env)
	if err != nil {
		return err
	}
	defer st.Close()

	stored, err := st.Languages(ctx)
	if err != nil {
		return err
	}
	if len(langs) > 0 {
		stored = intersectLanguages(stored, langs)
	}
	if len(stored) == 0 {
		logInfo("No records to export")
		return nil
	}

	out, err := store.NewDir(dir)
	if err != nil {
		return err
	}
	var errs error
	for _, lang := range stored {
		rec, err := st.Get(ctx, lang)
		if err == nil {
			err = out.Put(ctx, lang, rec.Document)
		}
		if err != nil {
			logError("%s: %v", lang, err)
			errs = multierr.Append(errs, xerrors.Errorf("%s: %w", lang, err))
			continue
		}
		logSuccess("%s: %d strings → %s", lang, tree.CountStrings(rec.Document), filepath.Join(dir, lang+".json"))
	}
	return errs
}

// ---------------------------------------------------------------------------
// translate (whole document into a file, store untouched)
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "translate <lang> <out.json>",
		Short: "Translate the whole source into a JSON file",
		Long: `Translate every string of the source document into <lang> and write
the result to <out.json>, keeping the source key order. The store is not
read or written.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd.Context(), args[0], args[1], concurrency)
		},
	}
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "Leaves translated at once (default: from config)")
	return cmd
}

func runTranslate(ctx context.Context, lang, out string, concurrency int) error {
	proj, env, err := loadProject()
	if err != nil {
		return err
	}
	if concurrency <= 0 {
		concurrency = proj.Concurrency.Leaves
	}

	src, err := source.New(proj.SourcePath(), proj.SourceLang).Load(ctx)
	if err != nil {
		return err
	}

	registry := config.NewRegistry(proj, env)
	defer registry.Close()
	cfg, err := registry.For(ctx, lang)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	start := time.Now()
	doc, stats, err := merge.TranslateAll(ctx, src, consensus.New(cfg), merge.Options{
		MaxConcurrent: concurrency,
		OnPlan: func(n int) {
			if n > 0 {
				bar = newProgressBar(n, lang)
			}
		},
		OnLeaf: func(tree.Path, string, string) {
			if bar != nil {
				_ = bar.Add(1)
			}
		},
	})
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return err
	}

	data, err := tree.MarshalIndent(doc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return xerrors.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return xerrors.Errorf("writing %s: %w", out, err)
	}
	logSuccess("%s: %d strings translated in %s → %s", lang, stats.Translated, time.Since(start).Round(time.Millisecond), out)
	return nil
}

// ---------------------------------------------------------------------------
// auth (API key management)
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider API keys",
		Long: `Store API keys for configured providers outside the project tree.

Keys are looked up by provider name. Environment variables
(LOCSYNC_GOOGLE_API_KEY, LOCSYNC_LLM_API_KEY) take precedence.

Examples:
  locsync auth set cloud KEY           Store the key of provider "cloud"
  locsync auth remove cloud            Remove it
  locsync auth list                    Show stored keys`,
	}

	cmd.AddCommand(
		newAuthSetCmd(),
		newAuthRemoveCmd(),
		newAuthListCmd(),
	)
	return cmd
}

func newAuthSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <provider> <key>",
		Short: "Store an API key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := settings.SetAPIKey(args[0], strings.TrimSpace(args[1])); err != nil {
				return err
			}
			logSuccess("%s key saved to %s", args[0], settings.FilePath())
			return nil
		},
	}
}

func newAuthRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove [provider...]",
		Aliases: []string{"rm"},
		Short:   "Remove stored API keys (default: all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				for name := range settings.Load() {
					names = append(names, name)
				}
			}
			for _, name := range names {
				if err := settings.Remove(name); err != nil {
					return err
				}
				logSuccess("%s key removed", name)
			}
			return nil
		},
	}
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show stored API keys",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			creds := settings.Load()
			if len(creds) == 0 {
				fmt.Fprintf(out, "No keys stored in %s\n", settings.FilePath())
				return
			}
			for _, name := range sortedKeys(creds) {
				info := creds[name]
				line := fmt.Sprintf("  %-14s %s", name, settings.MaskKey(info.Key))
				if info.BaseURL != "" {
					line += "  endpoint: " + info.BaseURL
				}
				fmt.Fprintln(out, line)
			}
		},
	}
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

// loadProject reads .locsync.yaml from the root, falling back to
// auto-detection of the source document.
func loadProject() (*config.File, config.Env, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, config.Env{}, err
	}
	proj, err := config.Load(rootDir)
	if err != nil {
		return nil, config.Env{}, err
	}
	if proj == nil {
		proj = config.Detect(rootDir)
		if proj == nil {
			return nil, config.Env{}, xerrors.Errorf("no %s in %s and no source document detected", config.FileName, rootDir)
		}
		logInfo("No %s found, using detected source %s", config.FileName, proj.Source)
	}
	return proj, env, nil
}

func openStore(ctx context.Context, proj *config.File, env config.Env) (store.Store, error) {
	return store.Open(ctx, proj.StoreConfig(env))
}

func describeStore(proj *config.File) string {
	switch proj.Store.Driver {
	case store.DriverDir:
		return fmt.Sprintf("%s (%s)", proj.Store.Driver, proj.StoreConfig(config.Env{}).Dir)
	case store.DriverDynamo:
		table := proj.Store.Table
		if table == "" {
			table = store.DefaultTable
		}
		return fmt.Sprintf("%s (table %s)", proj.Store.Driver, table)
	default:
		return proj.Store.Driver
	}
}

func newProgressBar(n int, lang string) *progressbar.ProgressBar {
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", lang)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

// progressBar renders a coverage bar coloured by completeness.
func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	paint := colorRed
	switch {
	case percent == 100:
		paint = colorGreen
	case percent >= 50:
		paint = colorYellow
	}
	return fmt.Sprintf("%s %3d%%", paint(bar), percent)
}

func langColumnWidth(langs []string) int {
	w := 4
	for _, l := range langs {
		if len(l) > w {
			w = len(l)
		}
	}
	return w
}

// intersectLanguages keeps the languages of available that appear in
// filter, in available order.
func intersectLanguages(available, filter []string) []string {
	want := make(map[string]bool, len(filter))
	for _, f := range filter {
		want[strings.TrimSpace(f)] = true
	}
	var out []string
	for _, l := range available {
		if want[l] {
			out = append(out, l)
		}
	}
	return out
}

func filterOutLang(langs []string, drop string) []string {
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		if l != drop {
			out = append(out, l)
		}
	}
	return out
}

func truncateList(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return append(append([]string(nil), items[:n]...), fmt.Sprintf("and %d more", len(items)-n))
}

func sortedKeys(m settings.Store) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
