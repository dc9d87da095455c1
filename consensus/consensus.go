// Package consensus merges the outputs of several translation providers
// into one best-guess string while keeping named entities intact.
package consensus

import (
	"context"
	"regexp"
	"strings"

	"github.com/finnbear/moderation"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/sync/errgroup"

	"github.com/minios-linux/locsync/entity"
	"github.com/minios-linux/locsync/provider"
	"github.com/minios-linux/locsync/tree"
)

var log = logging.Logger("consensus")

// Config describes the translators for one target language. It is copied
// by New and never changes afterwards.
type Config struct {
	// Language is the target language code, for logs.
	Language string
	// Providers are consulted in this order; ties between equally good
	// candidates go to the earlier provider.
	Providers []provider.Provider
	// Priority, when set and successful, short-circuits the vote.
	Priority provider.Provider
	// Extractor finds entities to protect. Nil disables protection.
	Extractor entity.Extractor
	// Moderation drops candidates flagged as inappropriate when the
	// source text is not.
	Moderation bool
	// FanOut bounds concurrent provider calls per text (<= 1 is sequential).
	FanOut int
}

// Translator is a ConsensusTranslator bound to one Config.
type Translator struct {
	language   string
	priority   provider.Provider
	providers  []provider.Provider
	extractor  entity.Extractor
	moderation bool
	fanOut     int
}

// New builds a translator from cfg. A priority provider that also appears
// in Providers (same Name) is only called once, as the priority.
func New(cfg Config) *Translator {
	t := &Translator{
		language:   cfg.Language,
		priority:   cfg.Priority,
		extractor:  cfg.Extractor,
		moderation: cfg.Moderation,
		fanOut:     cfg.FanOut,
	}
	if t.extractor == nil {
		t.extractor = entity.Nop{}
	}
	if t.fanOut < 1 {
		t.fanOut = 1
	}
	for _, p := range cfg.Providers {
		if t.priority != nil && p.Name() == t.priority.Name() {
			continue
		}
		t.providers = append(t.providers, p)
	}
	return t
}

// Language returns the target language.
func (t *Translator) Language() string { return t.language }

// TranslateLeaf translates string leaves; other leaves are returned as is.
func (t *Translator) TranslateLeaf(ctx context.Context, l tree.Leaf) tree.Leaf {
	s, ok := l.Str()
	if !ok {
		return l
	}
	return tree.String(t.Translate(ctx, s))
}

// Translate returns the consensus translation of text. It never fails:
// when no provider succeeds the source text comes back unchanged.
func (t *Translator) Translate(ctx context.Context, text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return text
	}

	ents := t.extractor.Extract(text)
	if ents.Has(trimmed) {
		log.Debugw("text is a single entity, keeping it", "lang", t.language, "text", text)
		return text
	}

	if t.priority != nil {
		res := provider.Call(ctx, t.priority, text)
		if res.OK() {
			return t.preserveEntities(ctx, text, res.Text, ents)
		}
		log.Debugw("priority provider failed", "lang", t.language, "provider", t.priority.Name(), "error", res.Err)
	}

	candidates := t.candidates(ctx, text)
	best, ok := Select(candidates)
	if !ok {
		log.Debugw("no provider succeeded, keeping source text", "lang", t.language, "text", text)
		return text
	}
	return t.preserveEntities(ctx, text, best, ents)
}

// candidates calls every non-priority provider and returns the successful
// results in provider order.
func (t *Translator) candidates(ctx context.Context, text string) []string {
	results := make([]provider.Result, len(t.providers))

	var g errgroup.Group
	g.SetLimit(t.fanOut)
	for i, p := range t.providers {
		i, p := i, p
		g.Go(func() error {
			results[i] = provider.Call(ctx, p, text)
			return nil
		})
	}
	_ = g.Wait()

	sourceFlagged := t.moderation && moderation.Scan(text).Is(moderation.Inappropriate)

	var out []string
	for i, res := range results {
		name := t.providers[i].Name()
		if !res.OK() {
			log.Debugw("provider failed", "lang", t.language, "provider", name, "error", res.Err)
			continue
		}
		if t.moderation && !sourceFlagged && moderation.Scan(res.Text).Is(moderation.Inappropriate) {
			log.Debugw("dropping inappropriate candidate", "lang", t.language, "provider", name)
			continue
		}
		out = append(out, res.Text)
	}
	return out
}

// ---------------------------------------------------------------------------
// Entity preservation
// ---------------------------------------------------------------------------

// preserveEntities puts back entities that a provider translated. For each
// entity missing from result, the entity is translated on its own and, if
// that form occurs in result, the first occurrence is replaced by the
// original entity.
func (t *Translator) preserveEntities(ctx context.Context, text, result string, ents entity.Set) string {
	for _, e := range ents.InTextOrder(text) {
		if indexFold(result, e) >= 0 {
			continue
		}
		form, ok := t.translateAlone(ctx, e)
		if !ok || form == "" {
			continue
		}
		loc := findFold(result, form)
		if loc == nil {
			continue
		}
		log.Debugw("restoring entity", "lang", t.language, "entity", e, "translated", form)
		result = result[:loc[0]] + e + result[loc[1]:]
	}
	return result
}

// translateAlone translates an entity with the priority provider first,
// then the others; the first success wins.
func (t *Translator) translateAlone(ctx context.Context, e string) (string, bool) {
	order := t.providers
	if t.priority != nil {
		order = append([]provider.Provider{t.priority}, t.providers...)
	}
	for _, p := range order {
		if res := provider.Call(ctx, p, e); res.OK() {
			return res.Text, true
		}
	}
	return "", false
}

func indexFold(s, sub string) int {
	if loc := findFold(s, sub); loc != nil {
		return loc[0]
	}
	return -1
}

// findFold returns the byte span of the first case-insensitive occurrence
// of sub in s, or nil.
func findFold(s, sub string) []int {
	if sub == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(sub))
	if err != nil {
		return nil
	}
	return re.FindStringIndex(s)
}
