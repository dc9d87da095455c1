// Package langmeta resolves display metadata for language codes, used in
// LLM prompts and CLI output.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes a language for display.
type Meta struct {
	// Code is the canonical BCP 47 code (e.g. "pt-BR").
	Code string
	// Name is the English name (e.g. "Brazilian Portuguese").
	Name string
	// Native is the language's own name for itself (e.g. "português").
	Native string
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort metadata for a language code, supporting
// variants like pt_BR and pt-BR. Unknown codes resolve to themselves.
func Resolve(lang string) Meta {
	code := canonicalize(lang)
	tag, err := language.Parse(code)
	if err != nil || code == "" {
		return Meta{Code: lang, Name: lang, Native: lang}
	}

	m := Meta{
		Code:   code,
		Name:   display.English.Tags().Name(tag),
		Native: display.Self.Name(tag),
	}
	if m.Name == "" {
		m.Name = lang
	}
	if m.Native == "" {
		m.Native = m.Name
	}
	return m
}

// Name returns the English name of a language code.
func Name(lang string) string {
	return Resolve(lang).Name
}
