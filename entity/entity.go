// Package entity finds the substrings of a source text that must survive
// translation unchanged: people, places, organizations and configured
// protected terms.
//
// Extraction is best-effort. An extractor whose capability is unavailable
// logs the problem and returns an empty Set; it never fails the caller.
package entity

import (
	"sort"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"
)

var log = logging.Logger("entity")

// ErrExtractionUnavailable marks a degraded extraction. It is only logged.
var ErrExtractionUnavailable = xerrors.New("entity extraction unavailable")

// Kind classifies an entity.
type Kind string

const (
	KindPerson       Kind = "person"
	KindPlace        Kind = "place"
	KindOrganization Kind = "organization"
	KindLocation     Kind = "location"
	// KindTerm is a configured protected term (brand, product name).
	KindTerm Kind = "term"
)

// Set is the set of entity strings found in one text.
type Set map[string]Kind

// Add records s unless it is blank. The first kind seen for s is kept.
func (s Set) Add(text string, kind Kind) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if _, ok := s[text]; !ok {
		s[text] = kind
	}
}

// Has reports whether text is in the set.
func (s Set) Has(text string) bool {
	_, ok := s[text]
	return ok
}

// InTextOrder returns the entities ordered by their first occurrence in
// text; entities not found in text sort last, alphabetically.
func (s Set) InTextOrder(text string) []string {
	out := make([]string, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	pos := func(e string) int {
		if i := strings.Index(text, e); i >= 0 {
			return i
		}
		return len(text) + 1
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := pos(out[i]), pos(out[j])
		if pi != pj {
			return pi < pj
		}
		return out[i] < out[j]
	})
	return out
}

// Extractor finds the entities of a text.
type Extractor interface {
	Extract(text string) Set
}

// ---------------------------------------------------------------------------
// Nop
// ---------------------------------------------------------------------------

// Nop never finds anything; it disables entity protection.
type Nop struct{}

// Extract implements Extractor.
func (Nop) Extract(string) Set { return Set{} }

// ---------------------------------------------------------------------------
// Union
// ---------------------------------------------------------------------------

// Union merges the results of several extractors.
type Union []Extractor

// Extract implements Extractor.
func (u Union) Extract(text string) Set {
	out := Set{}
	for _, ex := range u {
		for e, kind := range ex.Extract(text) {
			out.Add(e, kind)
		}
	}
	return out
}
