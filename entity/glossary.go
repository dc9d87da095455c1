package entity

import (
	"regexp"
	"sort"
)

// Glossary protects a fixed list of terms wherever they occur as whole
// words.
type Glossary struct {
	terms []glossaryTerm
}

type glossaryTerm struct {
	text string
	re   *regexp.Regexp
}

// NewGlossary compiles the given terms. Blank and duplicate terms are
// ignored. Longer terms are matched first and claim their span, so in
// "Visit New York City" only "New York City" is found, not "New York".
func NewGlossary(terms []string) *Glossary {
	seen := make(map[string]bool, len(terms))
	var uniq []string
	for _, t := range terms {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		uniq = append(uniq, t)
	}
	sort.SliceStable(uniq, func(i, j int) bool { return len(uniq[i]) > len(uniq[j]) })

	g := &Glossary{}
	for _, t := range uniq {
		g.terms = append(g.terms, glossaryTerm{
			text: t,
			re:   regexp.MustCompile(`(^|[^\pL\pN_])` + regexp.QuoteMeta(t) + `($|[^\pL\pN_])`),
		})
	}
	return g
}

// Extract implements Extractor.
func (g *Glossary) Extract(text string) Set {
	out := Set{}
	work := []byte(text)
	for _, t := range g.terms {
		for {
			loc := t.re.FindSubmatchIndex(work)
			if loc == nil {
				break
			}
			out.Add(t.text, KindTerm)
			// Mask the term itself (between the two boundary groups) so
			// shorter terms can not match inside it.
			for i := loc[3]; i < loc[4]; i++ {
				work[i] = 0
			}
		}
	}
	return out
}
