package entity

import (
	"strings"

	"github.com/jdkato/prose/v2"
	"golang.org/x/xerrors"
)

// labelKinds maps NER labels to entity kinds; other labels are ignored.
var labelKinds = map[string]Kind{
	"PERSON": KindPerson,
	"GPE":    KindPlace,
	"LOC":    KindPlace,
	"ORG":    KindOrganization,
	"FAC":    KindLocation,
}

// Prose extracts named entities with the prose NER model. The model is
// loaded once and shared by every call; Prose is safe for concurrent use.
type Prose struct {
	model *prose.Model
}

// NewProse loads the NER model and returns a prose-backed extractor. If the
// model can not be loaded the extractor degrades to the empty set.
func NewProse() *Prose {
	m, err := loadModel()
	if err != nil {
		log.Warnw("loading named entity model failed, continuing without entities", "error", err)
	}
	return &Prose{model: m}
}

func loadModel() (m *prose.Model, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = xerrors.Errorf("%w: prose panicked: %v", ErrExtractionUnavailable, r)
		}
	}()

	doc, err := prose.NewDocument("",
		prose.WithSegmentation(false),
		prose.WithTagging(true),
		prose.WithExtraction(true),
	)
	if err != nil {
		return nil, xerrors.Errorf("%w: %v", ErrExtractionUnavailable, err)
	}
	if doc.Model == nil {
		return nil, xerrors.Errorf("%w: no model", ErrExtractionUnavailable)
	}
	return doc.Model, nil
}

// Extract implements Extractor.
func (p *Prose) Extract(text string) Set {
	out := Set{}
	if strings.TrimSpace(text) == "" || p.model == nil {
		return out
	}

	ents, err := p.entities(text)
	if err != nil {
		log.Warnw("named entity recognition failed, continuing without entities", "error", err)
		return Set{}
	}
	for _, ent := range ents {
		kind, ok := labelKinds[ent.Label]
		if !ok {
			continue
		}
		// The model may normalize whitespace; only keep spans that occur
		// verbatim so they can be restored later.
		if !strings.Contains(text, ent.Text) {
			continue
		}
		out.Add(ent.Text, kind)
	}
	return out
}

func (p *Prose) entities(text string) (ents []prose.Entity, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = xerrors.Errorf("%w: prose panicked: %v", ErrExtractionUnavailable, r)
		}
	}()

	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithTagging(true),
		prose.WithExtraction(true),
		prose.UsingModel(p.model),
	)
	if err != nil {
		return nil, xerrors.Errorf("%w: %v", ErrExtractionUnavailable, err)
	}
	return doc.Entities(), nil
}
