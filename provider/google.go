package provider

import (
	"context"
	"time"

	"github.com/bregydoc/gtranslate"
	"golang.org/x/xerrors"
)

// GoogleFree translates through the free Google Translate web endpoint.
// The client library is synchronous, so cancellation is honoured by
// abandoning the call; see WithTimeout.
type GoogleFree struct {
	From string
	To   string
}

// NewGoogleFree returns a free Google Translate provider for from → to.
func NewGoogleFree(from, to string) *GoogleFree {
	return &GoogleFree{From: from, To: to}
}

// Name implements Provider.
func (g *GoogleFree) Name() string { return "google" }

// Translate implements Provider.
func (g *GoogleFree) Translate(ctx context.Context, text string) Result {
	if text == "" {
		return Success("")
	}

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: xerrors.Errorf("gtranslate panicked: %v", r)}
			}
		}()
		out, err := gtranslate.TranslateWithParams(text, gtranslate.TranslationParams{
			From:  g.From,
			To:    g.To,
			Tries: 1,
			Delay: time.Second,
		})
		done <- reply{text: out, err: err}
	}()

	select {
	case <-ctx.Done():
		return Failure(g.Name(), ctx.Err())
	case r := <-done:
		if r.err != nil {
			return Failure(g.Name(), r.err)
		}
		if r.text == "" {
			return Failure(g.Name(), xerrors.New("empty translation"))
		}
		return Success(r.text)
	}
}
