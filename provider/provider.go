// Package provider defines the translation backend capability and its
// adapters.
//
// A Provider is bound to one language pair at construction time and turns
// a source text into a translated text or an explicit failure. Every
// failure cause (network error, rejected language pair, quota, timeout,
// client library panic) is reported as a Result whose Err wraps
// ErrProviderFailure; providers never panic and never return partial text.
//
// Base adapters do not retry. Retries, timeouts, rate limits and caching
// are opt-in decorators (see WithRetry, WithTimeout, WithRateLimit,
// WithCache) applied by whoever assembles the provider list.
package provider

import (
	"context"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"
)

var log = logging.Logger("provider")

// ErrProviderFailure is wrapped by every failed Result.
var ErrProviderFailure = xerrors.New("provider failure")

// Provider translates text into its configured target language.
type Provider interface {
	// Name identifies the provider in configuration and logs.
	Name() string
	// Translate returns the complete translation of text, or a failure.
	Translate(ctx context.Context, text string) Result
}

// Result is either a translated text (Err == nil) or a failure.
type Result struct {
	Text string
	Err  error
}

// OK reports whether the result is a success.
func (r Result) OK() bool {
	return r.Err == nil
}

// Success returns a successful result.
func Success(text string) Result {
	return Result{Text: text}
}

// Failure returns a failed result for the named provider.
func Failure(name string, err error) Result {
	if err == nil {
		err = xerrors.New("unknown error")
	}
	if xerrors.Is(err, ErrProviderFailure) {
		return Result{Err: err}
	}
	return Result{Err: &failure{provider: name, err: err}}
}

// failure ties a cause to ErrProviderFailure without losing either.
type failure struct {
	provider string
	err      error
}

func (f *failure) Error() string {
	return f.provider + ": " + f.err.Error()
}

func (f *failure) Unwrap() error { return f.err }

func (f *failure) Is(target error) bool { return target == ErrProviderFailure }

// Call invokes p and converts a panic into a failure, so a misbehaving
// client library can not take the run down.
func Call(ctx context.Context, p Provider, text string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("provider panicked", "provider", p.Name(), "panic", r)
			res = Failure(p.Name(), xerrors.Errorf("panic: %v", r))
		}
	}()
	if err := ctx.Err(); err != nil {
		return Failure(p.Name(), err)
	}
	return p.Translate(ctx, text)
}

// ---------------------------------------------------------------------------
// Permanent failures
// ---------------------------------------------------------------------------

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying (rejected language pair,
// malformed request, missing credentials).
func Permanent(err error) error {
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return xerrors.As(err, &pe)
}

// ---------------------------------------------------------------------------
// Func adapter
// ---------------------------------------------------------------------------

// Func adapts a plain function to Provider.
type Func struct {
	ID string
	Fn func(ctx context.Context, text string) (string, error)
}

// Name implements Provider.
func (f Func) Name() string { return f.ID }

// Translate implements Provider.
func (f Func) Translate(ctx context.Context, text string) Result {
	if text == "" {
		return Success("")
	}
	out, err := f.Fn(ctx, text)
	if err != nil {
		return Failure(f.ID, err)
	}
	return Success(out)
}
