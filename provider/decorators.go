package provider

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jpillora/backoff"
	"golang.org/x/time/rate"
	"golang.org/x/xerrors"
)

// DefaultTimeout bounds a single provider call when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// ErrTimeout is wrapped by failures produced by WithTimeout.
var ErrTimeout = xerrors.New("provider call timed out")

// ---------------------------------------------------------------------------
// Bounded wait
// ---------------------------------------------------------------------------

type timeoutProvider struct {
	Provider
	d time.Duration
}

// WithTimeout bounds every call to p by d. A call that has not returned
// in time is abandoned and reported as a failure wrapping ErrTimeout.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &timeoutProvider{Provider: p, d: d}
}

func (t *timeoutProvider) Translate(ctx context.Context, text string) Result {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	done := make(chan Result, 1)
	go func() {
		done <- Call(ctx, t.Provider, text)
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		if xerrors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Debugw("provider call timed out", "provider", t.Name(), "timeout", t.d)
			return Failure(t.Name(), xerrors.Errorf("%w after %s", ErrTimeout, t.d))
		}
		return Failure(t.Name(), ctx.Err())
	}
}

// ---------------------------------------------------------------------------
// Rate limit
// ---------------------------------------------------------------------------

type rateLimitedProvider struct {
	Provider
	limiter *rate.Limiter
}

// WithRateLimit makes every call to p wait for a token from limiter.
func WithRateLimit(p Provider, limiter *rate.Limiter) Provider {
	return &rateLimitedProvider{Provider: p, limiter: limiter}
}

func (r *rateLimitedProvider) Translate(ctx context.Context, text string) Result {
	if text == "" {
		return Success("")
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return Failure(r.Name(), xerrors.Errorf("waiting for rate limiter: %w", err))
	}
	return r.Provider.Translate(ctx, text)
}

// ---------------------------------------------------------------------------
// Retry
// ---------------------------------------------------------------------------

type retryProvider struct {
	Provider
	attempts int
	min, max time.Duration
}

// WithRetry retries failed calls to p up to attempts times in total with
// exponential backoff. Permanent errors and cancellation are not retried.
// A server-requested delay (StatusError.RetryAfter) overrides the backoff
// for that attempt.
func WithRetry(p Provider, attempts int) Provider {
	if attempts < 1 {
		attempts = 1
	}
	return &retryProvider{Provider: p, attempts: attempts, min: 500 * time.Millisecond, max: 30 * time.Second}
}

func (r *retryProvider) Translate(ctx context.Context, text string) Result {
	b := &backoff.Backoff{
		Min:    r.min,
		Max:    r.max,
		Factor: 2,
		Jitter: true,
	}

	var res Result
	for {
		res = Call(ctx, r.Provider, text)
		if res.OK() {
			return res
		}
		if IsPermanent(res.Err) || ctx.Err() != nil {
			return res
		}

		// b.Attempt() starts from zero
		nAttempts := int(b.Attempt()) + 1
		if nAttempts >= r.attempts {
			return res
		}

		wait := b.Duration()
		var serr *StatusError
		if xerrors.As(res.Err, &serr) && serr.RetryAfter > 0 {
			wait = serr.RetryAfter
		}
		log.Debugw("retrying provider call", "provider", r.Name(), "attempt", nAttempts, "wait", wait, "error", res.Err)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return Failure(r.Name(), ctx.Err())
		case <-t.C:
		}
	}
}

// ---------------------------------------------------------------------------
// Memoization
// ---------------------------------------------------------------------------

type cachedProvider struct {
	Provider
	cache *lru.Cache[string, string]
}

// WithCache memoizes successful translations of p in an LRU of the given
// size. Failures are never cached.
func WithCache(p Provider, size int) (Provider, error) {
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, xerrors.Errorf("creating provider cache: %w", err)
	}
	return &cachedProvider{Provider: p, cache: c}, nil
}

func (c *cachedProvider) Translate(ctx context.Context, text string) Result {
	if out, ok := c.cache.Get(text); ok {
		return Success(out)
	}
	res := c.Provider.Translate(ctx, text)
	if res.OK() {
		c.cache.Add(text, res.Text)
	}
	return res
}
