package provider

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"golang.org/x/xerrors"
)

// ---------------------------------------------------------------------------
// Result and failures
// ---------------------------------------------------------------------------

func TestFailureWrapsSentinelAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	res := Failure("google", cause)

	require.False(t, res.OK())
	require.True(t, xerrors.Is(res.Err, ErrProviderFailure))
	require.True(t, xerrors.Is(res.Err, cause))
	require.Equal(t, "google: connection refused", res.Err.Error())

	// Already-wrapped failures are not wrapped twice.
	again := Failure("other", res.Err)
	require.Equal(t, res.Err, again.Err)
}

func TestCallRecoversPanic(t *testing.T) {
	p := Func{ID: "boom", Fn: func(context.Context, string) (string, error) {
		panic("client library exploded")
	}}

	res := Call(context.Background(), p, "Hello")
	require.False(t, res.OK())
	require.True(t, xerrors.Is(res.Err, ErrProviderFailure))
	require.Contains(t, res.Err.Error(), "client library exploded")
}

func TestFuncEmptyTextSkipsCall(t *testing.T) {
	called := false
	p := Func{ID: "f", Fn: func(context.Context, string) (string, error) {
		called = true
		return "x", nil
	}}

	res := p.Translate(context.Background(), "")
	require.True(t, res.OK())
	require.Equal(t, "", res.Text)
	require.False(t, called)
}

// ---------------------------------------------------------------------------
// Decorators
// ---------------------------------------------------------------------------

func TestWithTimeoutYieldsFailure(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	slow := Func{ID: "slow", Fn: func(ctx context.Context, text string) (string, error) {
		<-release
		return "late", nil
	}}

	start := time.Now()
	res := WithTimeout(slow, 20*time.Millisecond).Translate(context.Background(), "Hello")
	require.Less(t, time.Since(start), 2*time.Second)
	require.False(t, res.OK())
	require.True(t, xerrors.Is(res.Err, ErrProviderFailure))
	require.True(t, xerrors.Is(res.Err, ErrTimeout))
}

func TestWithTimeoutPassesFastResult(t *testing.T) {
	fast := Func{ID: "fast", Fn: func(ctx context.Context, text string) (string, error) {
		return "Hallo", nil
	}}
	res := WithTimeout(fast, time.Second).Translate(context.Background(), "Hello")
	require.True(t, res.OK())
	require.Equal(t, "Hallo", res.Text)
}

func TestWithRetryRetriesTransientFailures(t *testing.T) {
	var calls int32
	flaky := Func{ID: "flaky", Fn: func(context.Context, string) (string, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return "", errors.New("temporary")
		}
		return "Hallo", nil
	}}

	rp := WithRetry(flaky, 5).(*retryProvider)
	rp.min, rp.max = time.Millisecond, 2*time.Millisecond

	res := rp.Translate(context.Background(), "Hello")
	require.True(t, res.OK())
	require.Equal(t, "Hallo", res.Text)
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestWithRetryStopsOnPermanent(t *testing.T) {
	var calls int32
	bad := Func{ID: "bad", Fn: func(context.Context, string) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", Permanent(errors.New("unsupported language pair"))
	}}

	rp := WithRetry(bad, 5).(*retryProvider)
	rp.min, rp.max = time.Millisecond, 2*time.Millisecond

	res := rp.Translate(context.Background(), "Hello")
	require.False(t, res.OK())
	require.True(t, IsPermanent(res.Err))
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestWithRetryGivesUpAfterAttempts(t *testing.T) {
	var calls int32
	down := Func{ID: "down", Fn: func(context.Context, string) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", errors.New("unreachable")
	}}

	rp := WithRetry(down, 3).(*retryProvider)
	rp.min, rp.max = time.Millisecond, 2*time.Millisecond

	res := rp.Translate(context.Background(), "Hello")
	require.False(t, res.OK())
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestWithCacheMemoizesSuccessOnly(t *testing.T) {
	var calls int32
	p := Func{ID: "p", Fn: func(_ context.Context, text string) (string, error) {
		n := atomic.AddInt32(&calls, 1)
		if text == "fail" {
			return "", errors.New("nope")
		}
		if n > 1 && text == "Hello" {
			t.Fatalf("cached text translated twice")
		}
		return "Hallo", nil
	}}

	cp, err := WithCache(p, 16)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		res := cp.Translate(context.Background(), "Hello")
		require.Equal(t, "Hallo", res.Text)
	}
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))

	require.False(t, cp.Translate(context.Background(), "fail").OK())
	require.False(t, cp.Translate(context.Background(), "fail").OK())
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestWithRateLimitCancelled(t *testing.T) {
	p := Func{ID: "p", Fn: func(context.Context, string) (string, error) { return "x", nil }}
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	rl := WithRateLimit(p, limiter)

	require.True(t, rl.Translate(context.Background(), "a").OK())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	res := rl.Translate(ctx, "b")
	require.False(t, res.OK())
	require.True(t, xerrors.Is(res.Err, ErrProviderFailure))
}

// ---------------------------------------------------------------------------
// LLM adapter
// ---------------------------------------------------------------------------

func TestLLMOpenAIChat(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"\"Willkommen\""}}]}`))
	}))
	defer srv.Close()

	l := &LLM{ID: "groq", Format: FormatOpenAIChat, BaseURL: srv.URL + "/v1", APIKey: "k", Model: "m", TargetLang: "German"}
	res := l.Translate(context.Background(), "Welcome")

	require.True(t, res.OK(), "%v", res.Err)
	require.Equal(t, "Willkommen", res.Text)
	require.Equal(t, "Bearer k", gotAuth)
	require.Contains(t, gotBody, "from English to German")
	require.Contains(t, gotBody, `"model":"m"`)
}

func TestLLMGemini(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/v1beta/models/gemini-flash:generateContent"))
		require.Equal(t, "k", r.Header.Get("x-goog-api-key"))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Hallo "}]}}]}`))
	}))
	defer srv.Close()

	l := &LLM{Format: FormatGemini, BaseURL: srv.URL, APIKey: "k", Model: "gemini-flash", TargetLang: "German"}
	res := l.Translate(context.Background(), " Hello ")
	require.True(t, res.OK(), "%v", res.Err)
	require.Equal(t, " Hallo ", res.Text)
}

func TestLLMStatusErrors(t *testing.T) {
	status := http.StatusTooManyRequests
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"details":[{"@type":"type.googleapis.com/google.rpc.RetryInfo","retryDelay":"2s"}]}}`))
	}))
	defer srv.Close()

	l := &LLM{Format: FormatOllama, BaseURL: srv.URL, Model: "m", TargetLang: "German"}

	res := l.Translate(context.Background(), "Hello")
	require.False(t, res.OK())
	var serr *StatusError
	require.True(t, xerrors.As(res.Err, &serr))
	require.Equal(t, 7*time.Second, serr.RetryAfter)
	require.False(t, IsPermanent(res.Err))

	status = http.StatusUnauthorized
	res = l.Translate(context.Background(), "Hello")
	require.False(t, res.OK())
	require.True(t, IsPermanent(res.Err))
}

func TestExtractResponseTextAPIError(t *testing.T) {
	_, err := extractResponseText([]byte(`{"error":{"message":"model not found"}}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "model not found")

	out, err := extractResponseText([]byte(`{"message":{"content":"Bonjour"}}`))
	require.NoError(t, err)
	require.Equal(t, "Bonjour", out)
}

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		out, src, want string
	}{
		{"Hallo", "Hello", "Hallo"},
		{"\"Hallo\"", "Hello", "Hallo"},
		{"\"Hallo\"", "\"Hello\"", "\"Hallo\""},
		{"```\nHallo\n```", "Hello", "Hallo"},
		{"Hallo", "Hello:\n", "Hallo\n"},
		{"«Hallo»", "Hello", "Hallo"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, cleanResponse(tt.out, tt.src), "out=%q src=%q", tt.out, tt.src)
	}
}

func TestParseRetryDelayDefault(t *testing.T) {
	require.Equal(t, 65*time.Second, parseRetryDelay([]byte("not json")))
	require.Equal(t, 65*time.Second, parseRetryDelay([]byte(`{"error":{}}`)))
}
