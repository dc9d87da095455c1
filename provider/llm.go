package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/xerrors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ---------------------------------------------------------------------------
// API formats
// ---------------------------------------------------------------------------

// Format selects the wire format of an LLM endpoint.
type Format string

const (
	// FormatOpenAIChat is OpenAI chat/completions (also Groq, OpenRouter, LM Studio).
	FormatOpenAIChat Format = "openai"
	// FormatGemini is Google AI generateContent.
	FormatGemini Format = "gemini"
	// FormatOllama is Ollama's OpenAI-compatible endpoint on a local model.
	FormatOllama Format = "ollama"
)

// DefaultLLMPrompt is the system prompt for single-string UI translation.
const DefaultLLMPrompt = `You are a professional translator specializing in website and software localization.

Translate the user's text from {{sourceLang}} to {{targetLang}}.

RULES:
- Return ONLY the translated text: no explanations, no quotes, no markdown.
- Preserve placeholders exactly as-is ({{name}}, {0}, %s, %d, <tags>).
- Preserve leading/trailing whitespace and punctuation patterns.
- Keep brand names and proper nouns unchanged.
- If the text is already a proper noun, return it unchanged.`

// LLM translates through a chat-style HTTP model endpoint.
type LLM struct {
	// ID is the provider name used in logs and configuration.
	ID string
	// Format selects the request/response shape.
	Format Format
	// BaseURL is the API base URL (e.g. https://api.groq.com/openai/v1).
	BaseURL string
	// APIKey is the authentication key (empty for local services).
	APIKey string
	// Model is the model identifier.
	Model string
	// SourceLang and TargetLang are human-readable language names.
	SourceLang string
	TargetLang string
	// Prompt overrides DefaultLLMPrompt.
	Prompt string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the HTTP client timeout (0 = none; see WithTimeout).
	Timeout time.Duration

	client *http.Client
}

// Name implements Provider.
func (l *LLM) Name() string {
	if l.ID != "" {
		return l.ID
	}
	return string(l.Format)
}

// Translate implements Provider.
func (l *LLM) Translate(ctx context.Context, text string) Result {
	if text == "" {
		return Success("")
	}
	out, err := l.call(ctx, text)
	if err != nil {
		return Failure(l.Name(), err)
	}
	return Success(out)
}

func (l *LLM) systemPrompt() string {
	prompt := l.Prompt
	if prompt == "" {
		prompt = DefaultLLMPrompt
	}
	src := l.SourceLang
	if src == "" {
		src = "English"
	}
	prompt = strings.ReplaceAll(prompt, "{{sourceLang}}", src)
	return strings.ReplaceAll(prompt, "{{targetLang}}", l.TargetLang)
}

func (l *LLM) httpClient() *http.Client {
	if l.client == nil {
		l.client = makeHTTPClient(l.Proxy, l.Timeout)
	}
	return l.client
}

func (l *LLM) call(ctx context.Context, text string) (string, error) {
	endpoint, headers, body, err := l.buildRequest(l.systemPrompt(), text)
	if err != nil {
		return "", Permanent(xerrors.Errorf("building request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", Permanent(xerrors.Errorf("creating request: %w", err))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	log.Debugw("llm request", "provider", l.Name(), "endpoint", endpoint, "model", l.Model)

	resp, err := l.httpClient().Do(req)
	if err != nil {
		return "", xerrors.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", xerrors.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		serr := &StatusError{Code: resp.StatusCode, Body: truncate(string(respBody), 500)}
		if resp.StatusCode == http.StatusTooManyRequests {
			serr.RetryAfter = parseRetryDelay(respBody)
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return "", Permanent(serr)
		}
		return "", serr
	}

	out, err := extractResponseText(respBody)
	if err != nil {
		return "", err
	}
	return cleanResponse(out, text), nil
}

// buildRequest constructs the endpoint, headers, and body for the format.
func (l *LLM) buildRequest(systemPrompt, userPrompt string) (string, map[string]string, []byte, error) {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	baseURL := strings.TrimRight(l.BaseURL, "/")

	switch l.Format {
	case FormatGemini:
		if l.Model == "" {
			return "", nil, nil, xerrors.New("gemini: model is required")
		}
		endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", baseURL, l.Model)
		if l.APIKey != "" {
			headers["x-goog-api-key"] = l.APIKey
		}
		body, err := buildGeminiRequest(systemPrompt, userPrompt, 0.2)
		return endpoint, headers, body, err

	case FormatOllama:
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		endpoint := baseURL + "/v1/chat/completions"
		body, err := buildOpenAIChatRequest(l.Model, systemPrompt, userPrompt, 0.2)
		return endpoint, headers, body, err

	default: // FormatOpenAIChat
		if baseURL == "" {
			return "", nil, nil, xerrors.New("openai: base URL is required")
		}
		endpoint := baseURL
		if !strings.HasSuffix(baseURL, "/chat/completions") {
			endpoint = baseURL + "/chat/completions"
		}
		if l.APIKey != "" {
			headers["Authorization"] = "Bearer " + l.APIKey
		}
		body, err := buildOpenAIChatRequest(l.Model, systemPrompt, userPrompt, 0.2)
		return endpoint, headers, body, err
	}
}

// ---------------------------------------------------------------------------
// Status errors
// ---------------------------------------------------------------------------

// StatusError is a non-200 API response.
type StatusError struct {
	Code int
	Body string
	// RetryAfter is the server-requested delay for 429 responses.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.Code, e.Body)
}

// ---------------------------------------------------------------------------
// HTTP client with proxy support
// ---------------------------------------------------------------------------

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ---------------------------------------------------------------------------
// Request builders
// ---------------------------------------------------------------------------

func buildOpenAIChatRequest(model, systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		Stream      bool    `json:"stream"`
	}{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
	}
	return json.Marshal(req)
}

func buildGeminiRequest(systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}
	type genConfig struct {
		Temperature float64 `json:"temperature"`
	}
	req := struct {
		Contents          []content `json:"contents"`
		GenerationConfig  genConfig `json:"generationConfig"`
		SystemInstruction *content  `json:"systemInstruction,omitempty"`
	}{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: userPrompt}}},
		},
		GenerationConfig: genConfig{Temperature: temperature},
	}
	if systemPrompt != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}
	return json.Marshal(req)
}

// ---------------------------------------------------------------------------
// Response parsing
// ---------------------------------------------------------------------------

// extractResponseText tries the known response formats and returns the text.
func extractResponseText(body []byte) (string, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", xerrors.Errorf("invalid JSON response: %w", err)
	}

	if errObj, ok := raw["error"]; ok {
		if errMap, ok := errObj.(map[string]any); ok {
			if msg, ok := errMap["message"].(string); ok {
				return "", xerrors.Errorf("API error: %s", msg)
			}
		}
		return "", xerrors.Errorf("API error: %v", errObj)
	}

	// OpenAI chat: choices[0].message.content
	if choices, ok := raw["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			if message, ok := choice["message"].(map[string]any); ok {
				if content, ok := message["content"].(string); ok {
					return content, nil
				}
			}
		}
	}

	// Gemini: candidates[0].content.parts[0].text
	if candidates, ok := raw["candidates"].([]any); ok && len(candidates) > 0 {
		if candidate, ok := candidates[0].(map[string]any); ok {
			if content, ok := candidate["content"].(map[string]any); ok {
				if parts, ok := content["parts"].([]any); ok && len(parts) > 0 {
					if part, ok := parts[0].(map[string]any); ok {
						if text, ok := part["text"].(string); ok {
							return text, nil
						}
					}
				}
			}
		}
	}

	// Ollama native: message.content
	if message, ok := raw["message"].(map[string]any); ok {
		if content, ok := message["content"].(string); ok {
			return content, nil
		}
	}

	return "", xerrors.Errorf("could not extract text from response: %s", truncate(string(body), 500))
}

// cleanResponse strips wrapping the model added around the translation:
// code fences and surrounding quotes the source did not have. Leading and
// trailing whitespace is restored from the source.
func cleanResponse(out, source string) string {
	s := strings.TrimSpace(out)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	trimmedSrc := strings.TrimSpace(source)
	for _, q := range []string{`"`, `“`, `'`, `«`} {
		closing := q
		switch q {
		case `“`:
			closing = `”`
		case `«`:
			closing = `»`
		}
		if len(s) >= len(q)+len(closing) && strings.HasPrefix(s, q) && strings.HasSuffix(s, closing) &&
			!strings.HasPrefix(trimmedSrc, q) {
			s = s[len(q) : len(s)-len(closing)]
			break
		}
	}

	lead := source[:len(source)-len(strings.TrimLeft(source, " \t\n"))]
	trail := source[len(strings.TrimRight(source, " \t\n")):]
	return lead + s + trail
}

// parseRetryDelay extracts the retry delay from a 429 response body.
// Looks for Google's RetryInfo detail; defaults to 60s + 5s buffer.
func parseRetryDelay(body []byte) time.Duration {
	const defaultDelay = 65 * time.Second

	var errResp struct {
		Error struct {
			Details []struct {
				Type       string `json:"@type"`
				RetryDelay string `json:"retryDelay"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return defaultDelay
	}

	for _, detail := range errResp.Error.Details {
		if strings.Contains(detail.Type, "RetryInfo") && detail.RetryDelay != "" {
			d := strings.TrimSuffix(detail.RetryDelay, "s")
			if secs, err := strconv.ParseFloat(d, 64); err == nil {
				return time.Duration(secs*1000)*time.Millisecond + 5*time.Second
			}
		}
	}
	return defaultDelay
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
