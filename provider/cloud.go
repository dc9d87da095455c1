package provider

import (
	"context"
	"html"

	"cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"golang.org/x/xerrors"
	"google.golang.org/api/option"
)

// CloudTranslate uses the paid Google Cloud Translation API.
type CloudTranslate struct {
	client *translate.Client
	source language.Tag
	target language.Tag
}

// NewCloudTranslate creates a Cloud Translation client for from → to.
// An empty apiKey falls back to application default credentials.
func NewCloudTranslate(ctx context.Context, apiKey, from, to string) (*CloudTranslate, error) {
	src, err := language.Parse(from)
	if err != nil {
		return nil, xerrors.Errorf("parsing source language %q: %w", from, err)
	}
	dst, err := language.Parse(to)
	if err != nil {
		return nil, xerrors.Errorf("parsing target language %q: %w", to, err)
	}

	var opts []option.ClientOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, xerrors.Errorf("creating translate client: %w", err)
	}
	return &CloudTranslate{client: client, source: src, target: dst}, nil
}

// Name implements Provider.
func (c *CloudTranslate) Name() string { return "cloud" }

// Translate implements Provider.
func (c *CloudTranslate) Translate(ctx context.Context, text string) Result {
	if text == "" {
		return Success("")
	}
	resp, err := c.client.Translate(ctx, []string{text}, c.target, &translate.Options{
		Source: c.source,
		Format: translate.Text,
	})
	if err != nil {
		return Failure(c.Name(), err)
	}
	if len(resp) == 0 {
		return Failure(c.Name(), xerrors.New("empty response"))
	}
	return Success(html.UnescapeString(resp[0].Text))
}

// Close releases the underlying client.
func (c *CloudTranslate) Close() error {
	return c.client.Close()
}
