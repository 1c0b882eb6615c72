package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultPostTimeout = 15 * time.Second

// WebhookPoster posts text as JSON to an HTTP webhook.
type WebhookPoster struct {
	url    string
	client *http.Client
}

// WebhookOption configures WebhookPoster.
type WebhookOption func(*WebhookPoster)

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(p *WebhookPoster) {
		p.client = client
	}
}

// NewWebhookPoster creates a poster for the given webhook URL.
func NewWebhookPoster(url string, opts ...WebhookOption) *WebhookPoster {
	p := &WebhookPoster{
		url:    url,
		client: &http.Client{Timeout: defaultPostTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Post sends the text. A non-2xx response is an error; the caller decides
// whether to care.
func (p *WebhookPoster) Post(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal post body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("post to webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

var _ Poster = (*WebhookPoster)(nil)
