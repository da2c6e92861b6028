// Discord webhook implementation of [Notifier]
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/lastchart/internal/shared"
)

const discordWebhookBase = "https://discord.com/api/webhooks"

// DiscordNotifier posts alert messages to a Discord webhook.
//
// Delivery is best effort: transient failures are retried with backoff, and
// callers are expected to log, not fail the run, when retries are exhausted.
type DiscordNotifier struct {
	webhookURL string
	maxRetries int
	httpClient *http.Client

	// backoffUnit scales retry delays; tests shrink it
	backoffUnit time.Duration
}

// DiscordOpts contains optional settings for [NewDiscordNotifier].
type DiscordOpts struct {
	BaseURL    string       // Override webhook base URL (tests)
	MaxRetries int          // Bounded retry count
	Client     *http.Client // Override HTTP client
}

// NewDiscordNotifier creates a notifier for the webhook identified by id and token.
func NewDiscordNotifier(webhookID, webhookToken string, opts DiscordOpts) (*DiscordNotifier, error) {
	if webhookID == "" || webhookToken == "" {
		return nil, fmt.Errorf("%w: discord webhook_id and webhook_token", shared.ErrMissingCredentials)
	}

	if opts.BaseURL == "" {
		opts.BaseURL = discordWebhookBase
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}

	return &DiscordNotifier{
		webhookURL:  fmt.Sprintf("%s/%s/%s", opts.BaseURL, webhookID, webhookToken),
		maxRetries:  opts.MaxRetries,
		httpClient:  opts.Client,
		backoffUnit: time.Second,
	}, nil
}

// Notify delivers a single alert message to the webhook.
func (n *DiscordNotifier) Notify(ctx context.Context, message string) error {
	body, err := json.Marshal(map[string]string{"content": message})
	if err != nil {
		return fmt.Errorf("failed to marshal alert payload: %w", err)
	}

	var lastErr error

	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoff(attempt, n.backoffUnit)); err != nil {
				return err
			}
		}

		lastErr = n.post(ctx, body)
		if lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("%w: discord webhook: %v", shared.ErrRetriesExhausted, lastErr)
}

func (n *DiscordNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrProviderUnavailable, resp.StatusCode)
	}

	return nil
}
