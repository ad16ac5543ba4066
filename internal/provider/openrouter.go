package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("openrouter: API key not configured")

// OpenRouterConfig carries the upstream settings for the OpenRouter client.
type OpenRouterConfig struct {
	APIKey  string
	Model   string
	URL     string
	Timeout time.Duration
	Retries int
}

// OpenRouter calls the OpenRouter chat completions API. Transient failures
// are retried with exponential backoff starting at 500ms.
type OpenRouter struct {
	cfg    OpenRouterConfig
	client *resty.Client
}

// NewOpenRouter builds a client from cfg.
func NewOpenRouter(cfg OpenRouterConfig) *OpenRouter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.APIKey)
	return &OpenRouter{cfg: cfg, client: client}
}

// Name implements Provider.
func (o *OpenRouter) Name() string { return "openrouter" }

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete implements Provider.
func (o *OpenRouter) Complete(ctx context.Context, messages []Message) (string, int64, error) {
	if o.cfg.APIKey == "" {
		return "", 0, ErrNotConfigured
	}

	var (
		content   string
		latencyMs int64
	)
	op := func() error {
		start := time.Now()
		var body completionResponse
		resp, err := o.client.R().
			SetContext(ctx).
			SetBody(completionRequest{Model: o.cfg.Model, Messages: messages}).
			SetResult(&body).
			Post(o.cfg.URL)
		latencyMs = time.Since(start).Milliseconds()
		if err != nil {
			return errors.Wrap(err, "openrouter request failed")
		}
		if resp.StatusCode() != 200 {
			text := resp.String()
			if len(text) > 500 {
				text = text[:500]
			}
			return fmt.Errorf("openrouter returned %d: %s", resp.StatusCode(), text)
		}
		if len(body.Choices) == 0 {
			return errors.New("openrouter response had no choices")
		}
		content = body.Choices[0].Message.Content
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(o.cfg.Retries)), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		return "", 0, errors.Wrap(err, "failed to fetch response from model provider")
	}
	return content, latencyMs, nil
}
