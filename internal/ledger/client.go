package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"claimsgate/internal/platform/config"
	"claimsgate/pkg/platform/sentinel"
)

// Client talks to the external ledger over HTTP. Throttling lives here, in
// the transport, so business logic stays free of retry and pacing policy.
type Client struct {
	baseURL  string
	producer string
	http     *http.Client
	limiter  *rate.Limiter
}

// NewClient builds a ledger client from configuration.
func NewClient(cfg config.Ledger) *Client {
	return &Client{
		baseURL:  cfg.BaseURL,
		producer: cfg.Producer,
		http:     &http.Client{Timeout: cfg.RequestTimeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
	}
}

// Producer returns the producer name stamped on envelopes built for this
// client.
func (c *Client) Producer() string { return c.producer }

// Append writes a canonical envelope. The ledger deduplicates by
// idempotency key, so re-appending after a partial failure is safe.
func (c *Client) Append(ctx context.Context, env EventEnvelope) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/events", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build append request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("append %s: %w: %w", env.EventType, sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("append %s: %w: ledger returned %d", env.EventType, sentinel.ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// Query reads events filtered by subject, type, and time.
func (c *Client) Query(ctx context.Context, q Query) ([]EventEnvelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	if q.Subject != "" {
		params.Set("subject", q.Subject)
	}
	if q.EventType != "" {
		params.Set("event_type", q.EventType)
	}
	if !q.Since.IsZero() {
		params.Set("since", q.Since.UTC().Format(time.RFC3339Nano))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/events?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query events: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("query events: %w: ledger returned %d", sentinel.ErrUnavailable, resp.StatusCode)
	}

	var events []EventEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	return events, nil
}
