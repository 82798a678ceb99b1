package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// DenylistClient talks to a DNS-filtering denylist API
// (POST /denylist to block, DELETE /denylist/{domain} to unblock).
type DenylistClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxTries   uint
}

func NewDenylistClient(baseURL, apiKey string) *DenylistClient {
	return &DenylistClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxTries: 3,
	}
}

func (c *DenylistClient) Block(ctx context.Context, domain string) error {
	body, _ := json.Marshal(map[string]string{"id": domain})

	op := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/denylist", bytes.NewReader(body))
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		return struct{}{}, c.do(req, http.StatusConflict)
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(newBackOff()),
		backoff.WithMaxTries(c.maxTries),
	)
	if err != nil {
		return fmt.Errorf("block %s: %w", domain, err)
	}
	return nil
}

func (c *DenylistClient) Unblock(ctx context.Context, domain string) error {
	op := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
			c.baseURL+"/denylist/"+url.PathEscape(domain), nil)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		return struct{}{}, c.do(req, http.StatusNotFound)
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(newBackOff()),
		backoff.WithMaxTries(c.maxTries),
	)
	if err != nil {
		return fmt.Errorf("unblock %s: %w", domain, err)
	}
	return nil
}

// do executes the request and normalizes the response. alreadyApplied is
// the status the API returns when the desired state is already in place;
// it counts as success to honor the idempotency contract.
func (c *DenylistClient) do(req *http.Request, alreadyApplied int) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err // network errors are retryable
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == alreadyApplied:
		return nil
	case resp.StatusCode >= 500:
		return fmt.Errorf("denylist API returned %d", resp.StatusCode)
	default:
		// 4xx other than the idempotent case will not heal on retry
		return backoff.Permanent(fmt.Errorf("denylist API returned %d", resp.StatusCode))
	}
}

func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	return b
}
