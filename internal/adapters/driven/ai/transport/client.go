// Package transport is the JSON-over-HTTP client shared by the model
// provider adapters.
//
// Non-2xx responses come back as *domain.StatusError, transport failures
// unchanged, so callers can wrap either in their port's sentinel and the
// retry decorator can still tell transient failures apart.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/logger"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// Client talks to one provider API.
type Client struct {
	http    *http.Client
	service string
	baseURL string
	headers map[string]string
}

// New creates a client. headers are sent with every request.
func New(service, baseURL string, timeout time.Duration, headers map[string]string) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: headers,
	}
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PostJSON sends in as JSON to path and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.service, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.service, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// Get requests path and discards the body. Used for health checks.
func (c *Client) Get(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.service, err)
	}
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	logger.Debug("%s: %s %s", c.service, req.Method, req.URL.Path)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: send request: %w", c.service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.StatusError{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.service, err)
	}
	return nil
}
