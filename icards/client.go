package icards

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog"
)

// Default executor policy. Up to three attempts total, with a linear
// backoff of baseDelay × attemptNumber between attempts.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second

	userAgent = "iCards-MCP/1.0"
)

// Client talks to the iCards REST API. One pooled client is shared per
// process; the bearer token and base URL are fixed at construction.
type Client struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	logger      zerolog.Logger
	maxAttempts uint
	baseDelay   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetry overrides the retry budget and base backoff delay.
func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.maxAttempts = uint(attempts)
		}
		if baseDelay > 0 {
			c.baseDelay = baseDelay
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new iCards API client.
func NewClient(baseURL, token string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("icards URL is required")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	client := &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				MaxConnsPerHost:     20,
			},
		},
		logger:      logger,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// do executes one logical API call with retry and classification. Only
// upstream (5xx) and network failures are retried; everything else is
// returned to the caller on the first attempt. The terminal outcome is
// always a value: an *Envelope or an *APIError.
func (c *Client) do(ctx context.Context, method, path string, body any, query url.Values) (*Envelope, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, &APIError{Kind: KindRequest, Message: fmt.Sprintf("encode request body: %v", err)}
		}
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var env *Envelope
	attempt := 0
	err := retry.Do(
		func() error {
			attempt++
			c.logger.Debug().
				Str("method", method).
				Str("url", reqURL).
				Int("attempt", attempt).
				Msg("iCards API request")

			result, err := c.attempt(ctx, method, reqURL, payload)
			if err != nil {
				return err
			}
			env = result
			return nil
		},
		retry.Attempts(c.maxAttempts),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			// n is zero-based, so the delay before attempt n+2 is
			// baseDelay × (n+1): linear, non-decreasing.
			return c.baseDelay * time.Duration(n+1)
		}),
		retry.RetryIf(func(err error) bool {
			apiErr, ok := AsAPIError(err)
			return ok && apiErr.Retryable()
		}),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("url", reqURL).Msg("iCards API request failed")
		return nil, err
	}
	return env, nil
}

// attempt performs a single HTTP exchange and classifies the outcome.
func (c *Client) attempt(ctx context.Context, method, reqURL string, payload []byte) (*Envelope, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, &APIError{Kind: KindRequest, Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, Message: fmt.Sprintf("read response body: %v", err)}
	}

	if resp.StatusCode >= 400 {
		return nil, classifyStatus(resp.StatusCode, string(bodyBytes))
	}

	// 204 and empty bodies normalize to a plain success envelope.
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(bodyBytes)) == 0 {
		ok := true
		return &Envelope{Success: &ok, raw: []byte(`{"success":true}`)}, nil
	}

	var env Envelope
	if err := json.Unmarshal(bodyBytes, &env); err != nil {
		return nil, &APIError{
			Kind:       KindUpstream,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("malformed response body: %v", err),
			Body:       string(bodyBytes),
		}
	}
	env.raw = bodyBytes
	return &env, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*Envelope, error) {
	return c.do(ctx, http.MethodGet, path, nil, query)
}

func (c *Client) post(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.do(ctx, http.MethodPost, path, body, nil)
}

func (c *Client) put(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.do(ctx, http.MethodPut, path, body, nil)
}

func (c *Client) del(ctx context.Context, path string) (*Envelope, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Health checks whether the upstream API reports itself healthy.
func (c *Client) Health(ctx context.Context) error {
	env, err := c.get(ctx, pathHealth, nil)
	if err != nil {
		return err
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := env.Decode(&payload); err == nil && payload.Status != "" && payload.Status != "healthy" {
		return &APIError{Kind: KindUpstream, Message: fmt.Sprintf("upstream status %q", payload.Status)}
	}
	return nil
}

// Version returns the upstream API version, or "unknown".
func (c *Client) Version(ctx context.Context) string {
	env, err := c.get(ctx, pathVersion, nil)
	if err != nil {
		return "unknown"
	}
	var payload struct {
		Version string `json:"version"`
	}
	if err := env.Decode(&payload); err != nil || payload.Version == "" {
		return "unknown"
	}
	return payload.Version
}
