// Package gateway is the client for the WebClaw gateway RPC bridge.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the gateway's HTTP bridge on a local install
	DefaultBaseURL = "http://127.0.0.1:18789"
	// RPCPath is where the bridge accepts calls
	RPCPath = "/api/rpc"
	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second
	// MaxRetries for rate limit errors
	MaxRetries = 3
	// InitialBackoff for rate limit retries
	InitialBackoff = 2 * time.Second
)

// Error types for specific gateway errors
type (
	// AuthenticationError indicates rejected credentials
	AuthenticationError struct{ Message string }
	// RateLimitError indicates the gateway is throttling
	RateLimitError struct{ Message string }
	// NotFoundError indicates an unknown method or resource
	NotFoundError struct{ Message string }
	// ValidationError indicates invalid parameters
	ValidationError struct{ Message string }
)

func (e AuthenticationError) Error() string { return e.Message }
func (e RateLimitError) Error() string      { return e.Message }
func (e NotFoundError) Error() string       { return e.Message }
func (e ValidationError) Error() string     { return e.Message }

// RPCError is a failure reported by the gateway for one method call.
type RPCError struct {
	Method  string
	Code    string
	Message string
}

func (e RPCError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s failed (%s): %s", e.Method, e.Code, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Method, e.Message)
}

type rpcRequest struct {
	Method string      `json:"method"`
	Params interface{} `json:"params"`
}

type rpcResponse struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client calls the gateway over its HTTP bridge.
type Client struct {
	baseURL    string
	token      string
	password   string
	httpClient *http.Client
	limiter    *rate.Limiter
	backoff    time.Duration
	logger     *slog.Logger
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// WithBaseURL sets the gateway URL. ws:// and wss:// URLs are mapped to
// their http equivalents.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = normalizeBaseURL(url)
	}
}

// WithToken authenticates with a bearer token
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithPassword authenticates with the gateway password
func WithPassword(password string) ClientOption {
	return func(c *Client) {
		c.password = password
	}
}

// WithTimeout sets a custom timeout for the HTTP client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit throttles outgoing calls to r per second with the given burst
func WithRateLimit(r rate.Limit, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(r, burst)
	}
}

// WithBackoff sets the first retry delay after a rate limit response
func WithBackoff(d time.Duration) ClientOption {
	return func(c *Client) {
		c.backoff = d
	}
}

// WithLogger sets the logger for request diagnostics
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a gateway client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(10), 20),
		backoff:    InitialBackoff,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the HTTP base URL the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Call invokes method with params, retrying rate-limited calls, and decodes
// the result into out when out is non-nil.
func (c *Client) Call(ctx context.Context, method string, params interface{}, out interface{}) error {
	if params == nil {
		params = map[string]interface{}{}
	}
	raw, err := c.callWithRetry(ctx, method, params)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse %s result: %w", method, err)
	}
	return nil
}

// callWithRetry calls the gateway with retry logic for rate limits
func (c *Client) callWithRetry(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	backoff := c.backoff

	for attempt := 0; attempt <= MaxRetries; attempt++ {
		resp, err := c.call(ctx, method, params)
		if err == nil {
			return resp, nil
		}

		// Only retry on rate limit errors
		var rateErr RateLimitError
		if !errors.As(err, &rateErr) {
			return nil, err
		}

		if attempt < MaxRetries {
			c.logger.Debug("gateway rate limited", "method", method, "attempt", attempt+1, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return nil, RateLimitError{Message: "rate limit exceeded after retries"}
}

// call makes a single gateway call
func (c *Client) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(rpcRequest{Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+RPCPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.password != "" {
		req.Header.Set("X-Gateway-Password", c.password)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.logger.Debug("gateway call", "method", method, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		detail := strings.TrimSpace(string(respBody))
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, AuthenticationError{Message: "gateway rejected the token or password"}
		case http.StatusTooManyRequests:
			return nil, RateLimitError{Message: fmt.Sprintf("rate limit exceeded: %s", detail)}
		case http.StatusBadRequest:
			return nil, ValidationError{Message: fmt.Sprintf("invalid request: %s", detail)}
		case http.StatusNotFound:
			return nil, NotFoundError{Message: fmt.Sprintf("not found: %s", detail)}
		default:
			return nil, fmt.Errorf("gateway error (status %d): %s", resp.StatusCode, detail)
		}
	}

	var envelope rpcResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if !envelope.OK {
		rpcErr := RPCError{Method: method, Message: "unknown error"}
		if envelope.Error != nil {
			rpcErr.Code = envelope.Error.Code
			if envelope.Error.Message != "" {
				rpcErr.Message = envelope.Error.Message
			}
		}
		return nil, rpcErr
	}

	return envelope.Result, nil
}

// ListSessions returns the gateway's chat sessions
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var result struct {
		Sessions []Session `json:"sessions"`
	}
	if err := c.Call(ctx, "sessions.list", nil, &result); err != nil {
		return nil, err
	}
	return result.Sessions, nil
}

// History returns up to limit messages of a session
func (c *Client) History(ctx context.Context, sessionKey string, limit int) (*History, error) {
	params := map[string]interface{}{"sessionKey": sessionKey}
	if limit > 0 {
		params["limit"] = limit
	}
	var history History
	if err := c.Call(ctx, "chat.history", params, &history); err != nil {
		return nil, err
	}
	if history.SessionKey == "" {
		history.SessionKey = sessionKey
	}
	return &history, nil
}

// SendMessage posts text into a session
func (c *Client) SendMessage(ctx context.Context, sessionKey, text string) error {
	return c.Call(ctx, "chat.send", map[string]interface{}{
		"sessionKey": sessionKey,
		"message":    text,
	}, nil)
}

// CronJobs lists scheduled jobs
func (c *Client) CronJobs(ctx context.Context, includeDisabled bool) ([]CronJob, error) {
	var result struct {
		Jobs []CronJob `json:"jobs"`
	}
	if err := c.Call(ctx, "cron.list", map[string]interface{}{"includeDisabled": includeDisabled}, &result); err != nil {
		return nil, err
	}
	return result.Jobs, nil
}

// CronRuns lists past runs of a job
func (c *Client) CronRuns(ctx context.Context, jobID string) ([]map[string]interface{}, error) {
	var result struct {
		Runs []map[string]interface{} `json:"runs"`
	}
	if err := c.Call(ctx, "cron.runs", map[string]interface{}{"jobId": jobID}, &result); err != nil {
		return nil, err
	}
	return result.Runs, nil
}

// RunCronJob triggers a job now
func (c *Client) RunCronJob(ctx context.Context, jobID string) (map[string]interface{}, error) {
	result := map[string]interface{}{}
	if err := c.Call(ctx, "cron.run", map[string]interface{}{"jobId": jobID}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateCronJob applies a partial update to a job
func (c *Client) UpdateCronJob(ctx context.Context, jobID string, patch map[string]interface{}) (*CronJob, error) {
	if patch == nil {
		patch = map[string]interface{}{}
	}
	var result struct {
		Job *CronJob `json:"job"`
	}
	if err := c.Call(ctx, "cron.update", map[string]interface{}{"jobId": jobID, "patch": patch}, &result); err != nil {
		return nil, err
	}
	return result.Job, nil
}

// Ping checks that the gateway accepts the configured credentials
func (c *Client) Ping(ctx context.Context) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.Call(ctx, "status", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func normalizeBaseURL(url string) string {
	url = strings.TrimSpace(url)
	switch {
	case strings.HasPrefix(url, "ws://"):
		url = "http://" + strings.TrimPrefix(url, "ws://")
	case strings.HasPrefix(url, "wss://"):
		url = "https://" + strings.TrimPrefix(url, "wss://")
	}
	return strings.TrimRight(url, "/")
}
