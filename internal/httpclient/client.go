// -----------------------------------------------------------------------
// HTTP client - Shared JSON client for the remote astrology backend
// -----------------------------------------------------------------------

package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/siderealab/siderea/internal/interfaces"
)

const (
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 10
)

// APIError is a non-2xx response from the backend. Message carries the
// server-provided error text when the body had one.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend API error %d on %s: %s", e.StatusCode, e.Endpoint, e.Message)
}

// IsNotFound reports whether the error is a backend 404.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// errorBody is the conventional error envelope the backend returns.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client is a JSON-over-HTTP client for one backend base URL. All requests
// carry the session's bearer token when a session provider is configured.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	session    interfaces.SessionProvider
	logger     arbor.ILogger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the HTTP timeout on the default client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithSession sets the session provider supplying bearer tokens.
func WithSession(session interfaces.SessionProvider) ClientOption {
	return func(c *Client) {
		c.session = session
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// SetSession attaches a session provider after construction. The auth
// service both uses the client and provides the session, so the app wires
// the two together once both exist.
func (c *Client) SetSession(session interfaces.SessionProvider) {
	c.session = session
}

// New creates a backend API client.
func New(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get performs a GET request and decodes the JSON response into result.
func (c *Client) Get(ctx context.Context, path string, params url.Values, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, params, nil, result)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, result)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPut, path, nil, body, result)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// GetBytes performs a GET request and returns the raw response body. Used for
// binary downloads such as PDF exports.
func (c *Client) GetBytes(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp, path)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, result interface{}) error {
	req, err := c.newRequest(ctx, method, path, params, body)
	if err != nil {
		return err
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("method", method).
			Str("url", c.baseURL+path).
			Msg("Backend API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.apiError(resp, path)
	}

	if result == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, params url.Values, body interface{}) (*http.Request, error) {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, params.Encode())
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Anonymous endpoints (login, register, famous charts) go out without a
	// bearer token.
	if c.session != nil && c.session.IsAuthenticated() {
		token, err := c.session.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("no active session: %w", err)
		}
		token.SetAuthHeader(req)
	}

	return req, nil
}

func (c *Client) apiError(resp *http.Response, path string) error {
	data, _ := io.ReadAll(resp.Body)

	message := string(data)
	var envelope errorBody
	if err := json.Unmarshal(data, &envelope); err == nil {
		if envelope.Error != "" {
			message = envelope.Error
		} else if envelope.Message != "" {
			message = envelope.Message
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Endpoint:   path,
	}
}
