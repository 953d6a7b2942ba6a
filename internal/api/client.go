package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SessionCookieName is the backend-issued session cookie
const SessionCookieName = "token"

// ErrMalformedResponse is returned when the backend body is not JSON
var ErrMalformedResponse = errors.New("malformed response")

// Jar supplies the session token for outgoing requests and receives cookies
// the backend sets on responses
type Jar interface {
	Token() (string, bool)
	SetCookies(cookies []*http.Cookie)
}

// Client represents an HTTP client for the booking backend API
type Client struct {
	baseURL    string
	httpClient *http.Client
	jar        Jar
}

// New creates a new API client. baseURL includes the version path.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// BaseURL returns the versioned backend URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WithJar returns a copy of the client bound to jar. The original is untouched
// so one Client can be shared across requests.
func (c *Client) WithJar(jar Jar) *Client {
	clone := *c
	clone.jar = jar
	return &clone
}

// RequestOption customizes a single request
type RequestOption func(*http.Request)

// WithBearer overrides the jar token with an explicit bearer token
func WithBearer(token string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// Get issues a GET request
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Envelope, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts...)
}

// Post issues a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Envelope, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts...)
}

// Put issues a PUT request with a JSON body
func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Envelope, error) {
	return c.Do(ctx, http.MethodPut, path, body, opts...)
}

// Delete issues a DELETE request
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Envelope, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, opts...)
}

// Do sends a request and decodes the envelope. A non-2xx status is not an
// error; callers inspect Envelope.StatusCode and Envelope.Success.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Envelope, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	if c.jar != nil {
		if token, ok := c.jar.Token(); ok {
			req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
			req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
		}
	}

	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if c.jar != nil {
		if cookies := resp.Cookies(); len(cookies) > 0 {
			c.jar.SetCookies(cookies)
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	env := &Envelope{StatusCode: resp.StatusCode}
	if len(bytes.TrimSpace(data)) == 0 {
		return env, nil
	}

	if err := json.Unmarshal(data, env); err != nil {
		return env, fmt.Errorf("%w (status %d): %v", ErrMalformedResponse, resp.StatusCode, err)
	}

	return env, nil
}
