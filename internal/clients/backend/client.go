// Package backend provides the client for the upstream trading backend API.
// All business logic (strategy execution, scheduling, order placement,
// credential storage) lives behind this API; the gateway only calls it.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultTimeout = 30 * time.Second

// envelope is the response shape every backend endpoint uses:
// {"data": ..., "message": "..."}. The message field carries the
// human-readable error on failures.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// APIError is a backend-reported failure. It surfaces the envelope's
// message when present, else a generic fallback.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend request failed with status %d", e.StatusCode)
}

// Client is the typed HTTP client for the trading backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger

	mu    sync.RWMutex
	token string
}

// NewClient creates a new backend client. baseURL should include the
// /api/v1 prefix, e.g. http://localhost:5000/api/v1.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        log.With().Str("client", "backend").Logger(),
	}
}

// SetToken sets the bearer token used for authenticated requests.
// An empty token clears authentication.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// resolvePath joins a relative path onto the base URL, stripping a
// duplicated /api/v1 prefix if the caller included one.
func (c *Client) resolvePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	path = strings.TrimPrefix(path, "/api/v1")
	return c.baseURL + path
}

// do executes a request against the backend and returns the envelope's
// data field. Request bodies are JSON-encoded; nil means no body.
func (c *Client) do(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	requestURL := c.resolvePath(path)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &env); err != nil {
			bodyStr := string(respBody)
			if len(bodyStr) > 500 {
				bodyStr = bodyStr[:500] + "..."
			}
			c.log.Error().
				Int("status_code", resp.StatusCode).
				Str("url", requestURL).
				Str("response_body", bodyStr).
				Msg("Backend returned a non-envelope response")
			return nil, fmt.Errorf("failed to parse backend response: %w", err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn().
			Int("status_code", resp.StatusCode).
			Str("method", method).
			Str("url", requestURL).
			Str("message", env.Message).
			Msg("Backend request failed")
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	return env.Data, nil
}

// decode unmarshals envelope data into out, failing loudly when the shape
// does not match instead of silently coercing. A missing data field is an
// error for endpoints that expect one.
func decode(data json.RawMessage, out interface{}) error {
	if len(data) == 0 || string(data) == "null" {
		return fmt.Errorf("backend response missing data field")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("backend response shape mismatch: %w", err)
	}
	return nil
}
