package screenapp

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

	"github.com/rs/zerolog/log"
)

const (
	// defaultTimeout bounds metadata, list, and search calls.
	defaultTimeout = 30 * time.Second
	// analysisTimeout bounds AI-analysis calls, which run a model
	// upstream and can legitimately take over a minute.
	analysisTimeout = 120 * time.Second
)

// APIError is a non-2xx response from the ScreenApp API. It carries the
// upstream status and response body so callers can surface them verbatim.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("screenapp api: %s", e.Status)
	}
	return fmt.Sprintf("screenapp api: %s: %s", e.Status, e.Body)
}

// Client issues authenticated HTTP requests to the ScreenApp API.
// It performs no retries: a single network or status failure is
// surfaced immediately to the caller.
type Client struct {
	cfg     Config
	short   *http.Client
	long    *http.Client
	baseURL string
}

// NewClient creates a new ScreenApp API client.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:     cfg,
		short:   &http.Client{Timeout: defaultTimeout},
		long:    &http.Client{Timeout: analysisTimeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// Get issues a GET request with optional query parameters.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.do(ctx, c.short, http.MethodGet, path, query, nil)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return c.do(ctx, c.short, http.MethodPost, path, nil, body)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return c.do(ctx, c.short, http.MethodPut, path, nil, body)
}

// Delete issues a DELETE request. The ScreenApp API uses both query
// parameters and JSON bodies on deletes, so either may be set.
func (c *Client) Delete(ctx context.Context, path string, query url.Values, body interface{}) (json.RawMessage, error) {
	return c.do(ctx, c.short, http.MethodDelete, path, query, body)
}

// Ask issues a POST request with the long AI-analysis timeout.
func (c *Client) Ask(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return c.do(ctx, c.long, http.MethodPost, path, nil, body)
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, query url.Values, body interface{}) (json.RawMessage, error) {
	// Fail fast before any network I/O when the credential is absent.
	if c.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	logger := log.With().
		Str("component", "screenapp_client").
		Str("method", method).
		Str("path", path).
		Logger()

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		logger.Error().Err(err).Str("url", fullURL).Msg("Failed to create HTTP request")
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	logger.Debug().Msg("Sending HTTP request")
	resp, err := hc.Do(req)
	if err != nil {
		logger.Warn().Err(err).Msg("HTTP request failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read response body")
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	logger.Debug().Int("status_code", resp.StatusCode).Msg("Received HTTP response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Error().
			Int("status_code", resp.StatusCode).
			Str("response_body", string(respBody)).
			Msg("ScreenApp API returned an error")
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	if len(respBody) == 0 {
		return json.RawMessage("{}"), nil
	}
	return json.RawMessage(respBody), nil
}
