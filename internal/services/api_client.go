package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

const (
	maxErrorBodyBytes = 4096
	defaultRetryDelay = 250 * time.Millisecond
)

// JSONClient posts JSON to one upstream service and decodes JSON replies
type JSONClient struct {
	endpoint string
	http     *http.Client
	headers  http.Header
}

// CallOptions tunes a single call
type CallOptions struct {
	Headers map[string]string
	Timeout time.Duration
	// Retries is the number of extra attempts after a 5xx or network timeout
	Retries    int
	RetryDelay time.Duration
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// NewJSONClient creates a client for endpoint with its own pooled transport
func NewJSONClient(endpoint string) *JSONClient {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	headers := make(http.Header)
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")
	headers.Set("User-Agent", "adaptive-chat/1.0")

	return &JSONClient{
		endpoint: endpoint,
		http:     &http.Client{Transport: transport},
		headers:  headers,
	}
}

// PostJSON sends body to the endpoint and decodes the reply into out, which may be nil
func (c *JSONClient) PostJSON(ctx context.Context, body, out any, opts CallOptions) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	delay := opts.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	var lastErr error
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if attempt > 0 {
			fiberlog.Debugf("Retrying %s (attempt %d/%d): %v", c.endpoint, attempt+1, opts.Retries+1, lastErr)
			select {
			case <-time.After(time.Duration(attempt) * delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = c.post(ctx, payload, out, opts)
		if lastErr == nil || !shouldRetry(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (c *JSONClient) post(ctx context.Context, payload []byte, out any, opts CallOptions) error {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header = c.headers.Clone()
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			fiberlog.Warnf("Failed to close response body from %s: %v", c.endpoint, err)
		}
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		_, err = io.Copy(io.Discard, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Close drops idle connections
func (c *JSONClient) Close() {
	c.http.CloseIdleConnections()
}
