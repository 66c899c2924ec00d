package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/dzx/internal/shared"
	"golang.org/x/time/rate"
)

// client performs rate limited JSON requests.
type client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	header     http.Header
}

func newClient(rps float64) *client {
	return &client{
		httpClient: http.DefaultClient,
		limiter:    newLimiter(rps),
		header:     http.Header{},
	}
}

// newLimiter allows rps requests per second; a non-positive rate disables limiting.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// do sends the request and returns the response body for any status code.
func (c *client) do(ctx context.Context, method, url string, body any) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrAPIRequest, err)
	}
	return resp.StatusCode, data, nil
}

// statusError maps a non-2xx status onto the shared error taxonomy.
func statusError(service string, status int, detail string) error {
	msg := fmt.Sprintf("%s API error: status %d", service, status)
	if detail != "" {
		msg = fmt.Sprintf("%s API error (status %d): %s", service, status, detail)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %w: %s", shared.ErrAPIRequest, shared.ErrNotAuthenticated, msg)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %w: %s", shared.ErrAPIRequest, shared.ErrPlaylistNotFound, msg)
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: %w: %s", shared.ErrAPIRequest, shared.ErrServiceUnavailable, msg)
	default:
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, msg)
	}
}

func ok(status int) bool {
	return status >= 200 && status < 300
}

func decode(service string, data []byte, result any) error {
	if result == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %w", shared.ErrAPIRequest, service, err)
	}
	return nil
}
