// ===== internal/portal/client.go =====
package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// TransportError is returned when the login request never got an HTTP reply
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Response is the raw reply of the portal
type Response struct {
	Status int
	Body   string
}

// Client issues login requests against the portal
type Client struct {
	http *http.Client
}

// NewClient creates a portal client with the given request timeout
func NewClient(timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}}
}

// Get performs the login GET. Any status is a successful round trip; the
// body of error statuses is returned the same way, and an unreadable body
// is treated as empty.
func (c *Client) Get(ctx context.Context, url string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, &TransportError{URL: url, Err: fmt.Errorf("build request: %w", err)}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		zap.S().Debugf("Reading portal body (HTTP %d): %v", resp.StatusCode, err)
		body = nil
	}

	return Response{Status: resp.StatusCode, Body: string(body)}, nil
}
