// Package fetch performs the read-only JSON lookups used for online search
// and metadata enrichment.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"pkgdeck/pkg/manager"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 10 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

// Client issues GET requests and reports failures as *manager.NetworkError.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// New creates a Client with the given timeout. Zero uses DefaultTimeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "pkgdeck/1.0",
	}
}

// NewWithHTTPClient wraps an existing http.Client.
func NewWithHTTPClient(c *http.Client) *Client {
	return &Client{httpClient: c, userAgent: "pkgdeck/1.0"}
}

// Get fetches url and returns the body of a 200 response.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &manager.NetworkError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &manager.NetworkError{URL: url, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("status %d", resp.StatusCode)
		if resp.StatusCode == http.StatusNotFound {
			err = fmt.Errorf("%w: status 404", manager.ErrPackageNotFound)
		}
		return nil, &manager.NetworkError{URL: url, Err: err}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &manager.NetworkError{URL: url, Timeout: isTimeout(err), Err: fmt.Errorf("failed to read response: %w", err)}
	}
	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
