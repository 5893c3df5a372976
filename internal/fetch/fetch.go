package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Getter issues a single GET. Resilient wraps one; tests substitute fakes.
type Getter interface {
	Get(ctx context.Context, url string) (string, error)
}

// Client does one plain GET with a fixed identity header and timeout.
// No retries here; that's Resilient's job.
type Client struct {
	hc        *http.Client
	userAgent string
}

func NewClient(userAgent string, timeout time.Duration) *Client {
	if userAgent == "" {
		userAgent = "Mozilla/5.0"
	}
	return &Client{
		hc:        &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

func (c *Client) Get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return "", fmt.Errorf("get %s: status %d", url, res.StatusCode)
	}

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	// Permissive decode: invalid byte sequences are replaced, never fatal.
	return strings.ToValidUTF8(string(b), "�"), nil
}
