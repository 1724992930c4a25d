// Package checkip looks up the caller's public IPv4 address.
package checkip

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/matzehuels/drawbridge/pkg/errors"
	"github.com/matzehuels/drawbridge/pkg/httputil"
)

// DefaultURL answers a GET with the caller's address as plain text.
const DefaultURL = "https://checkip.amazonaws.com/"

// retryDelay is the first backoff step.
var retryDelay = time.Second

// Client queries a checkip-style endpoint.
type Client struct {
	URL  string
	HTTP *http.Client

	// Attempts bounds retries of transient failures. Zero means 3.
	Attempts int
}

// New returns a Client for [DefaultURL].
func New() *Client {
	return &Client{URL: DefaultURL, HTTP: httputil.NewClient()}
}

// PublicIPv4 returns the address the checkip service sees for this host.
func (c *Client) PublicIPv4(ctx context.Context) (netip.Addr, error) {
	url := c.URL
	if url == "" {
		url = DefaultURL
	}
	client := c.HTTP
	if client == nil {
		client = httputil.NewClient()
	}
	attempts := c.Attempts
	if attempts == 0 {
		attempts = 3
	}

	var body []byte
	err := httputil.Retry(ctx, attempts, retryDelay, func() error {
		var err error
		body, err = httputil.Get(ctx, client, url)
		return err
	})
	if err != nil {
		var se *httputil.StatusError
		if stderrors.As(err, &se) {
			return netip.Addr{}, errors.New(errors.ErrCodeNetwork,
				"checkip service returned %d %s: %s", se.StatusCode, http.StatusText(se.StatusCode), strings.TrimSpace(se.Body))
		}
		return netip.Addr{}, errors.Wrap(errors.ErrCodeNetwork, err, "failed to contact checkip service")
	}

	content := strings.TrimSpace(string(body))
	addr, err := netip.ParseAddr(content)
	if err != nil || !addr.Is4() {
		return netip.Addr{}, errors.New(errors.ErrCodeNetwork, "expected checkip to return IP address: %s", content)
	}
	return addr, nil
}
