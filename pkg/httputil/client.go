package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/drawbridge/pkg/buildinfo"
	"github.com/matzehuels/drawbridge/pkg/errors"
	"github.com/matzehuels/drawbridge/pkg/observability"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 10 * time.Second

// maxBody caps how much of a response body is read.
const maxBody = 1 << 20

// NewClient returns an HTTP client with [DefaultTimeout].
func NewClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// StatusError reports a non-200 response. Body holds the (trimmed) response text.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Get fetches rawURL and returns the body of a 200 response.
//
// Transport failures and 5xx responses come back wrapped in [RetryableError];
// other statuses return a *StatusError directly. Request events are reported
// to [observability.HTTP].
func Get(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "bad request URL: %s", rawURL)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	host, path := splitURL(req.URL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", rawURL))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read response from %s", rawURL))
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode >= 500:
		return nil, Retryable(&StatusError{StatusCode: resp.StatusCode, Body: string(body)})
	default:
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
}

func splitURL(u *url.URL) (host, path string) {
	return u.Host, u.Path
}
