package checkip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/drawbridge/pkg/errors"
)

func init() {
	retryDelay = time.Millisecond
}

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &Client{URL: srv.URL, HTTP: srv.Client()}
}

func TestPublicIPv4(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("198.51.100.7\n"))
	})

	addr, err := c.PublicIPv4(context.Background())
	if err != nil {
		t.Fatalf("PublicIPv4: %v", err)
	}
	if want := netip.MustParseAddr("198.51.100.7"); addr != want {
		t.Errorf("addr = %v, want %v", addr, want)
	}
}

func TestPublicIPv4Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"forbidden", http.StatusForbidden, "go away", "checkip service returned 403 Forbidden: go away"},
		{"garbage", http.StatusOK, "hello", "expected checkip to return IP address: hello"},
		{"ipv6", http.StatusOK, "2001:db8::1", "expected checkip to return IP address: 2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.PublicIPv4(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.UserMessage(err); got != tt.wantMsg {
				t.Errorf("UserMessage = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestPublicIPv4RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("192.0.2.1"))
	})

	addr, err := c.PublicIPv4(context.Background())
	if err != nil {
		t.Fatalf("PublicIPv4: %v", err)
	}
	if addr.String() != "192.0.2.1" {
		t.Errorf("addr = %v", addr)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestPublicIPv4GivesUp(t *testing.T) {
	var calls atomic.Int32
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	})
	c.Attempts = 2

	_, err := c.PublicIPv4(context.Background())
	if err == nil || !strings.HasPrefix(errors.UserMessage(err), "checkip service returned 502") {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}
