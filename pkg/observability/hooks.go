// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about firewall reconciliation, instance transitions, DNS
// updates, cache operations, and HTTP calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so library packages only
// ever call the accessors ([Dispatch], [Cache], [HTTP]).
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    m := observability.NewPrometheus()
//	    observability.SetDispatchHooks(m)
//	    observability.SetCacheHooks(m)
//	    // ... run application
//	    m.WriteTextfile(path)
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Dispatch().OnFirewallReconciled(ctx, name, added, removed, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Dispatch Hooks
// =============================================================================

// DispatchHooks receives events from command execution.
type DispatchHooks interface {
	// OnCommand records a finished top-level command (open, close, start, stop).
	OnCommand(ctx context.Context, command string, duration time.Duration, err error)

	// OnFirewallReconciled records the rule changes applied to one firewall.
	OnFirewallReconciled(ctx context.Context, firewall string, added, removed int, err error)

	// OnInstanceTransition records an observed instance state change.
	OnInstanceTransition(ctx context.Context, instance, from, to string)

	// OnInstanceSettled records an instance reaching its goal state.
	OnInstanceSettled(ctx context.Context, instance, goal string, duration time.Duration, err error)

	// OnDNSChange records a bind or unbind of one name.
	OnDNSChange(ctx context.Context, action, fqdn string, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopDispatchHooks is a no-op implementation of DispatchHooks.
type NoopDispatchHooks struct{}

func (NoopDispatchHooks) OnCommand(context.Context, string, time.Duration, error) {}
func (NoopDispatchHooks) OnFirewallReconciled(context.Context, string, int, int, error) {
}
func (NoopDispatchHooks) OnInstanceTransition(context.Context, string, string, string) {}
func (NoopDispatchHooks) OnInstanceSettled(context.Context, string, string, time.Duration, error) {
}
func (NoopDispatchHooks) OnDNSChange(context.Context, string, string, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	dispatchHooks DispatchHooks = NoopDispatchHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetDispatchHooks registers custom dispatch hooks.
// This should be called once at application startup before any command runs.
func SetDispatchHooks(h DispatchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		dispatchHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Dispatch returns the registered dispatch hooks.
func Dispatch() DispatchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return dispatchHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	dispatchHooks = NoopDispatchHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
