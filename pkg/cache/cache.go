// Package cache stores slow-changing remote listings between runs.
//
// drawbridge caches the list of hosted DNS zones, which rarely changes but
// costs a paginated API round trip on every start and stop. Entries carry a
// TTL; [FileCache] keeps them under the user's cache directory and
// [NullCache] disables caching (--no-cache).
//
// Keys are built by a [Keyer] so that each AWS profile or account gets its own
// namespace:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "profile:work:")
//	key := keyer.ZonesKey("route53")
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the data stored under key. The bool reports a hit;
	// expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// ZonesKey is the key for the zone listing of a DNS provider.
	ZonesKey(provider string) string
}

// DefaultKeyer builds unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ZonesKey returns "zones:<provider>".
func (DefaultKeyer) ZonesKey(provider string) string {
	return "zones:" + provider
}
