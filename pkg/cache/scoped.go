package cache

// ScopedKeyer wraps a Keyer with a prefix so that listings from different
// AWS profiles or accounts never share an entry.
//
// Example usage:
//
//	work := NewScopedKeyer(NewDefaultKeyer(), "profile:work:")
//	home := NewScopedKeyer(NewDefaultKeyer(), "profile:home:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ZonesKey generates a prefixed key for a zone listing.
func (k *ScopedKeyer) ZonesKey(provider string) string {
	return k.prefix + k.inner.ZonesKey(provider)
}
