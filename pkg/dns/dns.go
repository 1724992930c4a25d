// Package dns binds host names to running instances.
//
// A [Provider] lists the DNS zones an account controls. To publish a name,
// drawbridge looks up the authoritative zone for it with
// [FindAuthoritativeZone] (the zone whose name is the longest label-suffix of
// the host name) and upserts or deletes the record there.
//
// Implementations live in subpackages: aws (Route53) and mem (in-memory, for
// tests).
package dns

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	"github.com/matzehuels/drawbridge/pkg/errors"
)

// DefaultTTL is the record TTL, in seconds, used when binding names.
const DefaultTTL = 60

// RecordType is the kind of record a Target is published as.
type RecordType string

const (
	RecordA     RecordType = "A"
	RecordCNAME RecordType = "CNAME"
)

// Target is what a host name resolves to: an IPv4 address (A record) or
// another host name (CNAME record). Exactly one of Addr and Name is set.
type Target struct {
	Addr netip.Addr
	Name string
}

// ATarget returns an A-record target.
func ATarget(addr netip.Addr) Target { return Target{Addr: addr} }

// CNAMETarget returns a CNAME-record target.
func CNAMETarget(name string) Target { return Target{Name: name} }

// Type returns the record type for t.
func (t Target) Type() RecordType {
	if t.Addr.IsValid() {
		return RecordA
	}
	return RecordCNAME
}

// Value returns the record value for t.
func (t Target) Value() string {
	if t.Addr.IsValid() {
		return t.Addr.String()
	}
	return t.Name
}

// IsZero reports whether t is unset.
func (t Target) IsZero() bool {
	return !t.Addr.IsValid() && t.Name == ""
}

func (t Target) String() string {
	return fmt.Sprintf("%s %s", t.Type(), t.Value())
}

// Provider lists the zones of a DNS service.
type Provider interface {
	ListZones(ctx context.Context) ([]Zone, error)
}

// Zone is a hosted DNS zone.
type Zone interface {
	ID() string
	Name() string
	// Bind creates or replaces the record for fqdn.
	Bind(ctx context.Context, fqdn string, target Target) error
	// Unbind removes any A or CNAME record for fqdn. Absent records are not an error.
	Unbind(ctx context.Context, fqdn string) error
}

// FindAuthoritativeZone returns the most specific zone that contains fqdn.
// Names are compared label by label, ignoring case and a trailing dot.
func FindAuthoritativeZone(ctx context.Context, p Provider, fqdn string) (Zone, error) {
	zones, err := p.ListZones(ctx)
	if err != nil {
		return nil, err
	}

	labels := Labels(fqdn)
	var best Zone
	bestLen := -1
	for _, z := range zones {
		zl := Labels(z.Name())
		if !hasLabelSuffix(labels, zl) {
			continue
		}
		if n := len(Normalize(z.Name())); n > bestLen {
			best, bestLen = z, n
		}
	}
	if best == nil {
		return nil, errors.New(errors.ErrCodeZoneNotFound, "could not find authoritative DNS zone for: %s", fqdn)
	}
	return best, nil
}

// Normalize lowercases name and strips one trailing dot.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, "."))
}

// Labels splits name into its dot-separated labels after normalization.
func Labels(name string) []string {
	n := Normalize(name)
	if n == "" {
		return nil
	}
	return strings.Split(n, ".")
}

// SameName reports whether a and b name the same host.
func SameName(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

func hasLabelSuffix(labels, suffix []string) bool {
	if len(suffix) > len(labels) {
		return false
	}
	off := len(labels) - len(suffix)
	for i, l := range suffix {
		if labels[off+i] != l {
			return false
		}
	}
	return true
}
