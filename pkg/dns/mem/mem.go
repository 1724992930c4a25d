// Package mem provides an in-memory DNS provider for tests and dry runs.
package mem

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/matzehuels/drawbridge/pkg/dns"
)

// DNS is an in-memory [dns.Provider]. It is safe for concurrent use.
type DNS struct {
	mu     sync.Mutex
	nextID int
	zones  map[string]*Zone
}

// New returns an empty provider.
func New() *DNS {
	return &DNS{zones: make(map[string]*Zone)}
}

// CreateZone adds a zone named name.
func (d *DNS) CreateZone(name string) *Zone {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := fmt.Sprintf("Z%04d", d.nextID)
	d.nextID++
	z := &Zone{id: id, name: name, records: make(map[string]dns.Target)}
	d.zones[id] = z
	return z
}

// ListZones returns every zone, ordered by id.
func (d *DNS) ListZones(ctx context.Context) ([]dns.Zone, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]dns.Zone, 0, len(d.zones))
	for _, id := range slices.Sorted(maps.Keys(d.zones)) {
		out = append(out, d.zones[id])
	}
	return out, nil
}

var _ dns.Provider = (*DNS)(nil)

// Zone is an in-memory [dns.Zone].
type Zone struct {
	id   string
	name string

	mu      sync.Mutex
	records map[string]dns.Target
}

func (z *Zone) ID() string   { return z.id }
func (z *Zone) Name() string { return z.name }

// Bind stores target under fqdn, replacing any previous record.
func (z *Zone) Bind(ctx context.Context, fqdn string, target dns.Target) error {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.records[dns.Normalize(fqdn)] = target
	return nil
}

// Unbind removes the record for fqdn, if any.
func (z *Zone) Unbind(ctx context.Context, fqdn string) error {
	z.mu.Lock()
	defer z.mu.Unlock()
	delete(z.records, dns.Normalize(fqdn))
	return nil
}

// Lookup returns the record for fqdn.
func (z *Zone) Lookup(fqdn string) (dns.Target, bool) {
	z.mu.Lock()
	defer z.mu.Unlock()
	t, ok := z.records[dns.Normalize(fqdn)]
	return t, ok
}

func (z *Zone) String() string {
	return fmt.Sprintf("%s (%s)", z.name, z.id)
}

var _ dns.Zone = (*Zone)(nil)
