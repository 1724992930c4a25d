// Package mem provides an in-memory cloud for tests and dry runs.
//
// Instances start out stopped. Starting one assigns the address reserved for
// it at creation, so DNS bindings can be checked against a known value.
package mem

import (
	"context"
	"fmt"
	"maps"
	"net/netip"
	"slices"
	"sync"

	"github.com/matzehuels/drawbridge/pkg/cloud"
)

// Cloud is an in-memory [cloud.Cloud]. It is safe for concurrent use.
type Cloud struct {
	mu        sync.Mutex
	nextID    int
	nextAddr  netip.Addr
	firewalls map[string]*Firewall
	instances map[string]*Instance
}

// New returns an empty cloud.
func New() *Cloud {
	return &Cloud{
		nextAddr:  netip.MustParseAddr("10.0.0.1"),
		firewalls: make(map[string]*Firewall),
		instances: make(map[string]*Instance),
	}
}

func (c *Cloud) freshID(prefix string) string {
	id := fmt.Sprintf("%s-%08d", prefix, c.nextID)
	c.nextID++
	return id
}

func (c *Cloud) freshAddr() netip.Addr {
	addr := c.nextAddr
	c.nextAddr = addr.Next()
	return addr
}

// CreateFirewall adds an empty firewall named name.
func (c *Cloud) CreateFirewall(name string) *Firewall {
	c.mu.Lock()
	defer c.mu.Unlock()
	fw := newFirewall(c.freshID("sg"), name)
	c.firewalls[fw.id] = fw
	return fw
}

// CreateInstance adds a stopped instance. fqdn may be empty.
func (c *Cloud) CreateInstance(name, fqdn string, t cloud.InstanceType) *Instance {
	c.mu.Lock()
	defer c.mu.Unlock()
	inst := newInstance(c.freshID("i"), name, fqdn, t, c.freshAddr())
	c.instances[inst.id] = inst
	return inst
}

// ListFirewalls returns the selected firewalls ordered by id.
func (c *Cloud) ListFirewalls(ctx context.Context, names []string) ([]cloud.Firewall, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []cloud.Firewall
	for _, id := range slices.Sorted(maps.Keys(c.firewalls)) {
		if fw := c.firewalls[id]; cloud.Selected(names, fw.name) {
			out = append(out, fw)
		}
	}
	return out, nil
}

// ListInstances returns the selected instances ordered by id.
func (c *Cloud) ListInstances(ctx context.Context, names []string) ([]cloud.Instance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []cloud.Instance
	for _, id := range slices.Sorted(maps.Keys(c.instances)) {
		if inst := c.instances[id]; cloud.Selected(names, inst.name) {
			out = append(out, inst)
		}
	}
	return out, nil
}

var _ cloud.Cloud = (*Cloud)(nil)
