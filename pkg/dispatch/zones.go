package dispatch

import (
	"context"
	"sync"

	"github.com/matzehuels/drawbridge/pkg/dns"
)

// onceProvider lists zones at most once per command, however many
// instances need a lookup.
type onceProvider struct {
	inner dns.Provider

	once  sync.Once
	zones []dns.Zone
	err   error
}

func (p *onceProvider) ListZones(ctx context.Context) ([]dns.Zone, error) {
	p.once.Do(func() {
		p.zones, p.err = p.inner.ListZones(ctx)
	})
	return p.zones, p.err
}
