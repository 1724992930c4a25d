// Package aws implements [dns.Provider] on Route53.
//
// Route53 is a global service; the client is always addressed in us-east-1
// whatever region the rest of the configuration uses. The hosted-zone listing
// can be cached between runs through a [cache.Cache].
package aws

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/drawbridge/pkg/cache"
	"github.com/matzehuels/drawbridge/pkg/dns"
	"github.com/matzehuels/drawbridge/pkg/observability"
)

// Region is where Route53 is addressed.
const Region = "us-east-1"

// DefaultZoneCacheTTL is how long a cached zone listing stays valid.
const DefaultZoneCacheTTL = time.Hour

const (
	hostedZonePrefix = "/hostedzone/"
	providerName     = "route53"
)

// Route53API is the subset of the Route53 client drawbridge calls.
type Route53API interface {
	ListHostedZones(ctx context.Context, params *route53.ListHostedZonesInput, optFns ...func(*route53.Options)) (*route53.ListHostedZonesOutput, error)
	ListResourceRecordSets(ctx context.Context, params *route53.ListResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error)
	ChangeResourceRecordSets(ctx context.Context, params *route53.ChangeResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error)
}

var _ Route53API = (*route53.Client)(nil)

// Options configures a DNS provider.
type Options struct {
	// TTL of records written by Bind. Zero means [dns.DefaultTTL].
	TTL int64

	// Cache holds the zone listing. Nil disables caching.
	Cache cache.Cache
	Keyer cache.Keyer

	// ZoneCacheTTL defaults to [DefaultZoneCacheTTL].
	ZoneCacheTTL time.Duration

	Logger *log.Logger
}

// DNS is a Route53-backed [dns.Provider].
type DNS struct {
	client   Route53API
	ttl      int64
	cache    cache.Cache
	keyer    cache.Keyer
	cacheTTL time.Duration
	logger   *log.Logger
}

// New returns a provider using a Route53 client built from cfg.
func New(cfg aws.Config, opts Options) *DNS {
	client := route53.NewFromConfig(cfg, func(o *route53.Options) {
		o.Region = Region
	})
	return NewWithClient(client, opts)
}

// NewWithClient returns a provider using client.
func NewWithClient(client Route53API, opts Options) *DNS {
	if opts.TTL <= 0 {
		opts.TTL = dns.DefaultTTL
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.ZoneCacheTTL <= 0 {
		opts.ZoneCacheTTL = DefaultZoneCacheTTL
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &DNS{
		client:   client,
		ttl:      opts.TTL,
		cache:    opts.Cache,
		keyer:    opts.Keyer,
		cacheTTL: opts.ZoneCacheTTL,
		logger:   opts.Logger,
	}
}

// cachedZone is the cache encoding of one hosted zone.
type cachedZone struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListZones returns every hosted zone visible to the credentials.
func (d *DNS) ListZones(ctx context.Context) ([]dns.Zone, error) {
	entries, err := d.zoneEntries(ctx)
	if err != nil {
		return nil, err
	}
	zones := make([]dns.Zone, len(entries))
	for i, e := range entries {
		zones[i] = &Zone{id: e.ID, name: e.Name, dns: d}
	}
	return zones, nil
}

func (d *DNS) zoneEntries(ctx context.Context) ([]cachedZone, error) {
	key := d.keyer.ZonesKey(providerName)
	hooks := observability.Cache()

	if data, ok, err := d.cache.Get(ctx, key); err == nil && ok {
		var entries []cachedZone
		if err := json.Unmarshal(data, &entries); err == nil {
			hooks.OnCacheHit(ctx, "zones")
			d.logger.Debug("using cached hosted zones", "count", len(entries))
			return entries, nil
		}
	}
	hooks.OnCacheMiss(ctx, "zones")

	var entries []cachedZone
	p := route53.NewListHostedZonesPaginator(d.client, &route53.ListHostedZonesInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, apiError(err, "failed to list hosted zones")
		}
		for _, hz := range page.HostedZones {
			entries = append(entries, cachedZone{
				ID:   strings.TrimPrefix(aws.ToString(hz.Id), hostedZonePrefix),
				Name: aws.ToString(hz.Name),
			})
		}
	}

	if data, err := json.Marshal(entries); err == nil {
		if err := d.cache.Set(ctx, key, data, d.cacheTTL); err != nil {
			d.logger.Warn("could not cache hosted zones", "error", err)
		} else {
			hooks.OnCacheSet(ctx, "zones", len(data))
		}
	}
	return entries, nil
}

var _ dns.Provider = (*DNS)(nil)
