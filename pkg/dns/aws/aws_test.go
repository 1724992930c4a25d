package aws

import (
	"context"
	"net/netip"
	"slices"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/smithy-go"

	"github.com/matzehuels/drawbridge/pkg/cache"
	"github.com/matzehuels/drawbridge/pkg/dns"
	"github.com/matzehuels/drawbridge/pkg/errors"
)

// fakeRoute53 serves hosted zones two per page and keeps record sets sorted
// the way Route53 lists them.
type fakeRoute53 struct {
	mu       sync.Mutex
	zones    []types.HostedZone
	records  map[string][]types.ResourceRecordSet
	changes  []types.Change
	listCall int
}

func newFakeRoute53(names ...string) *fakeRoute53 {
	f := &fakeRoute53{records: make(map[string][]types.ResourceRecordSet)}
	for i, n := range names {
		f.zones = append(f.zones, types.HostedZone{
			Id:   aws.String("/hostedzone/Z" + string(rune('A'+i))),
			Name: aws.String(n),
		})
	}
	return f
}

func (f *fakeRoute53) ListHostedZones(ctx context.Context, in *route53.ListHostedZonesInput, _ ...func(*route53.Options)) (*route53.ListHostedZonesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCall++
	start := 0
	if in.Marker != nil {
		start = int(aws.ToString(in.Marker)[0] - '0')
	}
	end := min(start+2, len(f.zones))
	out := &route53.ListHostedZonesOutput{HostedZones: f.zones[start:end]}
	if end < len(f.zones) {
		out.IsTruncated = true
		out.NextMarker = aws.String(string(rune('0' + end)))
	}
	return out, nil
}

func (f *fakeRoute53) ListResourceRecordSets(ctx context.Context, in *route53.ListResourceRecordSetsInput, _ ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	zone := aws.ToString(in.HostedZoneId)
	if !slices.ContainsFunc(f.zones, func(z types.HostedZone) bool { return aws.ToString(z.Id) == "/hostedzone/"+zone }) {
		return nil, &smithy.GenericAPIError{Code: "NoSuchHostedZone", Message: zone}
	}
	sets := f.records[zone]
	// Route53 returns the first set at or after the start position.
	for _, rrs := range sets {
		key := aws.ToString(rrs.Name) + "/" + string(rrs.Type)
		if key >= aws.ToString(in.StartRecordName)+"/"+string(in.StartRecordType) {
			return &route53.ListResourceRecordSetsOutput{ResourceRecordSets: []types.ResourceRecordSet{rrs}}, nil
		}
	}
	return &route53.ListResourceRecordSetsOutput{}, nil
}

func (f *fakeRoute53) ChangeResourceRecordSets(ctx context.Context, in *route53.ChangeResourceRecordSetsInput, _ ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	zone := aws.ToString(in.HostedZoneId)
	for _, c := range in.ChangeBatch.Changes {
		f.changes = append(f.changes, c)
		rrs := *c.ResourceRecordSet
		same := func(o types.ResourceRecordSet) bool {
			return aws.ToString(o.Name) == aws.ToString(rrs.Name) && o.Type == rrs.Type
		}
		sets := slices.DeleteFunc(f.records[zone], same)
		if c.Action == types.ChangeActionUpsert {
			sets = append(sets, rrs)
		}
		slices.SortFunc(sets, func(a, b types.ResourceRecordSet) int {
			ka := aws.ToString(a.Name) + "/" + string(a.Type)
			kb := aws.ToString(b.Name) + "/" + string(b.Type)
			if ka < kb {
				return -1
			}
			if ka > kb {
				return 1
			}
			return 0
		})
		f.records[zone] = sets
	}
	return &route53.ChangeResourceRecordSetsOutput{}, nil
}

var _ Route53API = (*fakeRoute53)(nil)

func TestListZonesPaginatesAndStripsPrefix(t *testing.T) {
	f := newFakeRoute53("example.com.", "example.net.", "sub.example.com.")
	d := NewWithClient(f, Options{})

	zones, err := d.ListZones(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var ids, names []string
	for _, z := range zones {
		ids = append(ids, z.ID())
		names = append(names, z.Name())
	}
	if !slices.Equal(ids, []string{"ZA", "ZB", "ZC"}) {
		t.Errorf("ids = %v", ids)
	}
	if !slices.Equal(names, []string{"example.com.", "example.net.", "sub.example.com."}) {
		t.Errorf("names = %v", names)
	}
	if f.listCall != 2 {
		t.Errorf("listCall = %d, want 2 pages", f.listCall)
	}
}

func TestListZonesUsesCache(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := newFakeRoute53("example.com.")
	keyer := cache.NewScopedKeyer(nil, "profile:test:")

	for range 3 {
		d := NewWithClient(f, Options{Cache: c, Keyer: keyer})
		zones, err := d.ListZones(ctx)
		if err != nil || len(zones) != 1 || zones[0].ID() != "ZA" {
			t.Fatalf("ListZones = %v, %v", zones, err)
		}
	}
	if f.listCall != 1 {
		t.Errorf("listCall = %d, want 1 with a warm cache", f.listCall)
	}

	// another scope misses
	d := NewWithClient(f, Options{Cache: c, Keyer: cache.NewScopedKeyer(nil, "profile:other:")})
	if _, err := d.ListZones(ctx); err != nil {
		t.Fatal(err)
	}
	if f.listCall != 2 {
		t.Errorf("listCall = %d, want 2 after scope change", f.listCall)
	}
}

func TestBindAndUnbind(t *testing.T) {
	ctx := context.Background()
	f := newFakeRoute53("example.com.")
	d := NewWithClient(f, Options{TTL: 300})
	zones, _ := d.ListZones(ctx)
	z := zones[0]

	addr := netip.MustParseAddr("203.0.113.7")
	if err := z.Bind(ctx, "web.example.com", dns.ATarget(addr)); err != nil {
		t.Fatal(err)
	}
	if err := z.Bind(ctx, "web.example.com", dns.ATarget(addr)); err != nil {
		t.Fatal(err)
	}

	sets := f.records["ZA"]
	if len(sets) != 1 {
		t.Fatalf("records = %v, want one after two upserts", sets)
	}
	rrs := sets[0]
	if rrs.Type != types.RRTypeA || aws.ToInt64(rrs.TTL) != 300 || aws.ToString(rrs.ResourceRecords[0].Value) != "203.0.113.7" {
		t.Errorf("record = %+v", rrs)
	}
	if f.changes[0].Action != types.ChangeActionUpsert {
		t.Errorf("action = %s, want UPSERT", f.changes[0].Action)
	}

	if err := z.Unbind(ctx, "web.example.com"); err != nil {
		t.Fatal(err)
	}
	if len(f.records["ZA"]) != 0 {
		t.Errorf("records after unbind = %v", f.records["ZA"])
	}

	// unbinding again is a no-op
	n := len(f.changes)
	if err := z.Unbind(ctx, "web.example.com"); err != nil {
		t.Fatal(err)
	}
	if len(f.changes) != n {
		t.Errorf("second unbind made %d changes", len(f.changes)-n)
	}
}

func TestUnbindRequiresExactMatch(t *testing.T) {
	ctx := context.Background()
	f := newFakeRoute53("example.com.")
	d := NewWithClient(f, Options{})
	zones, _ := d.ListZones(ctx)
	z := zones[0]

	// a record sorted after the queried name must survive
	if err := z.Bind(ctx, "www.example.com", dns.CNAMETarget("lb.example.net")); err != nil {
		t.Fatal(err)
	}
	if err := z.Unbind(ctx, "web.example.com"); err != nil {
		t.Fatal(err)
	}
	if len(f.records["ZA"]) != 1 {
		t.Errorf("unrelated record was deleted: %v", f.records["ZA"])
	}
}

func TestBindCNAMEReplacedOnUnbind(t *testing.T) {
	ctx := context.Background()
	f := newFakeRoute53("example.com.")
	zones, _ := NewWithClient(f, Options{}).ListZones(ctx)
	z := zones[0]

	if err := z.Bind(ctx, "web.example.com", dns.CNAMETarget("ec2-1.compute.amazonaws.com")); err != nil {
		t.Fatal(err)
	}
	rrs := f.records["ZA"][0]
	if rrs.Type != types.RRTypeCname || aws.ToInt64(rrs.TTL) != dns.DefaultTTL {
		t.Errorf("record = %+v", rrs)
	}
	if err := z.Unbind(ctx, "web.example.com"); err != nil {
		t.Fatal(err)
	}
	if len(f.records["ZA"]) != 0 {
		t.Errorf("CNAME not removed: %v", f.records["ZA"])
	}
}

func TestMissingZone(t *testing.T) {
	f := newFakeRoute53()
	z := &Zone{id: "ZMISSING", name: "gone.example.", dns: NewWithClient(f, Options{})}

	err := z.Unbind(context.Background(), "web.gone.example")
	if !errors.Is(err, errors.ErrCodeZoneNotFound) {
		t.Errorf("err = %v, want ZONE_NOT_FOUND", err)
	}
}
