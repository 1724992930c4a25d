package dns

import (
	"context"
	"net/netip"
	"testing"

	"github.com/matzehuels/drawbridge/pkg/errors"
)

type testProvider struct {
	zones []Zone
}

func (p *testProvider) ListZones(context.Context) ([]Zone, error) {
	return p.zones, nil
}

type testZone struct {
	name string
}

func (z testZone) ID() string   { return z.name }
func (z testZone) Name() string { return z.name }

func (z testZone) Bind(context.Context, string, Target) error {
	panic("not implemented")
}

func (z testZone) Unbind(context.Context, string) error {
	panic("not implemented")
}

func newTestProvider(names ...string) *testProvider {
	p := &testProvider{}
	for _, n := range names {
		p.zones = append(p.zones, testZone{name: n})
	}
	return p
}

func TestFindAuthoritativeZone(t *testing.T) {
	p := newTestProvider(
		"example.com",
		"sub1.example.com",
		"sub2.example.com",
		"unrelated.sub1.example.com",
		"unrelated.sub2.example.com",
		"unrelated.sub3.example.com",
		"unrelated-sub1.example.com",
		"unrelated-sub2.example.com",
		"unrelated-sub3.example.com",
		"example.net",
	)

	tests := []struct {
		fqdn string
		want string
	}{
		{"x.example.com", "example.com"},
		{"x.sub1.example.com", "sub1.example.com"},
		{"x.sub2.example.com", "sub2.example.com"},
		// There is no sub3.example.com, so example.com is authoritative
		{"x.sub3.example.com", "example.com"},
		{"X.SUB1.Example.COM.", "sub1.example.com"},
		{"example.net", "example.net"},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.fqdn, func(t *testing.T) {
			z, err := FindAuthoritativeZone(ctx, p, tt.fqdn)
			if err != nil {
				t.Fatalf("FindAuthoritativeZone(%q) error: %v", tt.fqdn, err)
			}
			if z.Name() != tt.want {
				t.Errorf("FindAuthoritativeZone(%q) = %s, want %s", tt.fqdn, z.Name(), tt.want)
			}
		})
	}
}

func TestFindAuthoritativeZoneTrailingDots(t *testing.T) {
	// Route53 reports zone names with a trailing dot.
	p := newTestProvider("example.com.", "sub.example.com.")
	z, err := FindAuthoritativeZone(context.Background(), p, "inst.sub.example.com")
	if err != nil {
		t.Fatalf("FindAuthoritativeZone error: %v", err)
	}
	if z.Name() != "sub.example.com." {
		t.Errorf("got %s, want sub.example.com.", z.Name())
	}
}

func TestFindAuthoritativeZoneNotFound(t *testing.T) {
	p := newTestProvider("example.com", "ample.org")

	for _, fqdn := range []string{"x.example.org", "xexample.com", "com"} {
		t.Run(fqdn, func(t *testing.T) {
			_, err := FindAuthoritativeZone(context.Background(), p, fqdn)
			if !errors.Is(err, errors.ErrCodeZoneNotFound) {
				t.Fatalf("err = %v, want %s", err, errors.ErrCodeZoneNotFound)
			}
			want := "could not find authoritative DNS zone for: " + fqdn
			if errors.UserMessage(err) != want {
				t.Errorf("message = %q, want %q", errors.UserMessage(err), want)
			}
		})
	}
}

func TestTarget(t *testing.T) {
	a := ATarget(netip.MustParseAddr("203.0.113.7"))
	if a.Type() != RecordA || a.Value() != "203.0.113.7" {
		t.Errorf("A target = %s %s", a.Type(), a.Value())
	}
	c := CNAMETarget("ec2-203-0-113-7.compute-1.amazonaws.com")
	if c.Type() != RecordCNAME || c.Value() != "ec2-203-0-113-7.compute-1.amazonaws.com" {
		t.Errorf("CNAME target = %s %s", c.Type(), c.Value())
	}
	if !(Target{}).IsZero() || a.IsZero() || c.IsZero() {
		t.Error("IsZero mismatch")
	}
	if a.String() != "A 203.0.113.7" {
		t.Errorf("String() = %q", a.String())
	}
}
