package iprules

import (
	"cmp"
	"fmt"
	"net/netip"
	"slices"
	"strings"

	"github.com/matzehuels/drawbridge/pkg/errors"
)

// SelfSource is the source keyword that stands for the caller's own public IPv4 address.
const SelfSource = "self"

// IngressRule admits Protocol from the Source network.
type IngressRule struct {
	Source   netip.Prefix
	Protocol Protocol
}

// String renders "<protocol> -> <source>".
func (r IngressRule) String() string {
	return fmt.Sprintf("%s -> %s", r.Protocol, r.Source)
}

// ParseSource parses an address or CIDR network. A bare address becomes a
// single-host network (/32 or /128). Host bits of a CIDR are masked off so
// equal networks compare equal.
func ParseSource(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, errors.Wrap(errors.ErrCodeInvalidSource, err, "not an IP network: %s", s)
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, errors.Wrap(errors.ErrCodeInvalidSource, err, "not an IP address: %s", s)
	}
	return HostPrefix(addr), nil
}

// HostPrefix returns the single-host network containing addr.
func HostPrefix(addr netip.Addr) netip.Prefix {
	addr = addr.WithZone("")
	return netip.PrefixFrom(addr, addr.BitLen())
}

// RuleSet is a set of ingress rules.
type RuleSet map[IngressRule]struct{}

// NewRuleSet returns a set containing rules.
func NewRuleSet(rules ...IngressRule) RuleSet {
	s := make(RuleSet, len(rules))
	for _, r := range rules {
		s.Add(r)
	}
	return s
}

// Product returns every combination of source and protocol.
func Product(sources []netip.Prefix, protocols []Protocol) RuleSet {
	s := make(RuleSet, len(sources)*len(protocols))
	for _, src := range sources {
		for _, p := range protocols {
			s.Add(IngressRule{Source: src, Protocol: p})
		}
	}
	return s
}

// Add inserts r.
func (s RuleSet) Add(r IngressRule) { s[r] = struct{}{} }

// Remove deletes r.
func (s RuleSet) Remove(r IngressRule) { delete(s, r) }

// Contains reports whether r is in the set.
func (s RuleSet) Contains(r IngressRule) bool {
	_, ok := s[r]
	return ok
}

// Len returns the number of rules.
func (s RuleSet) Len() int { return len(s) }

// Difference returns the rules in s that are not in other.
func (s RuleSet) Difference(other RuleSet) RuleSet {
	out := make(RuleSet)
	for r := range s {
		if !other.Contains(r) {
			out.Add(r)
		}
	}
	return out
}

// Clone returns a copy of the set.
func (s RuleSet) Clone() RuleSet {
	out := make(RuleSet, len(s))
	for r := range s {
		out.Add(r)
	}
	return out
}

// Equal reports whether both sets hold the same rules.
func (s RuleSet) Equal(other RuleSet) bool {
	if len(s) != len(other) {
		return false
	}
	for r := range s {
		if !other.Contains(r) {
			return false
		}
	}
	return true
}

// Sorted returns the rules ordered by protocol, then source.
func (s RuleSet) Sorted() []IngressRule {
	out := make([]IngressRule, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	slices.SortFunc(out, compareRules)
	return out
}

// String renders the sorted rules as "[a, b]".
func (s RuleSet) String() string {
	rules := s.Sorted()
	parts := make([]string, len(rules))
	for i, r := range rules {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func compareRules(a, b IngressRule) int {
	return cmp.Or(
		cmp.Compare(a.Protocol.Transport, b.Protocol.Transport),
		cmp.Compare(a.Protocol.Ports.From, b.Protocol.Ports.From),
		cmp.Compare(a.Protocol.Ports.To, b.Protocol.Ports.To),
		a.Source.Addr().Compare(b.Source.Addr()),
		cmp.Compare(a.Source.Bits(), b.Source.Bits()),
	)
}
