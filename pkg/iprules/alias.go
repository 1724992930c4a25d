package iprules

import (
	"maps"
	"slices"
)

// Aliases maps service names to the protocol they stand for.
type Aliases map[string]Protocol

// DefaultAliases returns a fresh copy of the built-in alias table.
func DefaultAliases() Aliases {
	return Aliases{
		"ssh":   TCPPorts(22, 22),
		"mosh":  UDPPorts(60000, 61000),
		"http":  TCPPorts(80, 80),
		"https": TCPPorts(443, 443),
	}
}

// With returns a copy of a extended by extra. Entries in extra win.
func (a Aliases) With(extra Aliases) Aliases {
	out := make(Aliases, len(a)+len(extra))
	maps.Copy(out, a)
	maps.Copy(out, extra)
	return out
}

// Names returns the alias names in sorted order.
func (a Aliases) Names() []string {
	return slices.Sorted(maps.Keys(a))
}

// Expand resolves s to a protocol. substituted reports whether s was an alias
// rather than a literal protocol.
func (a Aliases) Expand(s string) (p Protocol, substituted bool, err error) {
	if p, ok := a[s]; ok {
		return p, true, nil
	}
	p, err = ParseProtocol(s)
	return p, false, err
}
