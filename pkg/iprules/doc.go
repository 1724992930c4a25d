// Package iprules defines the vocabulary of firewall ingress rules.
//
// A rule admits one transport protocol over a port range from one source
// network:
//
//	22/tcp -> 192.0.2.0/24
//	60000-61000/udp -> 2001:db8::/32
//
// Every type has a canonical text form, and parsing a value's text form yields
// the same value again. [IngressRule] is comparable, so sets of rules are plain
// maps ([RuleSet]) and reconciling a firewall is two set differences.
//
// # Aliases
//
// Well-known services can be named instead of spelled out:
//
//	ssh   -> 22/tcp
//	mosh  -> 60000-61000/udp
//	http  -> 80/tcp
//	https -> 443/tcp
//
// [Aliases] holds the table; [DefaultAliases] returns the built-in entries,
// which configuration may extend or override.
package iprules
