package iprules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/drawbridge/pkg/errors"
)

// PortRange is an inclusive range of ports. A single port has From == To.
type PortRange struct {
	From uint16
	To   uint16
}

// SinglePort returns the range containing only port.
func SinglePort(port uint16) PortRange {
	return PortRange{From: port, To: port}
}

// String renders "N" for a single port and "A-B" otherwise.
func (r PortRange) String() string {
	if r.From == r.To {
		return strconv.Itoa(int(r.From))
	}
	return fmt.Sprintf("%d-%d", r.From, r.To)
}

// ParsePortRange parses "N" or "A-B". A range whose start exceeds its end is rejected.
func ParsePortRange(s string) (PortRange, error) {
	parts := strings.Split(s, "-")
	if len(parts) > 2 {
		return PortRange{}, errors.New(errors.ErrCodeInvalidProtocol, "invalid IP port range: %s", s)
	}
	ports := make([]uint16, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return PortRange{}, errors.New(errors.ErrCodeInvalidProtocol, "invalid IP port range: %s", s)
		}
		ports[i] = uint16(n)
	}
	r := PortRange{From: ports[0], To: ports[len(ports)-1]}
	if r.From > r.To {
		return PortRange{}, errors.New(errors.ErrCodeInvalidProtocol, "invalid IP port range: %s", s)
	}
	return r, nil
}

// Transport is the layer-4 protocol a rule admits.
type Transport string

const (
	TCP Transport = "tcp"
	UDP Transport = "udp"
)

// ParseTransport accepts "tcp" or "udp".
func ParseTransport(s string) (Transport, error) {
	switch t := Transport(s); t {
	case TCP, UDP:
		return t, nil
	}
	return "", errors.New(errors.ErrCodeInvalidProtocol, "unknown protocol: %s", s)
}

// Protocol is a transport together with the ports it is admitted on.
type Protocol struct {
	Transport Transport
	Ports     PortRange
}

// TCPPorts returns a tcp protocol over the given range.
func TCPPorts(from, to uint16) Protocol {
	return Protocol{Transport: TCP, Ports: PortRange{From: from, To: to}}
}

// UDPPorts returns a udp protocol over the given range.
func UDPPorts(from, to uint16) Protocol {
	return Protocol{Transport: UDP, Ports: PortRange{From: from, To: to}}
}

// String renders "<ports>/<transport>", e.g. "22/tcp".
func (p Protocol) String() string {
	return p.Ports.String() + "/" + string(p.Transport)
}

// ParseProtocol parses "<ports>/<transport>".
func ParseProtocol(s string) (Protocol, error) {
	ports, transport, ok := strings.Cut(s, "/")
	if !ok || strings.Contains(transport, "/") {
		return Protocol{}, errors.New(errors.ErrCodeInvalidProtocol, "not a protocol: %s", s)
	}
	t, err := ParseTransport(transport)
	if err != nil {
		return Protocol{}, errors.Wrap(errors.ErrCodeInvalidProtocol, err, "not a protocol: %s", s)
	}
	r, err := ParsePortRange(ports)
	if err != nil {
		return Protocol{}, errors.Wrap(errors.ErrCodeInvalidProtocol, err, "not a protocol: %s", s)
	}
	return Protocol{Transport: t, Ports: r}, nil
}

// MarshalText implements encoding.TextMarshaler.
func (p Protocol) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Protocol) UnmarshalText(text []byte) error {
	v, err := ParseProtocol(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
