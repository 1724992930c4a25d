package iprules

import (
	"testing"

	"github.com/matzehuels/drawbridge/pkg/errors"
)

func TestPortRangeDisplayAndParse(t *testing.T) {
	tests := []struct {
		r PortRange
		s string
	}{
		{PortRange{1, 1}, "1"},
		{PortRange{1, 10}, "1-10"},
		{PortRange{1, 65535}, "1-65535"},
		{PortRange{0, 0}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			if got := tt.r.String(); got != tt.s {
				t.Errorf("String() = %q, want %q", got, tt.s)
			}
			got, err := ParsePortRange(tt.s)
			if err != nil {
				t.Fatalf("ParsePortRange(%q) error: %v", tt.s, err)
			}
			if got != tt.r {
				t.Errorf("ParsePortRange(%q) = %v, want %v", tt.s, got, tt.r)
			}
		})
	}
}

func TestParsePortRangeInvalid(t *testing.T) {
	for _, s := range []string{"", "-", "1-", "-1", "a", "1-2-3", "65536", "10-1", "1 - 2"} {
		t.Run(s, func(t *testing.T) {
			_, err := ParsePortRange(s)
			if err == nil {
				t.Fatalf("ParsePortRange(%q) should fail", s)
			}
			if !errors.Is(err, errors.ErrCodeInvalidProtocol) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidProtocol)
			}
		})
	}
}

func TestProtocolDisplayAndParse(t *testing.T) {
	tests := []struct {
		p Protocol
		s string
	}{
		{TCPPorts(1, 1), "1/tcp"},
		{TCPPorts(1, 10), "1-10/tcp"},
		{TCPPorts(1, 65535), "1-65535/tcp"},
		{UDPPorts(1, 1), "1/udp"},
		{UDPPorts(1, 10), "1-10/udp"},
		{UDPPorts(1, 65535), "1-65535/udp"},
	}

	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			if got := tt.p.String(); got != tt.s {
				t.Errorf("String() = %q, want %q", got, tt.s)
			}
			got, err := ParseProtocol(tt.s)
			if err != nil {
				t.Fatalf("ParseProtocol(%q) error: %v", tt.s, err)
			}
			if got != tt.p {
				t.Errorf("ParseProtocol(%q) = %v, want %v", tt.s, got, tt.p)
			}
		})
	}
}

func TestParseProtocolInvalid(t *testing.T) {
	for _, s := range []string{"", "22", "tcp", "22/", "/tcp", "22/icmp", "22/tcp/udp", "x/tcp", "22/TCP"} {
		t.Run(s, func(t *testing.T) {
			if _, err := ParseProtocol(s); err == nil {
				t.Errorf("ParseProtocol(%q) should fail", s)
			}
		})
	}
}

func TestProtocolText(t *testing.T) {
	var p Protocol
	if err := p.UnmarshalText([]byte("5432/tcp")); err != nil {
		t.Fatalf("UnmarshalText error: %v", err)
	}
	if p != TCPPorts(5432, 5432) {
		t.Errorf("UnmarshalText = %v", p)
	}
	text, _ := p.MarshalText()
	if string(text) != "5432/tcp" {
		t.Errorf("MarshalText = %q", text)
	}
	if err := p.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("UnmarshalText should reject bogus input")
	}
}
