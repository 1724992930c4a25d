package iprules

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAliasesExpand(t *testing.T) {
	a := DefaultAliases()

	tests := []struct {
		in          string
		want        Protocol
		substituted bool
	}{
		{"ssh", TCPPorts(22, 22), true},
		{"mosh", UDPPorts(60000, 61000), true},
		{"http", TCPPorts(80, 80), true},
		{"https", TCPPorts(443, 443), true},
		{"8080/tcp", TCPPorts(8080, 8080), false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, sub, err := a.Expand(tt.in)
			if err != nil {
				t.Fatalf("Expand(%q) error: %v", tt.in, err)
			}
			if got != tt.want || sub != tt.substituted {
				t.Errorf("Expand(%q) = %v, %v; want %v, %v", tt.in, got, sub, tt.want, tt.substituted)
			}
		})
	}

	if _, _, err := a.Expand("postgres"); err == nil {
		t.Error("Expand of unknown alias should fail")
	}
}

func TestAliasesWith(t *testing.T) {
	base := DefaultAliases()
	ext := base.With(Aliases{
		"postgres": TCPPorts(5432, 5432),
		"ssh":      TCPPorts(2222, 2222),
	})

	if got := ext["ssh"]; got != TCPPorts(2222, 2222) {
		t.Errorf("override ssh = %v", got)
	}
	if got := base["ssh"]; got != TCPPorts(22, 22) {
		t.Errorf("base table mutated: ssh = %v", got)
	}

	want := []string{"http", "https", "mosh", "postgres", "ssh"}
	if diff := cmp.Diff(want, ext.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}
