package errors

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "bastion", false},
		{"valid with dash", "web-sg", false},
		{"valid with spaces", "my dev box", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 300), true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidName) {
				t.Errorf("ValidateName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidName)
			}
		})
	}
}

func TestValidateInstanceType(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"t2.nano", false},
		{"m3.medium", false},
		{"c5.large", false},
		{"m7g.metal-48xl", false},

		{"", true},
		{"large", true},
		{"T2.NANO", true},
		{"t2.", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateInstanceType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateInstanceType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFQDN(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"example.com", false},
		{"inst.sub.example.com", false},
		{"example.com.", false},
		{"_acme-challenge.example.com", false},

		{"", true},
		{".", true},
		{"foo..bar", true},
		{"-bad.example.com", true},
		{strings.Repeat("a", 64) + ".com", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateFQDN(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFQDN(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"https://checkip.amazonaws.com/", false},
		{"http://127.0.0.1:8080", false},

		{"", true},
		{"ftp://example.com", true},
		{"https://", true},
		{"checkip.amazonaws.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
