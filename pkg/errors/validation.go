package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// ValidateName validates a firewall or instance name given on the command line.
// Names are matched verbatim against cloud resources, so the rules only reject
// values no cloud resource could carry:
//   - No empty names
//   - No control characters
//   - Maximum length of 255 characters
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "name cannot be empty")
	}

	if len(name) > 255 {
		return New(ErrCodeInvalidName, "name too long (max 255 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "name contains invalid control characters")
		}
	}

	return nil
}

// instanceTypeRegex matches EC2-style instance types such as t3.micro or m7g.metal-48xl.
var instanceTypeRegex = regexp.MustCompile(`^[a-z][a-z0-9-]*\.[a-z0-9-]+$`)

// ValidateInstanceType validates an instance type string.
func ValidateInstanceType(instanceType string) error {
	if instanceType == "" {
		return New(ErrCodeInvalidInstanceType, "instance type cannot be empty")
	}
	if !instanceTypeRegex.MatchString(instanceType) {
		return New(ErrCodeInvalidInstanceType, "not an instance type: %s", instanceType)
	}
	return nil
}

// hostLabelRegex matches a single DNS label (RFC 1123, plus underscore for service labels).
var hostLabelRegex = regexp.MustCompile(`^[A-Za-z0-9_]([A-Za-z0-9_-]{0,61}[A-Za-z0-9_])?$`)

// ValidateFQDN validates a fully qualified domain name. A single trailing dot is allowed.
func ValidateFQDN(fqdn string) error {
	name := strings.TrimSuffix(fqdn, ".")
	if name == "" {
		return New(ErrCodeInvalidInput, "domain name cannot be empty")
	}
	if len(name) > 253 {
		return New(ErrCodeInvalidInput, "domain name too long (max 253 characters): %s", fqdn)
	}
	for _, label := range strings.Split(name, ".") {
		if !hostLabelRegex.MatchString(label) {
			return New(ErrCodeInvalidInput, "invalid domain name: %s", fqdn)
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https) and a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL: %s", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL must have a host")
	}

	return nil
}
