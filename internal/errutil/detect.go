// Package errutil classifies session errors into fault domains so the
// CLI can point at the likely cause: transport, name resolution, the
// Device Setup Service itself, or the device identity.
package errutil

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Category is the fault domain of an error.
type Category int

const (
	// CategoryUnknown is an unclassified error.
	CategoryUnknown Category = iota
	// CategoryTimeout is an elapsed deadline.
	CategoryTimeout
	// CategoryDNS is a name-resolution failure.
	CategoryDNS
	// CategoryNetwork is a connectivity failure.
	CategoryNetwork
	// CategoryAuth is a rejected identity or signature.
	CategoryAuth
	// CategoryDSS is a Device Setup Service response-level error.
	CategoryDSS
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTimeout:
		return "timeout"
	case CategoryDNS:
		return "dns"
	case CategoryNetwork:
		return "network"
	case CategoryAuth:
		return "auth"
	case CategoryDSS:
		return "dss"
	default:
		return "unknown"
	}
}

// matchers pair each category with the message fragments that indicate
// it, checked most specific first. Fragment matching is a fallback for
// errors whose type information was flattened by %v formatting along
// the way; structured checks run before the table.
var matchers = []struct {
	category  Category
	fragments []string
}{
	{CategoryTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{CategoryDNS, []string{"no such host", "server misbehaving"}},
	{CategoryNetwork, []string{"connection refused", "connection reset", "no route to host", "network is unreachable", "dial tcp"}},
	{CategoryAuth, []string{"signature", "unauthorized", "forbidden", "authentication", "401", "403"}},
	{CategoryDSS, []string{"dss", "provisioning session", "canproceed"}},
}

// Categorize maps an error to its fault domain.
func Categorize(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CategoryDNS
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return CategoryTimeout
		}
		return CategoryNetwork
	}

	msg := strings.ToLower(err.Error())
	for _, m := range matchers {
		for _, fragment := range m.fragments {
			if strings.Contains(msg, fragment) {
				return m.category
			}
		}
	}
	return CategoryUnknown
}
