package utils

import (
	"net/url"
	"strings"
)

// ValidateURL validates that a URL has a valid scheme and host
func ValidateURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	if parsed.Host == "" {
		return false
	}

	return true
}

// SameBaseURL reports whether two base URLs are equal once a trailing slash
// is ignored. Scheme and host compare case-insensitively.
func SameBaseURL(a, b string) bool {
	a, b = strings.TrimSuffix(a, "/"), strings.TrimSuffix(b, "/")
	if a == "" || b == "" {
		return false
	}
	pa, errA := url.Parse(a)
	pb, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return strings.EqualFold(pa.Scheme, pb.Scheme) &&
		strings.EqualFold(pa.Host, pb.Host) &&
		pa.Path == pb.Path && pa.RawQuery == pb.RawQuery
}
