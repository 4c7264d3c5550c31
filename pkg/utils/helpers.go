package utils

import (
	"strings"
	"time"
)

// ParseDuration parses a duration string like "30m", returning fallback when
// the string is empty or malformed.
func ParseDuration(d string, fallback time.Duration) time.Duration {
	d = strings.TrimSpace(d)
	if d == "" {
		return fallback
	}
	duration, err := time.ParseDuration(d)
	if err != nil {
		return fallback
	}
	return duration
}

// Redact keeps the last four characters of a secret-ish value for logs.
func Redact(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
