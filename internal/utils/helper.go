package utils

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F-\x9F]`)

// StripControlChars removes characters that corrupt spreadsheet cells. Tabs and
// newlines are kept.
func StripControlChars(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ShortID returns n lowercase hex characters of a random UUID.
func ShortID(n int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(id) {
		n = len(id)
	}
	return id[:n]
}
