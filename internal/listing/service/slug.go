package service

import (
	"strconv"
	"strings"
	"unicode"
)

// Slugify derives a URL-safe handle from a listing title: lowercase, anything
// outside ASCII [a-z0-9] dropped, runs of whitespace collapsed to single
// hyphens. Very short results get a "-kos" suffix so the handle stays
// recognizable.
func Slugify(title string) string {
	lowered := strings.ToLower(strings.TrimSpace(title))

	var b strings.Builder
	b.Grow(len(lowered))
	lastHyphen := false
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case unicode.IsSpace(r) || r == '-':
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if len(slug) < 3 {
		slug += "-kos"
	}
	return slug
}

// slugCandidate returns the nth probe for a contested base slug. Attempt 0
// is the base itself; later attempts append a numeric suffix.
func slugCandidate(base string, attempt int) string {
	if attempt == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(attempt)
}
