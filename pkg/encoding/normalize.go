package encoding

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName converts station names and search text to NFC and trims surrounding space.
// The transit directory answers "Köln" typed with a combining diaeresis differently than
// the precomposed form, so both have to end up identical before they are sent or cached.
func NormalizeName(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// CacheKey folds a search text into the key used by the station cache
func CacheKey(s string) string {
	return strings.ToLower(NormalizeName(s))
}
