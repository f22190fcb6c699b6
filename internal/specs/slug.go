package specs

import (
	"strings"

	"github.com/google/uuid"
)

const slugSeparator = '_'

// Slugify lowercases s and collapses every run of characters outside
// [a-z0-9] into a single underscore, trimming leading and trailing ones.
func Slugify(s string) string {
	var b strings.Builder
	pending := false

	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteRune(slugSeparator)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

// DeriveSlug slugifies name and appends a collision-breaking suffix.
func DeriveSlug(name, suffix string) string {
	base := Slugify(name)
	if base == "" {
		base = "agent"
	}
	if suffix == "" {
		return base
	}
	return base + string(slugSeparator) + suffix
}

// RandomSuffix returns six hex characters from a random UUID.
func RandomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}
