package utils

import (
	"fmt"
	"strings"
	"time"
)

// NormalizeFeatures canonicalizes user-entered feature text before it
// is stored: split on commas, trim each item, drop empties, rejoin with
// ", ". "a, ,b,,c " becomes "a, b, c".
func NormalizeFeatures(raw string) string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return strings.Join(items, ", ")
}

// SanitizeFileName lowercases a file name and maps everything outside
// [a-z0-9.] to an underscore.
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// StoredFileName derives the bucket path for an upload: the upload
// instant in unix milliseconds, an underscore, then the sanitized
// original name. The timestamp prefix makes collisions with earlier
// uploads of the same file practically impossible.
func StoredFileName(t time.Time, original string) string {
	return fmt.Sprintf("%d_%s", t.UnixMilli(), SanitizeFileName(original))
}
