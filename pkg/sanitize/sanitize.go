// Package sanitize converts arbitrary display names into safe filesystem names.
//
// The splitter uses Filename to name the per-recipient documents it writes,
// and the resolver uses it to compute the lookup key for the same documents.
// Both sides sharing one function is what guarantees they agree on naming.
package sanitize

import "strings"

// maxFilenameRunes bounds the sanitized name so it stays well under
// common filesystem name limits even with a suffix appended.
const maxFilenameRunes = 100

// forbidden holds the characters rejected by Windows filesystems; removing
// them keeps output portable everywhere else too.
const forbidden = `<>:"/\|?*`

// Filename returns a filesystem-safe form of s: forbidden characters are
// removed, whitespace runs collapse to a single space, the result is trimmed
// and truncated to 100 runes. Pure and deterministic; never fails.
func Filename(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(forbidden, r) {
			continue
		}
		b.WriteRune(r)
	}

	cleaned := strings.Join(strings.Fields(b.String()), " ")

	runes := []rune(cleaned)
	if len(runes) > maxFilenameRunes {
		return string(runes[:maxFilenameRunes])
	}
	return cleaned
}
