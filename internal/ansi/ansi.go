// Package ansi strips terminal escape sequences from text that leaves the
// terminal, such as webhook payloads and log fields.
package ansi

import "strings"

// Strip removes ANSI escape sequences from a string.
func Strip(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	inEscape := false

	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			continue
		}

		if inEscape {
			// An escape sequence ends at the first alphabetic rune.
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}

			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}
