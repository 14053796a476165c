// Package accountno validates and normalizes chart-of-accounts numbers such as "1.1.01".
package accountno

import (
	"regexp"
	"strings"
)

var reNumber = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*$`)

// MaxLen is the longest account number accepted.
const MaxLen = 32

// IsValid returns true if s is dot-separated digit groups, e.g. 1.1.01.
func IsValid(s string) bool {
	return len(s) <= MaxLen && reNumber.MatchString(s)
}

// Normalize converts common separators ('-', '/', ' ') to '.', collapses repeats
// and trims leading/trailing separators. The result still needs IsValid.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	out := make([]rune, 0, len(s))
	prevDot := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9':
			out = append(out, r)
			prevDot = false
		case r == '.' || r == '-' || r == '/' || r == ' ':
			if !prevDot {
				out = append(out, '.')
				prevDot = true
			}
		default:
			out = append(out, r)
			prevDot = false
		}
	}
	return strings.Trim(string(out), ".")
}
