// Package normalize turns free text into canonical attendee identifiers and phone numbers.
// Both normalizers are total: every input maps to some string.
package normalize

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// AttendeeID returns the canonical form of a name or a previously issued identifier.
// Percent-encoded input is decoded first; undecodable input is kept as is.
func AttendeeID(raw string) string {
	return strings.ToUpper(CollapseSpaces(unescape(raw)))
}

// unescape decodes until no escape is left so that AttendeeID stays idempotent
// for doubly encoded input such as "%2541". A decode yielding invalid UTF-8
// counts as a failure.
func unescape(value string) string {
	for strings.Contains(value, "%") {
		decoded, err := url.PathUnescape(value)
		if err != nil || decoded == value || !utf8.ValidString(decoded) {
			break
		}
		value = decoded
	}
	return value
}

// CollapseSpaces trims s and folds every whitespace run into a single space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Digits keeps only the decimal digits of s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HasDigit reports whether s contains at least one decimal digit.
func HasDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}
