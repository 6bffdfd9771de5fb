// ===== pkg/utils/encoding.go =====
package utils

import (
	"strings"
)

const upperhex = "0123456789ABCDEF"

// FormEncode percent-encodes s as an application/x-www-form-urlencoded value.
// Unlike url.QueryEscape it keeps '*' literal and escapes '~', which is what
// the portal's own login page sends.
func FormEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
			b.WriteByte(c)
		case c == '.' || c == '-' || c == '*' || c == '_':
			b.WriteByte(c)
		case c == ' ':
			b.WriteByte('+')
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
		}
	}
	return b.String()
}

// FlattenLine keeps the first max runes of s and turns newlines into spaces
func FlattenLine(s string, max int) string {
	if r := []rune(s); len(r) > max {
		s = string(r[:max])
	}
	return strings.ReplaceAll(s, "\n", " ")
}

// FirstLine returns s up to the first newline
func FirstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
