package junit

import (
	"strings"
	"unicode/utf8"
)

// xmlSafe replaces every rune outside the XML 1.0 Char production with
// U+FFFD. encoding/xml does this for attributes but writes CDATA verbatim.
func xmlSafe(s string) string {
	if isXMLSafe(s) {
		return s
	}

	return strings.Map(func(r rune) rune {
		if isXMLChar(r) {
			return r
		}

		return utf8.RuneError
	}, s)
}

func isXMLSafe(s string) bool {
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				return false
			}
		}

		if !isXMLChar(r) {
			return false
		}
	}

	return true
}

// isXMLChar reports whether r is a legal XML 1.0 character.
func isXMLChar(r rune) bool {
	switch {
	case r == 0x09, r == 0x0A, r == 0x0D:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}

	return false
}
