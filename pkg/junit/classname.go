package junit

import (
	"strings"
	"unicode"
)

// ClassName converts s into a compact identifier: camel-cased words with
// non-word characters removed and the first letter upper-cased.
// "My API!!" becomes "MyApi".
func ClassName(s string) string {
	var b strings.Builder

	for i, word := range splitWords(s) {
		lower := strings.ToLower(word)
		if i > 0 {
			lower = upperFirst(lower)
		}

		b.WriteString(lower)
	}

	return upperFirst(stripNonWord(b.String()))
}

// splitWords breaks s on non-alphanumeric runes, lower-to-upper case
// changes, acronym boundaries ("APIKey" -> "API", "Key") and letter/digit
// changes.
func splitWords(s string) []string {
	runes := []rune(s)

	var (
		words   []string
		current []rune
	)

	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()

			continue
		}

		if len(current) > 0 {
			prev := current[len(current)-1]

			switch {
			case unicode.IsDigit(prev) != unicode.IsDigit(r):
				flush()
			case unicode.IsLower(prev) && unicode.IsUpper(r):
				flush()
			case unicode.IsUpper(prev) && unicode.IsUpper(r) &&
				i+1 < len(runes) && unicode.IsLower(runes[i+1]):
				flush()
			}
		}

		current = append(current, r)
	}

	flush()

	return words
}

// stripNonWord keeps only ASCII letters, digits and underscores.
func stripNonWord(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return -1
		}
	}, s)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}

	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])

	return string(r)
}
