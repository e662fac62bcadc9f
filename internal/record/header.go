package record

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeHeader folds a column header for alias matching: Unicode NFKC
// (full-width letters become ASCII), separators removed, lower case.
//
// Examples:
//   - "Meta Title" -> "metatitle"
//   - "meta_description" -> "metadescription"
//   - "MetaTitle" -> "metatitle"
//   - "H1" -> "h1"
func NormalizeHeader(s string) string {
	s = norm.NFKC.String(strings.TrimSpace(s))

	return strings.Map(func(r rune) rune {
		if isSeparator(r) {
			return -1
		}

		return unicode.ToLower(r)
	}, s)
}

// isSeparator returns true if the rune separates header words.
func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
}
