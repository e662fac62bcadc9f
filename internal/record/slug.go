package record

import (
	"net/url"
	"strings"
)

// SlugFromURL derives a slug from a URL.
//
// For an absolute URL the slug is its (decoded) path without the leading and
// trailing slash: "https://shop.com/produtos/camisa/" -> "produtos/camisa".
// Anything that does not parse as an absolute URL falls back to its last
// non-empty "/" segment, or to the input itself when there is none.
func SlugFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && (u.Host != "" || u.Opaque == "") {
		p := strings.TrimPrefix(u.Path, "/")

		return strings.TrimSuffix(p, "/")
	}

	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == '/' })
	if len(parts) == 0 {
		return raw
	}

	return parts[len(parts)-1]
}
