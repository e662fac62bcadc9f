package record

import "testing"

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"url", "url"},
		{"URL", "url"},
		{"meta_title", "metatitle"},
		{"Meta Title", "metatitle"},
		{"MetaTitle", "metatitle"},
		{"meta-description", "metadescription"},
		{"  H1 ", "h1"},
		{"META__Title", "metatitle"},
		{"meta.description", "metadescription"},
		{"Título\tMeta", "títulometa"},
		{"ＵＲＬ", "url"}, // full-width
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeHeader(tt.in); got != tt.expected {
				t.Errorf("NormalizeHeader(%q) = %q, want %q", tt.in, got, tt.expected)
			}
		})
	}
}
