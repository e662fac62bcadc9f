package match

import (
	"testing"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a        string
		b        string
		expected int
	}{
		// Identical strings
		{"", "", 0},
		{"a", "a", 0},
		{"hello", "hello", 0},

		// Empty vs non-empty
		{"", "abc", 3},
		{"abc", "", 3},

		// Single character operations
		{"a", "b", 1},    // substitution
		{"a", "ab", 1},   // insertion
		{"ab", "a", 1},   // deletion
		{"abc", "ab", 1}, // deletion
		{"ab", "abc", 1}, // insertion

		// Multiple operations
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"algorithm", "altruistic", 6},

		// Case-sensitive
		{"ABC", "abc", 3},

		// Multi-byte characters count once
		{"calça", "calca", 1},
		{"ação", "acao", 2},

		// Real-world slugs
		{"produtos/camisa", "produtos/camisa-azul", 5},
		{"sobre", "sobre-nos", 4},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			result := Levenshtein(tt.a, tt.b)
			if result != tt.expected {
				t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, result, tt.expected)
			}

			// Verify symmetry
			resultReverse := Levenshtein(tt.b, tt.a)
			if result != resultReverse {
				t.Errorf("Levenshtein symmetry failed: (%q, %q) = %d, (%q, %q) = %d",
					tt.a, tt.b, result, tt.b, tt.a, resultReverse)
			}
		})
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a        string
		b        string
		expected float64
	}{
		// Identical strings
		{"", "", 1.0},
		{"hello", "hello", 1.0},

		// Case-folded
		{"Camisa Azul", "camisa azul", 1.0},
		{"ÇÃO", "ção", 1.0},

		// Completely different
		{"abc", "xyz", 0.0},
		{"", "abc", 0.0},
		{"abc", "", 0.0},

		// Partial matches
		{"kitten", "sitting", 1.0 - 3.0/7.0}, // ~0.571
		{"abc", "ab", 1.0 - 1.0/3.0},         // ~0.667
		{"calça", "calca", 1.0 - 1.0/5.0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			result := Similarity(tt.a, tt.b)
			// Allow small floating point tolerance
			if diff := result - tt.expected; diff < -0.001 || diff > 0.001 {
				t.Errorf("Similarity(%q, %q) = %f, want %f", tt.a, tt.b, result, tt.expected)
			}
		})
	}
}

func TestSimilarity_Properties(t *testing.T) {
	samples := []string{
		"", "a", "A", "abc", "produtos/camisa", "produtos/camisa-azul",
		"Camisa Azul", "Sobre nós", "kitten", "sitting", "calça jeans",
		"https://shop.com/x?y=z", "  spaces  ", "日本語",
	}

	for _, a := range samples {
		if got := Similarity(a, a); got != 1.0 {
			t.Errorf("Similarity(%q, %q) = %f, want 1", a, a, got)
		}

		for _, b := range samples {
			ab := Similarity(a, b)
			ba := Similarity(b, a)

			if ab != ba {
				t.Errorf("Similarity symmetry failed: (%q, %q) = %f, reverse = %f", a, b, ab, ba)
			}

			if ab < 0 || ab > 1 {
				t.Errorf("Similarity(%q, %q) = %f, out of [0,1]", a, b, ab)
			}
		}
	}
}

type label struct{ s string }

func (l label) String() string { return l.s }

func TestSimilarityOf(t *testing.T) {
	var nilStr *string

	s := "abc"

	tests := []struct {
		name     string
		a        any
		b        any
		expected float64
	}{
		{"nil both", nil, nil, 1.0},
		{"nil vs empty", nil, "", 1.0},
		{"nil vs text", nil, "abc", 0.0},
		{"nil pointer", nilStr, "", 1.0},
		{"string pointer", &s, "ABC", 1.0},
		{"number", 123, "123", 1.0},
		{"float", 1.5, "1.5", 1.0},
		{"stringer", label{"Camisa"}, "camisa", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SimilarityOf(tt.a, tt.b); got != tt.expected {
				t.Errorf("SimilarityOf(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

// Benchmark tests
func BenchmarkLevenshtein(b *testing.B) {
	a := "produtos/camisa-polo-masculina"
	bStr := "loja/produtos/camisa-masculina-polo"
	for i := 0; i < b.N; i++ {
		Levenshtein(a, bStr)
	}
}

func BenchmarkSimilarity(b *testing.B) {
	a := "Camisa Polo Masculina Azul Marinho"
	bStr := "camisa polo masc. azul-marinho"
	for i := 0; i < b.N; i++ {
		Similarity(a, bStr)
	}
}
