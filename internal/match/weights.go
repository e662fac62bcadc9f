package match

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// WeightVector holds the relative importance of each compared field, indexed
// by Field. A normalized vector has non-negative entries summing to 1.
type WeightVector [FieldTotal]float64

// DefaultWeights returns the fallback weight distribution:
// slug 0.40, title 0.25, description 0.20, H1 0.15.
func DefaultWeights() WeightVector {
	return WeightVector{0.4, 0.25, 0.2, 0.15}
}

// NormalizeWeights turns raw per-field weights into a convex combination.
//
// The input is valid when it has exactly four finite, non-negative values
// with a positive sum; each value is then divided by the sum. Any other input
// silently yields DefaultWeights.
func NormalizeWeights(raw []float64) WeightVector {
	w, _ := normalizeWeights(raw)
	return w
}

// ParseWeights parses a comma-separated weight list such as "0.4,0.25,0.2,0.15"
// or "2,1,1,0" and normalizes it. Unparseable input yields DefaultWeights.
func ParseWeights(s string) WeightVector {
	w, _ := parseWeights(s)
	return w
}

// WeightsFrom normalizes weights decoded from a loosely typed source (JSON,
// YAML, form values). ok is false when the default vector was substituted.
func WeightsFrom(v any) (w WeightVector, ok bool) {
	switch raw := v.(type) {
	case WeightVector:
		return normalizeWeights(raw[:])
	case []float64:
		return normalizeWeights(raw)
	case []int:
		vals := make([]float64, len(raw))
		for i, n := range raw {
			vals[i] = float64(n)
		}

		return normalizeWeights(vals)
	case []any:
		vals := make([]float64, len(raw))
		for i, item := range raw {
			vals[i] = toFloat(item)
		}

		return normalizeWeights(vals)
	case string:
		return parseWeights(raw)
	default:
		return DefaultWeights(), false
	}
}

func parseWeights(s string) (WeightVector, bool) {
	parts := strings.Split(s, ",")
	vals := make([]float64, len(parts))

	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			f = math.NaN()
		}

		vals[i] = f
	}

	return normalizeWeights(vals)
}

func normalizeWeights(raw []float64) (WeightVector, bool) {
	if len(raw) != int(FieldTotal) {
		return DefaultWeights(), false
	}

	var sum float64

	for _, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return DefaultWeights(), false
		}

		sum += v
	}

	if sum <= 0 || math.IsInf(sum, 0) {
		return DefaultWeights(), false
	}

	var w WeightVector
	for i, v := range raw {
		w[i] = v / sum
	}

	return w, true
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case uint:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return math.NaN()
		}

		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return math.NaN()
		}

		return f
	default:
		return math.NaN()
	}
}

// Get returns the weight of a single field.
func (w WeightVector) Get(f Field) float64 {
	if f < 0 || int(f) >= len(w) {
		return 0
	}

	return w[f]
}

// Sum returns the total of all weights.
func (w WeightVector) Sum() float64 {
	var s float64
	for _, v := range w {
		s += v
	}

	return s
}

// Combine computes the composite score of a breakdown:
// wSlug*slug + wTitle*title + wDesc*description + wH1*h1, clamped to [0,1].
func (w WeightVector) Combine(b FieldScoreBreakdown) float64 {
	var score float64
	for f := range Field(FieldTotal) {
		score += w[f] * b.Get(f)
	}

	return min(max(score, 0), 1)
}

// String formats the vector the way ParseWeights reads it.
func (w WeightVector) String() string {
	parts := make([]string, len(w))
	for i, v := range w {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}

	return strings.Join(parts, ",")
}

// Format renders the vector with a field label per weight, e.g.
// "Slug=0.40 Title=0.25 Description=0.20 H1=0.15".
func (w WeightVector) Format() string {
	parts := make([]string, len(w))
	for i, v := range w {
		parts[i] = fmt.Sprintf("%s=%.2f", Field(i), v)
	}

	return strings.Join(parts, " ")
}
