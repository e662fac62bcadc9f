package match

import (
	"math"

	"depara/internal/record"
)

// Selection is the chosen PARA candidate for one DE record.
//
// Best is the top-ranked candidate whether or not it clears the threshold;
// AboveThreshold tells the two cases apart. Best is nil only when the
// candidate pool was empty.
type Selection struct {
	Source         record.Record    `json:"de"`
	Best           *ScoredCandidate `json:"best"`
	AboveThreshold bool             `json:"aboveThreshold"`
}

// Select picks the best candidate of an already ranked list and compares its
// score against threshold.
func Select(src record.Record, ranked CandidateList, threshold float64) Selection {
	sel := Selection{Source: src}

	best := ranked.Best()
	if best == nil {
		return sel
	}

	sel.Best = best
	sel.AboveThreshold = best.Score >= threshold

	return sel
}

// HasMatch reports whether a candidate was available.
func (s Selection) HasMatch() bool {
	return s.Best != nil
}

// Score returns the best candidate's score, or 0 when there is none.
func (s Selection) Score() float64 {
	if s.Best == nil {
		return 0
	}

	return s.Best.Score
}

// URL returns the best candidate's URL, or fallback when there is none.
func (s Selection) URL(fallback string) string {
	if s.Best == nil {
		return fallback
	}

	return s.Best.URL
}

// NormalizeThreshold clamps t into [0,1]. NaN yields DefaultThreshold.
// ok is false when t had to be changed.
func NormalizeThreshold(t float64) (threshold float64, ok bool) {
	switch {
	case math.IsNaN(t):
		return DefaultThreshold, false
	case t < 0:
		return 0, false
	case t > 1:
		return 1, false
	default:
		return t, true
	}
}
