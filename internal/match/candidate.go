package match

import (
	"sort"

	"depara/internal/record"
)

// Ranking and selection defaults.
const (
	// DefaultTopN is the number of ranked candidates kept per source record.
	DefaultTopN = 7
	// DefaultThreshold is the minimum composite score of an acceptable match.
	DefaultThreshold = 0.8
	// DefaultAmbiguityGap is the score difference under which the top two
	// candidates are considered ambiguous.
	DefaultAmbiguityGap = 0.05
)

// ScoredCandidate is a candidate record with its composite score and the
// per-field breakdown that produced it. The record fields are inlined when
// encoded as JSON.
type ScoredCandidate struct {
	record.Record

	// Score is the weighted sum of Details, in [0,1].
	Score   float64             `json:"score"`
	Details FieldScoreBreakdown `json:"details"`
}

// Score computes the ScoredCandidate for a single (source, candidate) pair.
func Score(src, cand record.Record, w WeightVector) ScoredCandidate {
	details := ScoreFields(src, cand)

	return ScoredCandidate{
		Record:  cand,
		Score:   w.Combine(details),
		Details: details,
	}
}

// CandidateList is a list of candidates with ranking functionality.
type CandidateList []ScoredCandidate

// MatchResult is the ranked candidate list of one source record.
type MatchResult struct {
	Source     record.Record `json:"de"`
	Candidates CandidateList `json:"candidates"`
}

// Rank scores src against every record in pool and returns the best limit
// candidates sorted by score (descending). Candidates with equal scores keep
// their relative order from pool. A limit <= 0 means DefaultTopN.
// An empty pool yields an empty list.
func Rank(src record.Record, pool []record.Record, w WeightVector, limit int) CandidateList {
	if limit <= 0 {
		limit = DefaultTopN
	}

	candidates := make(CandidateList, 0, len(pool))
	for i := range pool {
		candidates = append(candidates, Score(src, pool[i], w))
	}

	// Stable: ties stay in pool order
	sort.Stable(candidates)

	return candidates.Top(limit)
}

// Match ranks src against pool and wraps the result.
func Match(src record.Record, pool []record.Record, w WeightVector, limit int) MatchResult {
	return MatchResult{
		Source:     src,
		Candidates: Rank(src, pool, w, limit),
	}
}

// Len implements sort.Interface.
func (c CandidateList) Len() int { return len(c) }

// Swap implements sort.Interface.
func (c CandidateList) Swap(i, j int) { c[i], c[j] = c[j], c[i] }

// Less implements sort.Interface.
// Higher score comes first; equal scores are left to the stable sort.
func (c CandidateList) Less(i, j int) bool {
	return c[i].Score > c[j].Score
}

// Top returns the top n candidates.
func (c CandidateList) Top(n int) CandidateList {
	if n < 0 {
		n = 0
	}

	if n >= len(c) {
		return c
	}

	return c[:n]
}

// Best returns the best candidate, or nil if no candidates.
func (c CandidateList) Best() *ScoredCandidate {
	if len(c) == 0 {
		return nil
	}

	best := c[0]

	return &best
}

// IsAmbiguous returns true if the top two candidates are within gap of each other.
func (c CandidateList) IsAmbiguous(gap float64) bool {
	if len(c) < 2 {
		return false
	}

	diff := c[0].Score - c[1].Score

	return diff < gap
}

// Clone returns a copy of the list that shares no backing array with c.
func (c CandidateList) Clone() CandidateList {
	if c == nil {
		return nil
	}

	out := make(CandidateList, len(c))
	copy(out, c)

	return out
}
