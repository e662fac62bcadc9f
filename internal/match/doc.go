// Package match provides the DE -> PARA matching core: Levenshtein-based
// string similarity, weight normalization, per-field scoring, candidate
// ranking, best-match selection and run-level aggregation.
//
// Key functions:
//   - Similarity: case-folded normalized edit-distance similarity in [0,1]
//   - NormalizeWeights / ParseWeights / WeightsFrom: build a WeightVector
//   - ScoreFields: compare slug, title, description and H1 of two records
//   - Rank: score a source against a candidate pool, keep the top N
//   - Select: pick the best candidate and flag it against a threshold
//   - Summarize: corpus-level match rate and average score
//
// Everything in this package is pure and synchronous. Callers may run Rank
// and Select for different source records concurrently as long as the
// candidate pool is not modified.
package match
