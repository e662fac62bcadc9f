// Package diagnostic collects structured warnings and notes about input
// quality during a matching run.
//
// Key capabilities:
//   - Weight vectors that fell back to the default distribution
//   - Rows without a URL and duplicate URLs
//   - Pages the crawler could not fetch
//   - Ambiguous best matches (top two candidates nearly tied)
//
// None of these stop a run; they are reported next to the results.
package diagnostic
