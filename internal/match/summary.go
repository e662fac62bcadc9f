package match

// RunSummary aggregates the selections of one processing run.
type RunSummary struct {
	Total               int     `json:"total"`
	AboveThresholdCount int     `json:"aboveThresholdCount"`
	AnyMatchCount       int     `json:"anyMatchCount"`
	AboveThresholdRate  float64 `json:"aboveThresholdRate"`
	AnyMatchRate        float64 `json:"anyMatchRate"`
	AverageScore        float64 `json:"averageScore"`
	Threshold           float64 `json:"threshold"`
}

// Summarize computes counts and rates over all selections.
//
// The average score is taken over every selection; a selection without a
// candidate contributes 0. With no selections all rates are 0.
func Summarize(selections []Selection, threshold float64) RunSummary {
	s := RunSummary{
		Total:     len(selections),
		Threshold: threshold,
	}

	var scoreSum float64

	for i := range selections {
		sel := &selections[i]
		if sel.AboveThreshold {
			s.AboveThresholdCount++
		}

		if sel.HasMatch() {
			s.AnyMatchCount++
		}

		scoreSum += sel.Score()
	}

	if s.Total == 0 {
		return s
	}

	total := float64(s.Total)
	s.AboveThresholdRate = float64(s.AboveThresholdCount) / total
	s.AnyMatchRate = float64(s.AnyMatchCount) / total
	s.AverageScore = scoreSum / total

	return s
}
