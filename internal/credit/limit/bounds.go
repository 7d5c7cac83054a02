package limit

import "credit-workflow/internal/credit/format"

// Bounds is the displayed limit range built around the AI suggested limit
// once the analysis has run.
type Bounds struct {
	Suggested          float64 `json:"suggested"`
	Conservative       float64 `json:"conservative"`
	Liberal            float64 `json:"liberal"`
	ConservativeFactor float64 `json:"conservativeFactor"`
	LiberalFactor      float64 `json:"liberalFactor"`
}

// ProbabilityBounds applies the default-probability factor pair to the
// suggested limit: 0.5/0.8 when the score is above 0.5, otherwise 0.8/1.0.
// This is distinct from the tier factors used by Compute and works on a
// different base.
func ProbabilityBounds(suggested, score float64) Bounds {
	conservativeFactor, liberalFactor := 0.8, 1.0
	if score > HighRiskProbability {
		conservativeFactor, liberalFactor = 0.5, 0.8
	}
	return Bounds{
		Suggested:          suggested,
		Conservative:       format.RoundCommercial(suggested * conservativeFactor),
		Liberal:            format.RoundCommercial(suggested * liberalFactor),
		ConservativeFactor: conservativeFactor,
		LiberalFactor:      liberalFactor,
	}
}

// AnalysisTerm is the term recommended after AI analysis: 45 days when the
// operating cycle exceeds 60 days, otherwise 30.
func AnalysisTerm(operatingCycleDays float64) int {
	if operatingCycleDays > 60 {
		return 45
	}
	return 30
}
