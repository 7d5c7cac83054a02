// Package limit turns the six credit signals into a suggested limit range
// and recommended payment term.
package limit

import (
	"credit-workflow/internal/credit/format"
)

// RiskTier is the coarse risk class derived from the default probability.
type RiskTier string

const (
	TierLow      RiskTier = "LOW"
	TierModerate RiskTier = "MODERATE"
	TierHigh     RiskTier = "HIGH"
)

// HighRiskProbability is the default-probability threshold above which an
// applicant is high risk.
const HighRiskProbability = 0.5

// TierFromScore maps the AI default probability to a tier: above 0.5 is
// HIGH, anything else LOW.
func TierFromScore(score float64) RiskTier {
	if score > HighRiskProbability {
		return TierHigh
	}
	return TierLow
}

// Signals are the raw inputs reported by the AI analysis.
type Signals struct {
	BureauALastPeriods  []float64 `json:"bureauALastPeriods"`
	PlatformScoreLimit  float64   `json:"platformScoreLimit"`
	BureauBOpinionLimit float64   `json:"bureauBOpinionLimit"`
	AnnualNetIncome     float64   `json:"annualNetIncome"`
	TradeReferences     []float64 `json:"tradeReferences"`
	EBITDA              float64   `json:"ebitda"`
	Taxes               float64   `json:"taxes"`
	FinancialExpenses   float64   `json:"financialExpenses"`
	Cash                float64   `json:"cash"`
}

// Variables is the weighted breakdown, in evaluation order.
type Variables struct {
	BureauAAverage   float64 `json:"v1BureauAAverage"`
	PlatformScore    float64 `json:"v2PlatformScore"`
	BureauBOpinion   float64 `json:"v3BureauBOpinion"`
	MonthlyNetIncome float64 `json:"v4MonthlyNetIncome"`
	TradeReferences  float64 `json:"v5TradeReferences"`
	CashFlowCapacity float64 `json:"v6CashFlowCapacity"`
}

// Sum adds the six variables.
func (v Variables) Sum() float64 {
	return v.BureauAAverage + v.PlatformScore + v.BureauBOpinion +
		v.MonthlyNetIncome + v.TradeReferences + v.CashFlowCapacity
}

// Result is the engine output. Average is unrounded; the bounds are
// commercially rounded.
type Result struct {
	Variables    Variables `json:"variables"`
	Average      float64   `json:"averageResult"`
	Conservative float64   `json:"conservative"`
	Liberal      float64   `json:"liberal"`
	TermDays     int       `json:"recommendedTermDays"`
	Tier         RiskTier  `json:"riskTier"`
}

// Compute runs the six-variable engine.
func Compute(s Signals, tier RiskTier, operatingCycleDays float64) Result {
	vars := Variables{
		BureauAAverage:   average(s.BureauALastPeriods) * 0.10,
		PlatformScore:    s.PlatformScoreLimit,
		BureauBOpinion:   s.BureauBOpinionLimit * 0.10,
		MonthlyNetIncome: s.AnnualNetIncome / 12,
		TradeReferences:  average(s.TradeReferences),
		CashFlowCapacity: ((s.EBITDA - s.Taxes - s.FinancialExpenses + s.Cash) / 2) / 12,
	}
	avg := vars.Sum() / 6

	conservativeFactor, liberalFactor := 0.40, 0.60
	if tier == TierLow {
		conservativeFactor, liberalFactor = 0.50, 0.80
	}

	return Result{
		Variables:    vars,
		Average:      avg,
		Conservative: format.RoundCommercial(avg * conservativeFactor),
		Liberal:      format.RoundCommercial(avg * liberalFactor),
		TermDays:     engineTerm(tier, operatingCycleDays),
		Tier:         tier,
	}
}

func engineTerm(tier RiskTier, operatingCycleDays float64) int {
	if tier != TierLow && operatingCycleDays > 180 {
		return 45
	}
	return 30
}

// average returns 0 for an empty list.
func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
