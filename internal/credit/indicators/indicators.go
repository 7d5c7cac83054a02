// Package indicators computes the financial ratios shown on an analysed
// credit application.
package indicators

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Ratio is a float that survives JSON encoding when it is not finite.
// Division by a zero figure yields Inf or NaN, which encode as null and
// decode back as NaN.
type Ratio float64

func (r Ratio) MarshalJSON() ([]byte, error) {
	f := float64(r)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = Ratio(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}

// FinancialFigures are the raw statement figures extracted by the AI
// gateway. EBITDA is optional. The cycle metrics are reported by the
// gateway and passed through untouched.
type FinancialFigures struct {
	CurrentAssets         float64  `json:"currentAssets"`
	TotalAssets           float64  `json:"totalAssets"`
	Inventories           float64  `json:"inventories"`
	CurrentLiabilities    float64  `json:"currentLiabilities"`
	TotalLiabilities      float64  `json:"totalLiabilities"`
	NonCurrentLiabilities float64  `json:"nonCurrentLiabilities"`
	Equity                float64  `json:"equity"`
	Revenue               float64  `json:"revenue"`
	NetIncome             float64  `json:"netIncome"`
	EBIT                  float64  `json:"ebit"`
	EBITDA                *float64 `json:"ebitda,omitempty"`

	DaysReceivables float64 `json:"daysReceivables"`
	DaysInventory   float64 `json:"daysInventory"`
	OperatingCycle  float64 `json:"operatingCycle"`
}

// Indicators is the fixed ratio set. Percent fields are already scaled by 100.
type Indicators struct {
	CurrentRatio       Ratio `json:"currentRatio"`
	AcidTest           Ratio `json:"acidTest"`
	WorkingCapital     Ratio `json:"workingCapital"`
	TotalDebtRatio     Ratio `json:"totalDebtRatio"`
	LongTermDebtRatio  Ratio `json:"longTermDebtRatio"`
	ShortTermDebtRatio Ratio `json:"shortTermDebtRatio"`
	Solvency           Ratio `json:"solvency"`
	NetMargin          Ratio `json:"netMargin"`
	OperatingMargin    Ratio `json:"operatingMargin"`
	ROA                Ratio `json:"roa"`
	ROE                Ratio `json:"roe"`
	EBIT               Ratio `json:"ebit"`
	EBITDA             Ratio `json:"ebitda"`
	AltmanZ            Ratio `json:"altmanZ"`
	AltmanZone         Zone  `json:"altmanZone"`
	EquityImpairment   bool  `json:"equityImpairment"`

	DaysReceivables Ratio `json:"daysReceivables"`
	DaysInventory   Ratio `json:"daysInventory"`
	OperatingCycle  Ratio `json:"operatingCycle"`
}

// DefaultEBITDA derives EBITDA when the statements do not report it.
func DefaultEBITDA(ebit float64) float64 {
	return ebit * 1.1
}

// Compute derives every indicator from the figures. Zero denominators are
// not guarded: callers validate figures first and the result may hold Inf
// or NaN.
func Compute(f FinancialFigures) Indicators {
	ebitda := DefaultEBITDA(f.EBIT)
	if f.EBITDA != nil {
		ebitda = *f.EBITDA
	}

	workingCapital := f.CurrentAssets - f.CurrentLiabilities
	z := AltmanScore(f)

	return Indicators{
		CurrentRatio:       Ratio(f.CurrentAssets / f.CurrentLiabilities),
		AcidTest:           Ratio((f.CurrentAssets - f.Inventories) / f.CurrentLiabilities),
		WorkingCapital:     Ratio(workingCapital),
		TotalDebtRatio:     Ratio(f.TotalLiabilities / f.TotalAssets * 100),
		LongTermDebtRatio:  Ratio(f.NonCurrentLiabilities / f.TotalAssets * 100),
		ShortTermDebtRatio: Ratio(f.CurrentLiabilities / f.TotalLiabilities * 100),
		Solvency:           Ratio(f.Equity / f.TotalLiabilities * 100),
		NetMargin:          Ratio(f.NetIncome / f.Revenue * 100),
		OperatingMargin:    Ratio(f.EBIT / f.Revenue * 100),
		ROA:                Ratio(f.NetIncome / f.TotalAssets * 100),
		ROE:                Ratio(f.NetIncome / f.Equity * 100),
		EBIT:               Ratio(f.EBIT),
		EBITDA:             Ratio(ebitda),
		AltmanZ:            Ratio(z),
		AltmanZone:         AltmanZone(z),
		EquityImpairment:   f.NetIncome < 0,

		DaysReceivables: Ratio(f.DaysReceivables),
		DaysInventory:   Ratio(f.DaysInventory),
		OperatingCycle:  Ratio(f.OperatingCycle),
	}
}

// AltmanScore is the five-factor Z-score.
func AltmanScore(f FinancialFigures) float64 {
	workingCapital := f.CurrentAssets - f.CurrentLiabilities
	return 1.2*(workingCapital/f.TotalAssets) +
		1.4*(f.NetIncome/f.TotalAssets) +
		3.3*(f.EBIT/f.TotalAssets) +
		0.6*(f.Equity/f.TotalLiabilities) +
		1.0*(f.Revenue/f.TotalAssets)
}
