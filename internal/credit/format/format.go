// Package format holds the money and percentage helpers shared by the
// credit engines and the notification texts.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	bracketLarge  = 100_000_000
	bracketMedium = 10_000_000
)

// RoundCommercial rounds a monetary amount to its bracket step: amounts of
// 100M or more to the nearest 10M, of 10M or more to the nearest 1M, and
// everything else to the nearest 100k. Halves round away from zero.
func RoundCommercial(amount float64) float64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return amount
	}

	abs := math.Abs(amount)
	places := int32(-5)
	switch {
	case abs >= bracketLarge:
		places = -7
	case abs >= bracketMedium:
		places = -6
	}

	rounded, _ := decimal.NewFromFloat(amount).Round(places).Float64()
	return rounded
}

// Step returns the rounding step RoundCommercial applies to amount.
func Step(amount float64) float64 {
	abs := math.Abs(amount)
	switch {
	case abs >= bracketLarge:
		return 10_000_000
	case abs >= bracketMedium:
		return 1_000_000
	default:
		return 100_000
	}
}

// Currency renders whole pesos with dot grouping: "$ 1.234.567".
func Currency(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "$ -"
	}
	return "$ " + humanize.FormatFloat("#.###,", amount)
}

// Percent renders a 0-1 probability as a percentage with one decimal.
func Percent(probability float64) string {
	if math.IsNaN(probability) || math.IsInf(probability, 0) {
		return "-"
	}
	return strconv.FormatFloat(probability*100, 'f', 1, 64) + "%"
}

// ParseAmount reads a currency string such as "$ 1.234.567" or
// "1.234.567,50" back into a number. Dots group thousands and a comma
// introduces decimals.
func ParseAmount(s string) (float64, error) {
	var b strings.Builder
	seenComma := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ',' && !seenComma:
			seenComma = true
			b.WriteRune('.')
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}

	digits := strings.TrimSuffix(b.String(), ".")
	if digits == "" || digits == "-" {
		return 0, fmt.Errorf("no amount in %q", s)
	}
	return strconv.ParseFloat(digits, 64)
}
