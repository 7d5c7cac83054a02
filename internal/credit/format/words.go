package format

import (
	"math"
	"strings"
)

var (
	unitWords = [...]string{
		"", "uno", "dos", "tres", "cuatro", "cinco", "seis", "siete", "ocho", "nueve",
		"diez", "once", "doce", "trece", "catorce", "quince", "dieciséis", "diecisiete", "dieciocho", "diecinueve",
		"veinte", "veintiuno", "veintidós", "veintitrés", "veinticuatro", "veinticinco", "veintiséis", "veintisiete", "veintiocho", "veintinueve",
	}
	tenWords = [...]string{
		"", "", "", "treinta", "cuarenta", "cincuenta", "sesenta", "setenta", "ochenta", "noventa",
	}
	hundredWords = [...]string{
		"", "ciento", "doscientos", "trescientos", "cuatrocientos", "quinientos",
		"seiscientos", "setecientos", "ochocientos", "novecientos",
	}
)

// NumberToWords spells a whole number in Spanish, e.g. 1500000 is
// "un millón quinientos mil". Supports magnitudes below 10^18.
func NumberToWords(n int64) string {
	if n == 0 {
		return "cero"
	}
	if n < 0 {
		if n == math.MinInt64 {
			return ""
		}
		return "menos " + NumberToWords(-n)
	}
	return strings.TrimSpace(millionsToWords(n, false))
}

// AmountInWords spells a peso amount for letters and notices:
// "un millón de pesos", "doscientos mil pesos".
func AmountInWords(amount float64) string {
	n := int64(math.Round(amount))
	words := NumberToWords(n)
	if n != 0 && n%1_000_000 == 0 {
		return words + " de pesos"
	}
	return words + " pesos"
}

// millionsToWords splits n into billones (10^12), millones and the rest.
// apocope shortens a trailing "uno" when a noun follows.
func millionsToWords(n int64, apocope bool) string {
	const million = 1_000_000
	const billion = million * million

	var parts []string
	if b := n / billion; b > 0 {
		if b == 1 {
			parts = append(parts, "un billón")
		} else {
			parts = append(parts, thousandsToWords(b, true)+" billones")
		}
		n %= billion
	}
	if m := n / million; m > 0 {
		if m == 1 {
			parts = append(parts, "un millón")
		} else {
			parts = append(parts, thousandsToWords(m, true)+" millones")
		}
		n %= million
	}
	if n > 0 {
		parts = append(parts, thousandsToWords(n, apocope))
	}
	return strings.Join(parts, " ")
}

// thousandsToWords handles 1..999999.
func thousandsToWords(n int64, apocope bool) string {
	var parts []string
	if th := n / 1000; th > 0 {
		if th == 1 {
			parts = append(parts, "mil")
		} else {
			parts = append(parts, hundredsToWords(th, true)+" mil")
		}
	}
	if rest := n % 1000; rest > 0 {
		parts = append(parts, hundredsToWords(rest, apocope))
	}
	return strings.Join(parts, " ")
}

// hundredsToWords handles 1..999.
func hundredsToWords(n int64, apocope bool) string {
	if n == 100 {
		return "cien"
	}

	var parts []string
	if h := n / 100; h > 0 {
		parts = append(parts, hundredWords[h])
	}

	rest := n % 100
	switch {
	case rest == 0:
	case rest < 30:
		w := unitWords[rest]
		if apocope {
			switch rest {
			case 1:
				w = "un"
			case 21:
				w = "veintiún"
			}
		}
		parts = append(parts, w)
	default:
		w := tenWords[rest/10]
		if u := rest % 10; u > 0 {
			unit := unitWords[u]
			if apocope && u == 1 {
				unit = "un"
			}
			w += " y " + unit
		}
		parts = append(parts, w)
	}
	return strings.Join(parts, " ")
}
