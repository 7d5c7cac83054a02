package indicators

// Zone is an Altman Z-score band.
type Zone string

const (
	ZoneSafe     Zone = "SAFE"
	ZoneGrey     Zone = "GREY"
	ZoneDistress Zone = "DISTRESS"
)

// Band thresholds. Upper bounds are inclusive: a score exactly on a
// threshold belongs to the riskier band.
const (
	safeAbove = 2.99
	greyAbove = 1.81

	displaySafeAbove = 2.6
	displayGreyAbove = 1.1
)

// AltmanZone classifies z: above 2.99 safe, above 1.81 grey, otherwise
// distress. NaN lands in distress.
func AltmanZone(z float64) Zone {
	return band(z, safeAbove, greyAbove)
}

// AltmanDisplayZone is the 2.6/1.1 banding used on the director summary
// card. It is kept separate from AltmanZone and never feeds a decision.
func AltmanDisplayZone(z float64) Zone {
	return band(z, displaySafeAbove, displayGreyAbove)
}

func band(z, safe, grey float64) Zone {
	switch {
	case z > safe:
		return ZoneSafe
	case z > grey:
		return ZoneGrey
	default:
		return ZoneDistress
	}
}
