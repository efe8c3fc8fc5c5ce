package outcome

// Payout-to-bet ratio thresholds used to label authority results.
const (
	InsaneRatio = 50
	BigRatio    = 10
	MediumRatio = 4
)

// Classify labels a payout by its ratio to the bet.
func Classify(payout, bet float64) string {
	if bet <= 0 {
		return TierLose
	}
	ratio := payout / bet
	switch {
	case ratio <= 0:
		return TierLose
	case ratio >= InsaneRatio:
		return TierInsane
	case ratio >= BigRatio:
		return TierBig
	case ratio >= MediumRatio:
		return TierMedium
	default:
		return TierSmall
	}
}
