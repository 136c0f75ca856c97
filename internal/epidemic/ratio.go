package epidemic

// ReproductionRatio returns beta/gamma, or 0 when gamma is zero.
func ReproductionRatio(beta, gamma float64) float64 {
	if gamma == 0 {
		return 0
	}
	return beta / gamma
}
