package epidemic

import "math"

// HerdImmunityThreshold is the susceptible fraction that must be removed
// before the infected fraction starts to decline: 1 - 1/r0 for r0 > 1.
func HerdImmunityThreshold(r0 float64) float64 {
	if r0 <= 1 {
		return 0
	}
	return 1 - 1/r0
}

// FinalSize returns the limiting susceptible fraction of an outbreak starting
// from susceptible fraction s0 with nobody recovered. It is the root in
// (0, s0) of s = s0*exp(-r0*(1-s)), found by bisection.
func FinalSize(r0, s0 float64) float64 {
	if r0 <= 0 || s0 <= 0 || s0 >= 1 || math.IsNaN(r0) || math.IsNaN(s0) {
		return s0
	}

	f := func(s float64) float64 { return s - s0*math.Exp(-r0*(1-s)) }

	lo, hi := 0.0, s0
	for i := 0; i < 200 && hi-lo > 1e-15; i++ {
		mid := 0.5 * (lo + hi)
		if f(mid) < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi)
}
