// Package irr solves for the internal rate of return of periodic cashflows.
package irr

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Solver bounds.
const (
	lowerRate      = -0.95
	initialUpper   = 3.0
	maxExpansions  = 15
	upperRateLimit = 100.0
	maxIterations  = 120
	tolerance      = 1e-7
)

// NPV returns the net present value of cashflows at rate, where cashflows[t]
// is received at the end of period t. Returns nil when the result is not finite.
func NPV(rate float64, cashflows []float64) *float64 {
	v := npv(rate, cashflows)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func npv(rate float64, cashflows []float64) float64 {
	if len(cashflows) == 0 {
		return 0
	}
	discount := make([]float64, len(cashflows))
	factor := 1.0
	base := 1 + rate
	for t := range discount {
		discount[t] = 1 / factor
		factor *= base
	}
	return floats.Dot(cashflows, discount)
}

// Solve returns the periodic rate r at which NPV(r, cashflows) = 0.
//
// Bisection runs on [-0.95, hi]. hi starts at 3.0 and doubles until the
// interval brackets a root, at most 15 times and never past 100. Returns nil
// when there are fewer than two flows, no sign change or no bracket.
func Solve(cashflows []float64) *float64 {
	if len(cashflows) < 2 || !hasSignChange(cashflows) {
		return nil
	}

	lo, hi := lowerRate, initialUpper
	fLo, fHi := scaledNPV(lo, cashflows), scaledNPV(hi, cashflows)

	for i := 0; i < maxExpansions && fLo*fHi > 0; i++ {
		hi *= 2
		fHi = scaledNPV(hi, cashflows)
		if hi > upperRateLimit {
			break
		}
	}
	if !finite(fLo) || !finite(fHi) || fLo*fHi > 0 {
		return nil
	}

	for i := 0; i < maxIterations; i++ {
		mid := (lo + hi) / 2
		fMid := scaledNPV(mid, cashflows)
		if !finite(fMid) {
			return nil
		}
		if v := npv(mid, cashflows); finite(v) && math.Abs(v) < tolerance {
			return &mid
		}
		if fLo*fMid <= 0 {
			hi = mid
		} else {
			lo, fLo = mid, fMid
		}
	}

	r := (lo + hi) / 2
	return &r
}

// scaledNPV has the sign of NPV(rate) and stays finite over long series.
// Below a zero rate it returns NPV·(1+rate)^(n-1), whose weights shrink
// toward the first flow instead of growing without bound.
func scaledNPV(rate float64, cashflows []float64) float64 {
	base := 1 + rate
	if base >= 1 {
		return npv(rate, cashflows)
	}
	weights := make([]float64, len(cashflows))
	factor := 1.0
	for t := len(weights) - 1; t >= 0; t-- {
		weights[t] = factor
		factor *= base
	}
	return floats.Dot(cashflows, weights)
}

func hasSignChange(cashflows []float64) bool {
	pos, neg := false, false
	for _, cf := range cashflows {
		if cf > 0 {
			pos = true
		} else if cf < 0 {
			neg = true
		}
	}
	return pos && neg
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
