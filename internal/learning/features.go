package learning

import (
	"math"

	"underwriting-lab/internal/domain"
)

// Defaults for absent payload signals.
const (
	defaultYearBuilt    = 1980.0
	defaultDaysOnMarket = 45.0
	defaultCrimeIndex   = 50.0
	defaultSchoolScore  = 5.0
	defaultYoYGrowthPct = 3.0
	defaultVolatility   = 8.0
	defaultLiquidity    = 0.5
)

// ExtractFeatures turns a payload into a fully populated, clipped FeatureVector.
// Absent or non-finite inputs take their defaults; underwriting ratios default to 0.
func ExtractFeatures(p domain.FeaturePayload) domain.FeatureVector {
	u, m, r := p.Underwriting, p.Market, p.Risk

	var v domain.FeatureVector
	v[0] = clip(safe(u.CapRate, 0), -0.5, 0.5)
	v[1] = clip(safe(u.CashOnCash, 0), -1, 2)
	v[2] = clip(safe(u.DSCR, 0), 0, 5)
	v[3] = clip(safe(u.RentToPrice, 0), 0, 0.05)
	v[4] = clip(safe(u.PriceToRent, 0), 0, 50)
	v[5] = norm01(safe(u.YearBuilt, defaultYearBuilt), 1900, 2025)
	v[6] = 1 - norm01(safe(m.DaysOnMarket, defaultDaysOnMarket), 0, 180)
	v[7] = 1 - norm01(safe(r.CrimeIndex, defaultCrimeIndex), 0, 100)
	v[8] = norm01(safe(r.SchoolScore, defaultSchoolScore), 0, 10)
	v[9] = norm01(safe(m.YoYGrowthPct, defaultYoYGrowthPct), -10, 20)
	v[10] = 1 - norm01(safe(m.VolatilityPct, defaultVolatility), 0, 30)
	v[11] = clip(safe(m.LiquidityScore, defaultLiquidity), 0, 1)
	return v
}

// CoreCompleteness is the fraction of the five deal-derived ratios present in p.
func CoreCompleteness(p domain.FeaturePayload) float64 {
	u := p.Underwriting
	return presentFraction(u.CapRate, u.CashOnCash, u.DSCR, u.RentToPrice, u.PriceToRent)
}

// DataQuality is the fraction of all payload signals that were supplied with a
// finite value.
func DataQuality(p domain.FeaturePayload) float64 {
	u, m, r := p.Underwriting, p.Market, p.Risk
	return presentFraction(
		u.CapRate, u.CashOnCash, u.DSCR, u.RentToPrice, u.PriceToRent, u.YearBuilt,
		m.DaysOnMarket, m.YoYGrowthPct, m.VolatilityPct, m.LiquidityScore,
		r.CrimeIndex, r.SchoolScore,
	)
}

func presentFraction(values ...*float64) float64 {
	if len(values) == 0 {
		return 0
	}
	present := 0
	for _, v := range values {
		if v != nil && isFinite(*v) {
			present++
		}
	}
	return float64(present) / float64(len(values))
}

func safe(p *float64, def float64) float64 {
	if p == nil || !isFinite(*p) {
		return def
	}
	return *p
}

func norm01(x, lo, hi float64) float64 {
	if hi == lo {
		return 0.5
	}
	return clip((x-lo)/(hi-lo), 0, 1)
}

func clip(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
