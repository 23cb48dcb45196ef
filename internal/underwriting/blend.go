package underwriting

import (
	"fmt"
	"math"
	"strings"

	"underwriting-lab/internal/domain"
)

const (
	maxAIWeight  = 0.35
	baseAIWeight = 0.15
	aiWeightStep = 0.20
	maxDrivers   = 5
)

// AIWeight returns the linear-model share of the final score for a payload
// completeness in [0, 1]: 0 when nothing is known, else min(0.35, 0.15 + 0.20*c).
func AIWeight(completeness float64) float64 {
	if completeness <= 0 {
		return 0
	}
	return math.Min(maxAIWeight, baseAIWeight+aiWeightStep*completeness)
}

// Blend mixes the heuristic and linear scores. A zero weight returns base unchanged.
func Blend(base, ai, weight float64) float64 {
	if weight <= 0 {
		return base
	}
	return math.Max(0, math.Min(100, base*(1-weight)+ai*weight))
}

var driverLabels = map[string]string{
	domain.FeatureCapRate:          "Cap rate",
	domain.FeatureCashOnCash:       "Cash-on-cash",
	domain.FeatureDSCR:             "DSCR",
	domain.FeatureRentToPrice:      "Rent-to-price",
	domain.FeaturePriceToRent:      "Price-to-rent",
	domain.FeatureYearBuiltNorm:    "Year built",
	domain.FeatureDOMNorm:          "Days on market",
	domain.FeatureCrimeNorm:        "Crime",
	domain.FeatureSchoolNorm:       "School score",
	domain.FeatureMarketGrowthNorm: "Market growth",
	domain.FeatureVolatilityNorm:   "Volatility",
	domain.FeatureLiquidityNorm:    "Liquidity",
}

// DriverLabel returns the display name of a feature.
func DriverLabel(feature string) string {
	if l, ok := driverLabels[feature]; ok {
		return l
	}
	words := strings.Fields(strings.ReplaceAll(feature, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// blendRationale explains the blend and up to five linear-model drivers.
func blendRationale(ai, weight, final float64, drivers []domain.Contribution) []string {
	lines := []string{
		fmt.Sprintf("AI score %.1f/100 blended at %.0f%% weight → final %.1f/100.", ai, weight*100, final),
	}
	for i, d := range drivers {
		if i == maxDrivers {
			break
		}
		direction := "supports"
		if d.Contribution < 0 {
			direction = "pressures"
		}
		lines = append(lines, fmt.Sprintf("AI driver: %s %s the grade (%+.2f).", DriverLabel(d.Feature), direction, d.Contribution))
	}
	return lines
}
