package domain

import (
	"encoding/json"
	"fmt"
)

// Feature names in model order.
const (
	FeatureCapRate          = "cap_rate"
	FeatureCashOnCash       = "cash_on_cash"
	FeatureDSCR             = "dscr"
	FeatureRentToPrice      = "rent_to_price"
	FeaturePriceToRent      = "price_to_rent"
	FeatureYearBuiltNorm    = "year_built_norm"
	FeatureDOMNorm          = "dom_norm"
	FeatureCrimeNorm        = "crime_norm"
	FeatureSchoolNorm       = "school_norm"
	FeatureMarketGrowthNorm = "market_growth_norm"
	FeatureVolatilityNorm   = "volatility_norm"
	FeatureLiquidityNorm    = "liquidity_norm"
)

// BiasKey is the ModelWeights key holding the intercept.
const BiasKey = "_bias"

// NumFeatures is the length of a FeatureVector.
const NumFeatures = 12

// FeatureKeys lists every feature in the fixed order used by FeatureVector.
var FeatureKeys = [NumFeatures]string{
	FeatureCapRate,
	FeatureCashOnCash,
	FeatureDSCR,
	FeatureRentToPrice,
	FeaturePriceToRent,
	FeatureYearBuiltNorm,
	FeatureDOMNorm,
	FeatureCrimeNorm,
	FeatureSchoolNorm,
	FeatureMarketGrowthNorm,
	FeatureVolatilityNorm,
	FeatureLiquidityNorm,
}

// FeatureVector holds one clipped value per feature, indexed like FeatureKeys.
type FeatureVector [NumFeatures]float64

// FeatureIndex returns the position of name in FeatureKeys, or -1.
func FeatureIndex(name string) int {
	for i, k := range FeatureKeys {
		if k == name {
			return i
		}
	}
	return -1
}

// Get returns the value of the named feature.
func (v FeatureVector) Get(name string) (float64, bool) {
	i := FeatureIndex(name)
	if i < 0 {
		return 0, false
	}
	return v[i], true
}

// Map returns the vector keyed by feature name.
func (v FeatureVector) Map() map[string]float64 {
	m := make(map[string]float64, NumFeatures)
	for i, k := range FeatureKeys {
		m[k] = v[i]
	}
	return m
}

// MarshalJSON encodes the vector as an object keyed by feature name.
func (v FeatureVector) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Map())
}

// UnmarshalJSON decodes an object keyed by feature name. Unknown keys are rejected,
// missing keys decode as 0.
func (v *FeatureVector) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out FeatureVector
	for k, val := range m {
		i := FeatureIndex(k)
		if i < 0 {
			return fmt.Errorf("unknown feature %q", k)
		}
		out[i] = val
	}
	*v = out
	return nil
}

// UnderwritingSignals are the deal-derived payload inputs.
type UnderwritingSignals struct {
	CapRate     *float64 `json:"cap_rate,omitempty"`
	CashOnCash  *float64 `json:"cash_on_cash,omitempty"`
	DSCR        *float64 `json:"dscr,omitempty"`
	RentToPrice *float64 `json:"rent_to_price,omitempty"`
	PriceToRent *float64 `json:"price_to_rent,omitempty"`
	YearBuilt   *float64 `json:"year_built,omitempty"`
}

// MarketSignals describe the local market around a deal.
type MarketSignals struct {
	DaysOnMarket   *float64 `json:"days_on_market,omitempty"`
	YoYGrowthPct   *float64 `json:"yoy_growth_pct,omitempty"`
	VolatilityPct  *float64 `json:"volatility_pct,omitempty"`
	LiquidityScore *float64 `json:"liquidity_score,omitempty"` // 0..1
}

// RiskSignals describe neighbourhood risk.
type RiskSignals struct {
	CrimeIndex  *float64 `json:"crime_index,omitempty"`  // 0..100
	SchoolScore *float64 `json:"school_score,omitempty"` // 0..10
}

// FeaturePayload is the raw, partially populated input to feature extraction.
type FeaturePayload struct {
	Underwriting UnderwritingSignals `json:"underwriting"`
	Market       MarketSignals       `json:"market"`
	Risk         RiskSignals         `json:"risk"`
}
