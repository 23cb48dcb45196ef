// Package learning holds the linear deal scorer and its trainer.
package learning

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/scoring"
)

// DefaultTopK is the number of contributions reported by Explain.
const DefaultTopK = 6

// BaselineModelName labels scores produced without a trained model.
const BaselineModelName = "baseline"

const zLimit = 20.0

// BaselineWeights returns the hand-tuned starting model.
func BaselineWeights() domain.ModelWeights {
	return domain.ModelWeights{
		domain.BiasKey:                 -0.25,
		domain.FeatureCapRate:          2.3,
		domain.FeatureCashOnCash:       1.2,
		domain.FeatureDSCR:             0.8,
		domain.FeatureRentToPrice:      18.0,
		domain.FeaturePriceToRent:      -0.06,
		domain.FeatureYearBuiltNorm:    0.15,
		domain.FeatureDOMNorm:          0.25,
		domain.FeatureCrimeNorm:        0.35,
		domain.FeatureSchoolNorm:       0.25,
		domain.FeatureMarketGrowthNorm: 0.30,
		domain.FeatureVolatilityNorm:   0.20,
		domain.FeatureLiquidityNorm:    0.20,
	}
}

// coefficients lays w out in FeatureKeys order. Missing keys are 0.
func coefficients(w domain.ModelWeights) []float64 {
	c := make([]float64, domain.NumFeatures)
	for i, k := range domain.FeatureKeys {
		c[i] = w[k]
	}
	return c
}

// Sigmoid is the logistic function with z clamped to [-20, 20].
func Sigmoid(z float64) float64 {
	z = math.Max(-zLimit, math.Min(zLimit, z))
	return 1 / (1 + math.Exp(-z))
}

// PredictProba returns P(good deal) under w.
func PredictProba(w domain.ModelWeights, x domain.FeatureVector) float64 {
	z := w[domain.BiasKey] + floats.Dot(coefficients(w), x[:])
	return Sigmoid(z)
}

// ProbaToScore maps a probability to a 0-100 score.
func ProbaToScore(p float64) float64 {
	return clip(p*100, 0, 100)
}

// Explain returns the topK per-feature contributions w·x ranked by magnitude.
func Explain(w domain.ModelWeights, x domain.FeatureVector, topK int) []domain.Contribution {
	contribs := make([]domain.Contribution, 0, domain.NumFeatures)
	for i, k := range domain.FeatureKeys {
		contribs = append(contribs, domain.Contribution{
			Feature:      k,
			Value:        x[i],
			Weight:       w[k],
			Contribution: w[k] * x[i],
		})
	}
	sort.SliceStable(contribs, func(i, j int) bool {
		return math.Abs(contribs[i].Contribution) > math.Abs(contribs[j].Contribution)
	})
	if topK >= 0 && topK < len(contribs) {
		contribs = contribs[:topK]
	}
	return contribs
}

// ModelRef identifies the model behind a linear score.
type ModelRef struct {
	ID      string
	Name    string
	Weights domain.ModelWeights
}

// Baseline returns a reference to the baseline weights.
func Baseline() ModelRef {
	return ModelRef{Name: BaselineModelName, Weights: BaselineWeights()}
}

// GradeWithModel scores payload with model and explains the result.
//
// Confidence grows with the distance of p from 0.5 and with payload data
// quality: clamp(base * (0.75 + 0.25*dq), 0.40, 0.95) where
// base = clamp(|p-0.5|*2, 0.50, 0.95).
func GradeWithModel(payload domain.FeaturePayload, model ModelRef) (string, float64, float64, *domain.ExplainMeta) {
	weights := model.Weights
	if weights == nil {
		weights = BaselineWeights()
	}
	name := model.Name
	if name == "" {
		name = BaselineModelName
	}

	x := ExtractFeatures(payload)
	p := PredictProba(weights, x)
	score := ProbaToScore(p)
	grade := scoring.Grade(score)
	dq := DataQuality(payload)

	base := clip(math.Abs(p-0.5)*2, 0.50, 0.95)
	confidence := clip(base*(0.75+0.25*dq), 0.40, 0.95)

	meta := &domain.ExplainMeta{
		ModelID:      model.ID,
		ModelName:    name,
		Probability:  p,
		Score:        score,
		Grade:        grade,
		Confidence:   confidence,
		Completeness: dq,
		TopDrivers:   Explain(weights, x, DefaultTopK),
		Features:     x,
	}
	return grade, score, confidence, meta
}
