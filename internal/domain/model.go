package domain

import "errors"

// ModelWeights maps feature name to coefficient. BiasKey holds the intercept.
type ModelWeights map[string]float64

// Clone returns a copy of w.
func (w ModelWeights) Clone() ModelWeights {
	out := make(ModelWeights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// ModelStatus is the lifecycle state of a trained model.
type ModelStatus string

const (
	ModelStatusCandidate ModelStatus = "candidate"
	ModelStatusActive    ModelStatus = "active"
	ModelStatusArchived  ModelStatus = "archived"
)

// ErrIllegalTransition is returned for any lifecycle move outside the transition table.
var ErrIllegalTransition = errors.New("illegal model status transition")

// modelTransitions is the complete lifecycle table.
var modelTransitions = map[ModelStatus][]ModelStatus{
	ModelStatusCandidate: {ModelStatusActive},
	ModelStatusActive:    {ModelStatusArchived},
}

// CanTransition reports whether from -> to is a legal lifecycle move.
func CanTransition(from, to ModelStatus) bool {
	for _, next := range modelTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ClassificationMetrics summarise binary predictions at threshold 0.5.
type ClassificationMetrics struct {
	N         int     `json:"n"`
	TP        int     `json:"tp"`
	FP        int     `json:"fp"`
	TN        int     `json:"tn"`
	FN        int     `json:"fn"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// ModelMetrics holds train and validation metrics of a trained model.
type ModelMetrics struct {
	Train ClassificationMetrics `json:"train"`
	Val   ClassificationMetrics `json:"val"`
}

// ModelRecord is a persisted model version owned by a tenant.
// At most one record per tenant has status active.
type ModelRecord struct {
	ID        string       // uuid
	TenantID  string       // owning tenant
	Name      string       // human label
	Status    ModelStatus  // lifecycle state
	Weights   ModelWeights // coefficients + bias
	Metrics   ModelMetrics // train/val metrics at creation
	Notes     string       // training provenance
	CreatedAt int64        // unix ms
	UpdatedAt int64        // unix ms, last status change
}

// Copy returns a deep copy of the record.
func (m *ModelRecord) Copy() *ModelRecord {
	c := *m
	c.Weights = m.Weights.Clone()
	return &c
}
