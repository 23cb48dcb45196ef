package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"underwriting-lab/internal/domain"
)

func labeled(labels ...int) []domain.TrainingRow {
	rows := make([]domain.TrainingRow, len(labels))
	for i, l := range labels {
		rows[i].Label = l
	}
	return rows
}

func TestEvaluate_AllPositivePredictions(t *testing.T) {
	m := Evaluate(labeled(1, 1, 0, 0), domain.ModelWeights{domain.BiasKey: 20})

	assert.Equal(t, 4, m.N)
	assert.Equal(t, 2, m.TP)
	assert.Equal(t, 2, m.FP)
	assert.InDelta(t, 0.5, m.Accuracy, 1e-12)
	assert.InDelta(t, 0.5, m.Precision, 1e-12)
	assert.InDelta(t, 1.0, m.Recall, 1e-12)
	assert.InDelta(t, 2.0/3.0, m.F1, 1e-12)
}

func TestEvaluate_AllNegativePredictions(t *testing.T) {
	m := Evaluate(labeled(1, 0, 0, 0), domain.ModelWeights{domain.BiasKey: -20})

	assert.Equal(t, 3, m.TN)
	assert.Equal(t, 1, m.FN)
	assert.InDelta(t, 0.75, m.Accuracy, 1e-12)
	assert.Equal(t, 0.0, m.Precision)
	assert.Equal(t, 0.0, m.Recall)
	assert.Equal(t, 0.0, m.F1)
}

func TestEvaluate_Empty(t *testing.T) {
	assert.Equal(t, domain.ClassificationMetrics{}, Evaluate(nil, BaselineWeights()))
}
