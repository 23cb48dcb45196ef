package learning

import "underwriting-lab/internal/domain"

// DecisionThreshold is the probability at or above which a row is predicted positive.
const DecisionThreshold = 0.5

// Evaluate computes classification metrics of w over rows.
// Zero denominators yield 0; F1 is 0 when precision + recall is 0.
func Evaluate(rows []domain.TrainingRow, w domain.ModelWeights) domain.ClassificationMetrics {
	m := domain.ClassificationMetrics{N: len(rows)}
	if len(rows) == 0 {
		return m
	}

	for _, row := range rows {
		pred := 0
		if PredictProba(w, row.Features) >= DecisionThreshold {
			pred = 1
		}
		switch {
		case pred == 1 && row.Label == 1:
			m.TP++
		case pred == 1 && row.Label == 0:
			m.FP++
		case pred == 0 && row.Label == 0:
			m.TN++
		default:
			m.FN++
		}
	}

	m.Accuracy = ratio(m.TP+m.TN, m.TP+m.TN+m.FP+m.FN)
	m.Precision = ratio(m.TP, m.TP+m.FP)
	m.Recall = ratio(m.TP, m.TP+m.FN)
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
