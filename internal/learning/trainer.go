package learning

import (
	"errors"
	"fmt"
	"math/rand"

	"underwriting-lab/internal/domain"
)

// ErrInsufficientTrainingData is returned when there are fewer rows than TrainConfig.MinRows.
var ErrInsufficientTrainingData = errors.New("insufficient training data")

// TrainConfig controls SGD training and the validation split.
type TrainConfig struct {
	LearningRate float64
	L2           float64
	Epochs       int
	ValFraction  float64
	Seed         int64
	MinRows      int
}

// DefaultTrainConfig returns the standard training settings.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		LearningRate: 0.05,
		L2:           0.001,
		Epochs:       12,
		ValFraction:  0.2,
		Seed:         7,
		MinRows:      20,
	}
}

// Train runs logistic-regression SGD with L2 shrinkage over rows, starting from
// start (baseline weights when nil). Missing keys start at 0. Rows are visited
// in the given order every epoch; at least one epoch runs.
func Train(rows []domain.TrainingRow, start domain.ModelWeights, cfg TrainConfig) domain.ModelWeights {
	if start == nil {
		start = BaselineWeights()
	}
	w := start.Clone()
	for _, k := range domain.FeatureKeys {
		if _, ok := w[k]; !ok {
			w[k] = 0
		}
	}
	if _, ok := w[domain.BiasKey]; !ok {
		w[domain.BiasKey] = 0
	}

	epochs := cfg.Epochs
	if epochs < 1 {
		epochs = 1
	}
	lr, l2 := cfg.LearningRate, cfg.L2

	for e := 0; e < epochs; e++ {
		for _, row := range rows {
			p := PredictProba(w, row.Features)
			errTerm := float64(row.Label) - p
			w[domain.BiasKey] += lr * errTerm
			for i, k := range domain.FeatureKeys {
				w[k] += lr * (errTerm*row.Features[i] - l2*w[k])
			}
		}
	}
	return w
}

// Split shuffles a copy of rows with a fixed seed and returns (train, val).
// The first max(1, int(n*valFraction)) shuffled rows form the validation set.
func Split(rows []domain.TrainingRow, valFraction float64, seed int64) ([]domain.TrainingRow, []domain.TrainingRow) {
	shuffled := make([]domain.TrainingRow, len(rows))
	copy(shuffled, rows)
	if len(shuffled) == 0 {
		return nil, nil
	}

	rnd := rand.New(rand.NewSource(seed))
	rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	k := int(float64(len(shuffled)) * valFraction)
	if k < 1 {
		k = 1
	}
	if k > len(shuffled) {
		k = len(shuffled)
	}
	return shuffled[k:], shuffled[:k]
}

// TrainResult is a freshly trained candidate model.
type TrainResult struct {
	Weights domain.ModelWeights
	Metrics domain.ModelMetrics
}

// TrainCandidate splits rows, trains on the training part and evaluates on both.
// Returns ErrInsufficientTrainingData when len(rows) < cfg.MinRows.
func TrainCandidate(rows []domain.TrainingRow, start domain.ModelWeights, cfg TrainConfig) (*TrainResult, error) {
	if len(rows) < cfg.MinRows {
		return nil, fmt.Errorf("%w: have %d rows, need %d", ErrInsufficientTrainingData, len(rows), cfg.MinRows)
	}

	train, val := Split(rows, cfg.ValFraction, cfg.Seed)
	w := Train(train, start, cfg)

	return &TrainResult{
		Weights: w,
		Metrics: domain.ModelMetrics{
			Train: Evaluate(train, w),
			Val:   Evaluate(val, w),
		},
	}, nil
}
