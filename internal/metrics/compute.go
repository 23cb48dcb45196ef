package metrics

import (
	"math"
	"sort"

	"underwriting-lab/internal/domain"
)

// computeFromRuns calculates the score distribution of a set of runs.
func computeFromRuns(runs []*domain.RunSnapshot) *domain.ScoreSummary {
	n := len(runs)
	summary := &domain.ScoreSummary{
		Runs:       n,
		GradeCount: make(map[string]int),
	}
	if n == 0 {
		return summary
	}

	scores := make([]float64, n)
	blended := 0
	for i, r := range runs {
		scores[i] = r.Score
		summary.GradeCount[r.Grade]++
		if r.AIWeight > 0 {
			blended++
		}
	}

	sorted := make([]float64, n)
	copy(sorted, scores)
	sort.Float64s(sorted)

	mean := computeMean(scores)
	summary.ScoreMean = mean
	summary.ScoreMed = computePercentile(sorted, 0.50)
	summary.ScoreP10 = computePercentile(sorted, 0.10)
	summary.ScoreP90 = computePercentile(sorted, 0.90)
	summary.ScoreMin = sorted[0]
	summary.ScoreMax = sorted[n-1]
	summary.ScoreStd = computeStddev(scores, mean)
	summary.BlendedPct = float64(blended) / float64(n)

	return summary
}

// computeMean calculates the arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
