// Package scoring implements the rule-based heuristic deal scorer and the
// grade and verdict tables shared by every scorer.
package scoring

import (
	"fmt"
	"math"

	"underwriting-lab/internal/domain"
)

const baseScore = 50.0

// Result is the heuristic score of one deal.
type Result struct {
	Score      float64
	Confidence float64
	Flags      []string
	Rationale  []string
}

// Score applies Rules to m in order. Missing metrics add a flag and a
// rationale line without changing the score. The result is clamped to [0, 100].
func Score(in *domain.DealInputs, m *domain.Metrics) *Result {
	score := baseScore
	flags := []string{}
	rationale := []string{"Base underwriting starts at 50/100."}

	for _, rule := range Rules {
		v := rule.Value(m)
		if v == nil {
			if rule.MissingFlag != "" {
				flags = append(flags, rule.MissingFlag)
			}
			if rule.MissingRationale != "" {
				rationale = append(rationale, rule.MissingRationale)
			}
			continue
		}
		for _, band := range rule.Bands {
			if !band.Match(*v) {
				continue
			}
			score += band.Delta
			if band.Flag != "" {
				flags = append(flags, band.Flag)
			}
			rationale = append(rationale,
				fmt.Sprintf(band.Template, rule.Format(*v))+" "+deltaPhrase(band.Delta)+".")
			break
		}
	}

	score = math.Max(0, math.Min(100, score))
	rationale = append(rationale, fmt.Sprintf("Base underwriting score: %.1f/100.", score))

	return &Result{
		Score:      score,
		Confidence: Confidence(in),
		Flags:      flags,
		Rationale:  rationale,
	}
}
