package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"underwriting-lab/internal/domain"
)

func TestGradeTables(t *testing.T) {
	tests := []struct {
		score   float64
		grade   string
		detail  string
		verdict domain.Verdict
	}{
		{100, "A", "A+", domain.VerdictBuy},
		{97, "A", "A+", domain.VerdictBuy},
		{96.9, "A", "A", domain.VerdictBuy},
		{93, "A", "A", domain.VerdictBuy},
		{90, "A", "A-", domain.VerdictBuy},
		{89.99, "B", "B+", domain.VerdictBuySelective},
		{85, "B", "B", domain.VerdictBuySelective},
		{80, "B", "B-", domain.VerdictBuySelective},
		{77, "C", "C+", domain.VerdictWatch},
		{73, "C", "C", domain.VerdictWatch},
		{70, "C", "C-", domain.VerdictWatch},
		{67, "D", "D+", domain.VerdictPass},
		{63, "D", "D", domain.VerdictPass},
		{60, "D", "D-", domain.VerdictPass},
		{59.9, "F", "F+", domain.VerdictAvoid},
		{55, "F", "F+", domain.VerdictAvoid},
		{50, "F", "F", domain.VerdictAvoid},
		{49.9, "F", "F-", domain.VerdictAvoid},
		{0, "F", "F-", domain.VerdictAvoid},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.grade, Grade(tt.score), "grade for %v", tt.score)
		assert.Equal(t, tt.detail, GradeDetail(tt.score), "detail for %v", tt.score)
		assert.Equal(t, tt.verdict, VerdictFor(tt.score), "verdict for %v", tt.score)
	}
}

func TestConfidence(t *testing.T) {
	v := 1.0
	in := domain.DefaultDealInputs("x")
	assert.InDelta(t, 0.25, Confidence(&in), 1e-12)

	in.Price = &v
	in.MonthlyRent = &v
	assert.InDelta(t, 0.61, Confidence(&in), 1e-12)

	in.MonthlyExpenses = &v
	in.LastSalePrice = &v
	assert.InDelta(t, 0.97, Confidence(&in), 1e-12)
}
