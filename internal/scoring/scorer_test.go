package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"underwriting-lab/internal/domain"
)

func ptr(v float64) *float64 {
	return &v
}

func fullMetrics(capRate, coc, dscr, irr float64) *domain.Metrics {
	return &domain.Metrics{
		CapRate: ptr(capRate),
		CoC:     ptr(coc),
		DSCR:    ptr(dscr),
		IRR:     ptr(irr),
	}
}

func TestScore_AllMissing(t *testing.T) {
	in := domain.DefaultDealInputs("x")

	r := Score(&in, &domain.Metrics{})

	assert.Equal(t, 50.0, r.Score)
	assert.Equal(t, []string{
		"Missing cap-rate inputs",
		"Missing CoC inputs",
		"Missing DSCR inputs",
		"IRR unavailable (needs price + rent + expenses)",
	}, r.Flags)
	assert.Equal(t, "Base underwriting starts at 50/100.", r.Rationale[0])
	assert.Equal(t, "Base underwriting score: 50.0/100.", r.Rationale[len(r.Rationale)-1])
	assert.Len(t, r.Rationale, 6)
}

func TestScore_TopBands(t *testing.T) {
	in := domain.DefaultDealInputs("x")
	m := fullMetrics(0.09, 0.15, 1.5, 0.2)
	m.PriceChangePct = ptr(-0.10)

	r := Score(&in, m)

	assert.Equal(t, 93.0, r.Score) // 50 + 12 + 10 + 8 + 10 + 3
	assert.Equal(t, []string{"Discount vs last sale"}, r.Flags)
	assert.Contains(t, r.Rationale, "Cap rate 9.00% ≥ 8% adds +12.")
	assert.Contains(t, r.Rationale, "Cash-on-cash 15.00% ≥ 12% adds +10.")
	assert.Contains(t, r.Rationale, "DSCR 1.50 ≥ 1.35 adds +8.")
	assert.Contains(t, r.Rationale, "IRR 20.00% ≥ 18% adds +10.")
	assert.Contains(t, r.Rationale, "Price is 10.0% below last sale adds +3.")
}

func TestScore_BottomBands(t *testing.T) {
	in := domain.DefaultDealInputs("x")
	m := fullMetrics(0.03, 0.01, 0.9, 0.02)
	m.PriceChangePct = ptr(0.30)

	r := Score(&in, m)

	assert.Equal(t, 13.0, r.Score) // 50 - 6 - 6 - 12 - 7 - 6
	assert.Equal(t, []string{
		"Low cap rate",
		"Low cash-on-cash",
		"DSCR risk",
		"Low IRR",
		"Big run-up vs last sale",
	}, r.Flags)
	assert.Contains(t, r.Rationale, "DSCR 0.90 < 1.05 subtracts -12.")
	assert.Contains(t, r.Rationale, "Price is 30.0% above last sale subtracts -6.")
}

func TestScore_NeutralPriceChange(t *testing.T) {
	in := domain.DefaultDealInputs("x")
	m := fullMetrics(0.05, 0.06, 1.1, 0.11)
	m.PriceChangePct = ptr(0.10)

	r := Score(&in, m)

	assert.Equal(t, 58.0, r.Score) // 50 + 2 + 2 + 1 + 3
	assert.Empty(t, r.Flags)
	// start line, four rules, final line
	assert.Len(t, r.Rationale, 6)
}

func TestScore_Breakpoints(t *testing.T) {
	in := domain.DefaultDealInputs("x")

	tests := []struct {
		name  string
		set   func(m *domain.Metrics, v float64)
		below float64
		at    float64
		gain  float64
	}{
		{"cap 8%", func(m *domain.Metrics, v float64) { m.CapRate = ptr(v) }, 0.0799, 0.08, 5},
		{"cap 6%", func(m *domain.Metrics, v float64) { m.CapRate = ptr(v) }, 0.0599, 0.06, 5},
		{"cap 4.5%", func(m *domain.Metrics, v float64) { m.CapRate = ptr(v) }, 0.0449, 0.045, 8},
		{"coc 12%", func(m *domain.Metrics, v float64) { m.CoC = ptr(v) }, 0.1199, 0.12, 4},
		{"coc 8%", func(m *domain.Metrics, v float64) { m.CoC = ptr(v) }, 0.0799, 0.08, 4},
		{"coc 5%", func(m *domain.Metrics, v float64) { m.CoC = ptr(v) }, 0.0499, 0.05, 8},
		{"dscr 1.35", func(m *domain.Metrics, v float64) { m.DSCR = ptr(v) }, 1.349, 1.35, 3},
		{"dscr 1.20", func(m *domain.Metrics, v float64) { m.DSCR = ptr(v) }, 1.199, 1.20, 4},
		{"dscr 1.05", func(m *domain.Metrics, v float64) { m.DSCR = ptr(v) }, 1.049, 1.05, 13},
		{"irr 18%", func(m *domain.Metrics, v float64) { m.IRR = ptr(v) }, 0.1799, 0.18, 3},
		{"irr 14%", func(m *domain.Metrics, v float64) { m.IRR = ptr(v) }, 0.1399, 0.14, 4},
		{"irr 10%", func(m *domain.Metrics, v float64) { m.IRR = ptr(v) }, 0.0999, 0.10, 10},
		{"discount -5%", func(m *domain.Metrics, v float64) { m.PriceChangePct = ptr(v) }, -0.0499, -0.05, 3},
		{"run-up 25%", func(m *domain.Metrics, v float64) { m.PriceChangePct = ptr(v) }, 0.2499, 0.25, -6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo := &domain.Metrics{}
			hi := &domain.Metrics{}
			tt.set(lo, tt.below)
			tt.set(hi, tt.at)

			sLo := Score(&in, lo).Score
			sHi := Score(&in, hi).Score
			assert.Equal(t, tt.gain, sHi-sLo)
		})
	}
}

func TestScore_MonotonicInCapRate(t *testing.T) {
	in := domain.DefaultDealInputs("x")
	prev := -1.0
	for capRate := -0.05; capRate <= 0.15; capRate += 0.0025 {
		s := Score(&in, &domain.Metrics{CapRate: ptr(capRate)}).Score
		require.GreaterOrEqual(t, s, prev)
		prev = s
	}
}
