package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/projection"
)

func scenarioInputs() domain.DealInputs {
	in := domain.DefaultDealInputs("123 Main St")
	in.Price = ptr(300000)
	in.MonthlyRent = ptr(2500)
	in.MonthlyExpenses = ptr(800)
	return in
}

func TestCompute_Scenario(t *testing.T) {
	in := scenarioInputs()

	m, err := Compute(&in)
	require.NoError(t, err)

	// NOI = 2500*12*0.92 - 800*12
	require.NotNil(t, m.NOI)
	assert.InDelta(t, 18000, *m.NOI, 1e-9)
	require.NotNil(t, m.CapRate)
	assert.InDelta(t, 0.06, *m.CapRate, 1e-12)

	require.NotNil(t, m.LoanPaymentMonthly)
	assert.InDelta(t, 1637.22, *m.LoanPaymentMonthly, 0.5)

	require.NotNil(t, m.CashFlowMonthly)
	assert.InDelta(t, 2300-800-*m.LoanPaymentMonthly, *m.CashFlowMonthly, 1e-9)

	require.NotNil(t, m.CoC)
	assert.Less(t, *m.CoC, 0.0)
	require.NotNil(t, m.DSCR)
	assert.InDelta(t, 18000/(*m.LoanPaymentMonthly*12), *m.DSCR, 1e-9)
	assert.Less(t, *m.DSCR, 1.05)

	assert.Nil(t, m.PriceChangePct)
	assert.Nil(t, m.PriceChangeAbs)

	assert.Len(t, m.Cashflows, 8)
	require.NotNil(t, m.IRR)
	assert.Less(t, *m.IRR, 0.10)
	assert.NotNil(t, m.NPV10)
	assert.NotNil(t, m.ExitValue)
	assert.NotNil(t, m.NOI0)
	assert.NotNil(t, m.DebtAnnual)
}

func TestCompute_NoPrice(t *testing.T) {
	in := domain.DefaultDealInputs("no price")
	in.MonthlyRent = ptr(2000)
	in.MonthlyExpenses = ptr(500)
	in.LastSalePrice = ptr(250000)

	m, err := Compute(&in)
	require.NoError(t, err)

	assert.Nil(t, m.NOI)
	assert.Nil(t, m.CapRate)
	assert.Nil(t, m.LoanPaymentMonthly)
	assert.Nil(t, m.CashFlowMonthly)
	assert.Nil(t, m.CoC)
	assert.Nil(t, m.DSCR)
	assert.Nil(t, m.PriceChangePct)
	assert.Nil(t, m.IRR)
	assert.Nil(t, m.NPV10)
	assert.Nil(t, m.ExitValue)
	assert.Nil(t, m.NOI0)
	assert.Nil(t, m.DebtAnnual)
	assert.Empty(t, m.Cashflows)
}

func TestCompute_MissingExpensesSkipsYield(t *testing.T) {
	in := scenarioInputs()
	in.MonthlyExpenses = nil

	m, err := Compute(&in)
	require.NoError(t, err)

	assert.Nil(t, m.NOI)
	assert.Nil(t, m.CapRate)
	assert.Nil(t, m.CoC)
	assert.Nil(t, m.DSCR)
	// projection treats missing expenses as zero
	assert.NotNil(t, m.IRR)
	assert.Len(t, m.Cashflows, 8)
}

func TestCompute_PriceChange(t *testing.T) {
	in := scenarioInputs()
	in.LastSalePrice = ptr(240000)

	m, err := Compute(&in)
	require.NoError(t, err)

	require.NotNil(t, m.PriceChangePct)
	assert.InDelta(t, 0.25, *m.PriceChangePct, 1e-12)
	require.NotNil(t, m.PriceChangeAbs)
	assert.InDelta(t, 60000, *m.PriceChangeAbs, 1e-9)

	in.LastSalePrice = ptr(0)
	m, err = Compute(&in)
	require.NoError(t, err)
	assert.Nil(t, m.PriceChangePct)
}

func TestCompute_AllCash(t *testing.T) {
	in := scenarioInputs()
	in.DownPaymentPct = 100

	m, err := Compute(&in)
	require.NoError(t, err)

	require.NotNil(t, m.LoanPaymentMonthly)
	assert.Equal(t, 0.0, *m.LoanPaymentMonthly)
	assert.Nil(t, m.DSCR, "no debt service means no DSCR")
	require.NotNil(t, m.CoC)
	assert.InDelta(t, 18000.0/300000.0, *m.CoC, 1e-12)
}

func TestCompute_ZeroPrice(t *testing.T) {
	in := scenarioInputs()
	in.Price = ptr(0)

	m, err := Compute(&in)
	require.NoError(t, err)

	assert.NotNil(t, m.NOI)
	assert.Nil(t, m.CapRate)
	assert.Nil(t, m.CoC)
}

func TestCompute_NegativeHoldYears(t *testing.T) {
	in := scenarioInputs()
	in.HoldYears = -1

	_, err := Compute(&in)
	assert.ErrorIs(t, err, projection.ErrInvalidHoldYears)
}
