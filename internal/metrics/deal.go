package metrics

import (
	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/projection"
)

// Compute derives deal metrics from in.
//
// Yield metrics (NOI, CapRate, LoanPaymentMonthly, CashFlowMonthly, CoC, DSCR)
// require price, rent and expenses together. Price change requires price and a
// positive last sale price. Projection metrics are always attached; they are
// nil or empty when the projection has no price.
func Compute(in *domain.DealInputs) (*domain.Metrics, error) {
	proj, err := projection.Project(in)
	if err != nil {
		return nil, err
	}

	m := &domain.Metrics{}

	if in.Price != nil && in.MonthlyRent != nil && in.MonthlyExpenses != nil {
		price := *in.Price
		rent := *in.MonthlyRent
		expenses := *in.MonthlyExpenses
		vac := projection.VacancyRate(in)

		noi := rent*12*(1-vac) - expenses*12
		m.NOI = &noi
		if price != 0 {
			m.CapRate = ptr(noi / price)
		}

		down := projection.DownPaymentFraction(in)
		loan := price * (1 - down)

		// No loan means no debt service; a failed payment calculation stays nil.
		var payment *float64
		if loan > 0 {
			payment = projection.MonthlyPayment(loan, in.InterestRatePct/100, in.TermYears)
		} else {
			payment = ptr(0)
		}
		m.LoanPaymentMonthly = payment

		pay := 0.0
		if payment != nil {
			pay = *payment
		}

		cashFlow := rent*(1-vac) - expenses - pay
		m.CashFlowMonthly = &cashFlow

		if equity := price * down; equity > 0 {
			m.CoC = ptr(cashFlow * 12 / equity)
		}
		if pay > 0 {
			m.DSCR = ptr(noi / (pay * 12))
		}
	}

	if in.Price != nil && in.LastSalePrice != nil && *in.LastSalePrice > 0 {
		last := *in.LastSalePrice
		m.PriceChangePct = ptr((*in.Price - last) / last)
		m.PriceChangeAbs = ptr(*in.Price - last)
	}

	m.IRR = proj.IRR
	m.NPV10 = proj.NPV
	m.ExitValue = proj.ExitValue
	m.Cashflows = proj.Cashflows
	m.NOI0 = proj.NOI0
	m.DebtAnnual = proj.DebtAnnual

	return m, nil
}

func ptr(v float64) *float64 {
	return &v
}
