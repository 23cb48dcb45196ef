// Package projection projects the annual cashflows of a leveraged rental hold.
package projection

import (
	"errors"
	"math"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/irr"
)

// ErrInvalidHoldYears is returned when HoldYears is negative.
var ErrInvalidHoldYears = errors.New("hold years must be non-negative")

const (
	// expenseCreep is the share of ExpenseGrowth applied to NOI each year after the first.
	expenseCreep = 0.35
	maxVacancy   = 0.50
	// NPVRate is the discount rate for Projection.NPV.
	NPVRate = 0.10
)

// Projection is the result of projecting one deal over its hold period.
type Projection struct {
	Cashflows  []float64 // [0] is -equity, last element includes net sale
	IRR        *float64
	NPV        *float64 // at NPVRate
	ExitValue  *float64
	NOI0       *float64 // year-one NOI
	DebtAnnual *float64 // annual debt service
	Equity     float64
	Loan       float64
}

// MonthlyPayment returns the level monthly payment that amortizes principal over
// years at annualRate (a fraction). Returns nil when principal or years are not
// positive or the result is not finite. Negative rates are treated as zero.
func MonthlyPayment(principal, annualRate float64, years int) *float64 {
	if principal <= 0 || years <= 0 {
		return nil
	}
	rate := math.Max(annualRate, 0)
	r := rate / 12
	n := float64(years * 12)

	var p float64
	if r == 0 {
		p = principal / n
	} else {
		p = principal * r / (1 - math.Pow(1+r, -n))
	}
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return nil
	}
	return &p
}

// VacancyRate returns in.VacancyRate clamped to [0, 0.5].
func VacancyRate(in *domain.DealInputs) float64 {
	return clamp(in.VacancyRate, 0, maxVacancy)
}

// DownPaymentFraction returns DownPaymentPct as a fraction in [0, 1].
func DownPaymentFraction(in *domain.DealInputs) float64 {
	return clamp(in.DownPaymentPct/100, 0, 1)
}

// Project builds the annual cashflow series for in.
//
// Without a price the projection is empty and not an error. Missing rent or
// expenses count as zero here. The net sale subtracts the full original loan
// balance rather than the amortized remainder.
func Project(in *domain.DealInputs) (*Projection, error) {
	if in.HoldYears < 0 {
		return nil, ErrInvalidHoldYears
	}
	if in.Price == nil {
		return &Projection{Cashflows: []float64{}}, nil
	}

	price := *in.Price
	rent := valueOr(in.MonthlyRent, 0)
	expenses := valueOr(in.MonthlyExpenses, 0)
	vac := VacancyRate(in)

	noi0 := rent*12*(1-vac) - expenses*12

	down := DownPaymentFraction(in)
	equity := price * down
	loan := price * (1 - down)

	debt := 0.0
	if loan > 0 {
		if pmt := MonthlyPayment(loan, in.InterestRatePct/100, in.TermYears); pmt != nil {
			debt = *pmt * 12
		}
	}

	flows := make([]float64, 0, in.HoldYears+1)
	flows = append(flows, -equity)

	noi := noi0
	for year := 1; year <= in.HoldYears; year++ {
		if year > 1 {
			noi *= 1 + in.RentGrowth
			noi -= math.Abs(noi) * in.ExpenseGrowth * expenseCreep
		}
		flows = append(flows, noi-debt)
	}

	var exit float64
	if in.UseExitCap && in.ExitCapRate > 0 {
		exit = noi / in.ExitCapRate
	} else {
		exit = price * math.Pow(1+in.Appreciation, float64(in.HoldYears))
	}

	netSale := exit * (1 - in.SaleCostPct)
	if loan > 0 {
		netSale -= loan
	}
	flows[len(flows)-1] += netSale

	return &Projection{
		Cashflows:  flows,
		IRR:        irr.Solve(flows),
		NPV:        irr.NPV(NPVRate, flows),
		ExitValue:  finitePtr(exit),
		NOI0:       &noi0,
		DebtAnnual: &debt,
		Equity:     equity,
		Loan:       loan,
	}, nil
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
