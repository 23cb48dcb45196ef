package underwriting

import (
	"context"

	"underwriting-lab/internal/domain"
)

// Signals are optional market and risk inputs for the linear model.
type Signals struct {
	Market    domain.MarketSignals `json:"market"`
	Risk      domain.RiskSignals   `json:"risk"`
	YearBuilt *float64             `json:"year_built,omitempty"`
}

// SignalProvider supplies market and risk signals for a deal.
type SignalProvider interface {
	Signals(ctx context.Context, in *domain.DealInputs) (*Signals, error)
}

// StaticSignals returns the same signals for every deal.
type StaticSignals struct {
	Value Signals
}

// Signals implements SignalProvider.
func (s StaticSignals) Signals(_ context.Context, _ *domain.DealInputs) (*Signals, error) {
	v := s.Value
	return &v, nil
}

// BuildPayload assembles the linear-model payload from deal metrics and
// optional signals. Rent-to-price and price-to-rent need a non-zero price and rent.
func BuildPayload(in *domain.DealInputs, m *domain.Metrics, sig *Signals) domain.FeaturePayload {
	var rentToPrice, priceToRent *float64
	price, rent := 0.0, 0.0
	if in.Price != nil {
		price = *in.Price
	}
	if in.MonthlyRent != nil {
		rent = *in.MonthlyRent
	}
	if annual := rent * 12; price != 0 && annual != 0 {
		rtp := annual / price
		ptr := price / annual
		rentToPrice, priceToRent = &rtp, &ptr
	}

	p := domain.FeaturePayload{
		Underwriting: domain.UnderwritingSignals{
			CapRate:     m.CapRate,
			CashOnCash:  m.CoC,
			DSCR:        m.DSCR,
			RentToPrice: rentToPrice,
			PriceToRent: priceToRent,
		},
	}
	if sig != nil {
		p.Market = sig.Market
		p.Risk = sig.Risk
		p.Underwriting.YearBuilt = sig.YearBuilt
	}
	return p
}
