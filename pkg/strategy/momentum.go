package strategy

import "github.com/shopspring/decimal"

// Momentum buys when the price has risen by at least Threshold over the
// lookback window and sells on the mirror-image decline.
type Momentum struct {
	// Lookback is how many ticks back the reference price sits.
	Lookback int
	// Threshold is the fractional move that triggers a signal (0.02 = 2%).
	Threshold decimal.Decimal
}

func NewMomentum(lookback int, threshold decimal.Decimal) *Momentum {
	if lookback < 1 {
		lookback = 1
	}
	return &Momentum{Lookback: lookback, Threshold: threshold}
}

func (m *Momentum) Name() string { return "momentum" }

func (m *Momentum) Decide(symbol string, prices []decimal.Decimal) Signal {
	if len(prices) <= m.Lookback {
		return Hold
	}
	last := prices[len(prices)-1]
	ref := prices[len(prices)-1-m.Lookback]
	if ref.Sign() <= 0 {
		return Hold
	}
	change := last.Sub(ref).Div(ref)
	switch {
	case change.GreaterThanOrEqual(m.Threshold):
		return Buy
	case change.LessThanOrEqual(m.Threshold.Neg()):
		return Sell
	default:
		return Hold
	}
}
