package strategy

import "github.com/shopspring/decimal"

// MeanReversion buys when the price trades below its rolling mean by at least
// Threshold and sells when it trades above by the same margin.
type MeanReversion struct {
	// Window is the number of trailing prices in the rolling mean.
	Window int
	// Threshold is the fractional deviation that triggers a signal.
	Threshold decimal.Decimal
}

func NewMeanReversion(window int, threshold decimal.Decimal) *MeanReversion {
	if window < 2 {
		window = 2
	}
	return &MeanReversion{Window: window, Threshold: threshold}
}

func (m *MeanReversion) Name() string { return "mean-reversion" }

func (m *MeanReversion) Decide(symbol string, prices []decimal.Decimal) Signal {
	if len(prices) < m.Window {
		return Hold
	}
	window := prices[len(prices)-m.Window:]
	avg := mean(window)
	if avg.Sign() <= 0 {
		return Hold
	}
	last := prices[len(prices)-1]
	deviation := last.Sub(avg).Div(avg)
	switch {
	case deviation.LessThanOrEqual(m.Threshold.Neg()):
		return Buy
	case deviation.GreaterThanOrEqual(m.Threshold):
		return Sell
	default:
		return Hold
	}
}
