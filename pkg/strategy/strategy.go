// Package strategy contains the toy signal generators that drive the sandbox.
// A strategy sees a window of recent prices for one symbol and emits a
// buy/sell/hold signal; it never touches the ledger directly.
package strategy

import "github.com/shopspring/decimal"

// Signal is a strategy's decision for the current tick.
type Signal int

const (
	Hold Signal = iota
	Buy
	Sell
)

func (s Signal) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "hold"
	}
}

// Strategy decides on a signal from the recent price window, oldest first.
type Strategy interface {
	Name() string
	Decide(symbol string, prices []decimal.Decimal) Signal
}

// mean returns the arithmetic mean of prices, zero for an empty slice.
func mean(prices []decimal.Decimal) decimal.Decimal {
	if len(prices) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, p := range prices {
		sum = sum.Add(p)
	}
	return sum.Div(decimal.NewFromInt(int64(len(prices))))
}
