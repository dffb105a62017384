package market

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// FixedOracle serves static prices. Intended for tests and deterministic
// replays; SetPrice and FailWith let a test steer the next reads.
type FixedOracle struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
	err    error
}

func NewFixedOracle(prices map[string]decimal.Decimal) *FixedOracle {
	copied := make(map[string]decimal.Decimal, len(prices))
	for sym, price := range prices {
		copied[sym] = price
	}
	return &FixedOracle{prices: copied}
}

func (o *FixedOracle) Price(symbol string) (decimal.Decimal, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return decimal.Zero, o.err
	}
	price, ok := o.prices[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrDataUnavailable, symbol)
	}
	return price, nil
}

func (o *FixedOracle) SetPrice(symbol string, price decimal.Decimal) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prices[symbol] = price
}

// FailWith makes every subsequent Price call return err. Pass nil to clear.
func (o *FixedOracle) FailWith(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
}
