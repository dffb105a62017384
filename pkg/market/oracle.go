package market

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ErrDataUnavailable is returned for symbols the oracle has no price for
// (strict mode only).
var ErrDataUnavailable = errors.New("market data unavailable")

// Oracle returns a current price for a symbol. Prices may vary between calls;
// there is no repeatability contract.
type Oracle interface {
	Price(symbol string) (decimal.Decimal, error)
}

// OracleConfig configures the random-walk price generator.
type OracleConfig struct {
	// Seed for the internal RNG. 0 means time-seeded (non-reproducible).
	Seed int64
	// Volatility is the maximum fractional move per read (e.g. 0.02 = ±2%).
	Volatility float64
	// BasePrices seeds the starting price per symbol.
	BasePrices map[string]float64
	// DefaultPrice seeds symbols not present in BasePrices. Ignored in
	// strict mode, where unknown symbols error instead.
	DefaultPrice float64
	// Strict makes unknown symbols return ErrDataUnavailable rather than
	// falling back to DefaultPrice.
	Strict bool
}

// RandomOracle simulates market volatility with an in-process random walk.
// Each Price call moves the symbol's price by a random fraction within
// ±Volatility. Safe for concurrent use.
type RandomOracle struct {
	mu           sync.Mutex
	rng          *rand.Rand
	prices       map[string]float64
	volatility   float64
	defaultPrice float64
	strict       bool
}

func NewRandomOracle(cfg OracleConfig) *RandomOracle {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	volatility := cfg.Volatility
	if volatility <= 0 {
		volatility = 0.02
	}
	defaultPrice := cfg.DefaultPrice
	if defaultPrice <= 0 {
		defaultPrice = 100
	}

	prices := make(map[string]float64, len(cfg.BasePrices))
	for sym, base := range cfg.BasePrices {
		if base > 0 {
			prices[sym] = base
		}
	}

	return &RandomOracle{
		rng:          rand.New(rand.NewSource(seed)),
		prices:       prices,
		volatility:   volatility,
		defaultPrice: defaultPrice,
		strict:       cfg.Strict,
	}
}

func (o *RandomOracle) Price(symbol string) (decimal.Decimal, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	price, ok := o.prices[symbol]
	if !ok {
		if o.strict {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrDataUnavailable, symbol)
		}
		price = o.defaultPrice
	}

	// Random walk: move by a uniform fraction within ±volatility.
	move := o.volatility * (2*o.rng.Float64() - 1)
	price = price * (1 + move)
	if price < 0.01 {
		price = 0.01
	}
	o.prices[symbol] = price

	return decimal.NewFromFloat(math.Round(price*100) / 100), nil
}

// Symbols returns the symbols the oracle currently tracks.
func (o *RandomOracle) Symbols() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.prices))
	for sym := range o.prices {
		out = append(out, sym)
	}
	return out
}
