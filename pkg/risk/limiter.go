// Package risk implements the admission checks applied to proposed trades:
// per-trade risk, portfolio drawdown, and position concentration. All limits
// are fractions of current portfolio value and are fixed at construction.
package risk

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"papertrade/pkg/market"
)

// Action is the order side submitted for an admission decision.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

var hundred = decimal.NewFromInt(100)

// Book is the read side of the portfolio ledger the limiter evaluates
// against.
type Book interface {
	Cash() decimal.Decimal
	Position(symbol string) decimal.Decimal
	Positions() map[string]decimal.Decimal
}

// Limits are the static thresholds, each a fraction of portfolio value.
type Limits struct {
	// MaxRiskPerTrade caps a single order's notional. This threshold is
	// exclusive: a trade exactly at the limit is denied.
	MaxRiskPerTrade decimal.Decimal `json:"maxRiskPerTrade"`
	// MaxPortfolioDrawdown caps the decline from peak value. Inclusive.
	MaxPortfolioDrawdown decimal.Decimal `json:"maxPortfolioDrawdown"`
	// MaxPositionSize caps a single symbol's holding after the trade.
	// Inclusive.
	MaxPositionSize decimal.Decimal `json:"maxPositionSize"`
}

// Limiter decides whether proposed trades are admissible and reports risk
// metrics. It tracks one piece of mutable state: the portfolio's high-water
// mark, seeded to the initial capital and ratcheted inside PortfolioValue.
//
// Not safe for concurrent use; the owning session serializes access.
type Limiter struct {
	limits Limits
	book   Book
	oracle market.Oracle

	initialCapital decimal.Decimal
	peak           decimal.Decimal
}

func NewLimiter(limits Limits, initialCapital decimal.Decimal, book Book, oracle market.Oracle) *Limiter {
	return &Limiter{
		limits:         limits,
		book:           book,
		oracle:         oracle,
		initialCapital: initialCapital,
		peak:           initialCapital,
	}
}

func (l *Limiter) Limits() Limits { return l.limits }

// Peak returns the portfolio's high-water mark.
func (l *Limiter) Peak() decimal.Decimal { return l.peak }

// PortfolioValue computes cash plus the marked value of every held position.
// This is the only place the peak ratchets: if the computed value exceeds the
// current peak, the peak is raised. It never decreases.
func (l *Limiter) PortfolioValue() (decimal.Decimal, error) {
	value := l.book.Cash()
	for symbol, qty := range l.book.Positions() {
		price, err := l.oracle.Price(symbol)
		if err != nil {
			return decimal.Zero, fmt.Errorf("portfolio value for %s: %w", symbol, err)
		}
		value = value.Add(qty.Mul(price))
	}
	if value.GreaterThan(l.peak) {
		l.peak = value
	}
	return value, nil
}

// DrawdownResult reports the drawdown check.
type DrawdownResult struct {
	Allowed         bool            `json:"allowed"`
	CurrentDrawdown decimal.Decimal `json:"currentDrawdown"`
	PeakValue       decimal.Decimal `json:"peakValue"`
	CurrentValue    decimal.Decimal `json:"currentValue"`
}

// CheckDrawdown evaluates the decline from peak against the configured limit.
// A drawdown exactly at the limit is allowed.
func (l *Limiter) CheckDrawdown() (DrawdownResult, error) {
	value, err := l.PortfolioValue()
	if err != nil {
		return DrawdownResult{}, err
	}
	return l.drawdownAt(value), nil
}

// drawdownAt assumes value was just computed by PortfolioValue, so the peak
// already reflects it and the drawdown cannot be negative.
func (l *Limiter) drawdownAt(value decimal.Decimal) DrawdownResult {
	res := DrawdownResult{
		PeakValue:    l.peak,
		CurrentValue: value,
	}
	if l.peak.Sign() <= 0 {
		res.Allowed = true
		res.CurrentDrawdown = decimal.Zero
		return res
	}
	res.CurrentDrawdown = l.peak.Sub(value).Div(l.peak)
	res.Allowed = res.CurrentDrawdown.LessThanOrEqual(l.limits.MaxPortfolioDrawdown)
	return res
}

// PositionSizeResult reports the concentration check.
type PositionSizeResult struct {
	Allowed        bool            `json:"allowed"`
	CurrentSize    decimal.Decimal `json:"currentSize"`
	PositionValue  decimal.Decimal `json:"positionValue"`
	PortfolioValue decimal.Decimal `json:"portfolioValue"`
}

// CheckPositionSize evaluates the symbol's holding after adding
// additionalQuantity at price. A size exactly at the limit is allowed.
func (l *Limiter) CheckPositionSize(symbol string, additionalQuantity, price decimal.Decimal) (PositionSizeResult, error) {
	value, err := l.PortfolioValue()
	if err != nil {
		return PositionSizeResult{}, err
	}
	if value.Sign() <= 0 {
		return PositionSizeResult{PortfolioValue: value}, nil
	}
	return l.positionSizeAt(symbol, additionalQuantity, price, value), nil
}

func (l *Limiter) positionSizeAt(symbol string, additionalQuantity, price, portfolioValue decimal.Decimal) PositionSizeResult {
	prospective := l.book.Position(symbol).Add(additionalQuantity)
	positionValue := prospective.Mul(price)
	size := positionValue.Div(portfolioValue)
	return PositionSizeResult{
		Allowed:        size.LessThanOrEqual(l.limits.MaxPositionSize),
		CurrentSize:    size,
		PositionValue:  positionValue,
		PortfolioValue: portfolioValue,
	}
}

// TradeMetrics is the observability snapshot attached to an admitted trade.
type TradeMetrics struct {
	RiskPerTrade string `json:"riskPerTrade"`
	PositionSize string `json:"positionSize"`
	Drawdown     string `json:"drawdown"`
}

// TradeDecision is the composed admission decision.
type TradeDecision struct {
	Allowed bool          `json:"allowed"`
	Reason  string        `json:"reason,omitempty"`
	Metrics *TradeMetrics `json:"metrics,omitempty"`
}

// CheckTrade runs the composed admission decision. Non-buy orders are never
// risk-limited. For buys the checks run in a fixed order, short-circuiting on
// the first failure: drawdown, then position size, then risk per trade. The
// first two thresholds are inclusive; risk per trade is exclusive, so a trade
// exactly at MaxRiskPerTrade is denied.
func (l *Limiter) CheckTrade(action Action, symbol string, quantity, price decimal.Decimal) (TradeDecision, error) {
	if action != ActionBuy {
		return TradeDecision{Allowed: true, Reason: "non-buy orders are not risk-limited"}, nil
	}

	value, err := l.PortfolioValue()
	if err != nil {
		return TradeDecision{}, err
	}

	dd := l.drawdownAt(value)
	if !dd.Allowed {
		return TradeDecision{
			Reason: fmt.Sprintf("drawdown %s%% exceeds limit (%s%%)",
				percent2(dd.CurrentDrawdown), percent(l.limits.MaxPortfolioDrawdown)),
		}, nil
	}

	// A worthless portfolio cannot size anything; reject rather than divide.
	if value.Sign() <= 0 {
		return TradeDecision{Reason: "portfolio value is not positive"}, nil
	}

	ps := l.positionSizeAt(symbol, quantity, price, value)
	if !ps.Allowed {
		return TradeDecision{
			Reason: fmt.Sprintf("position size %s%% for %s exceeds limit (%s%%)",
				percent2(ps.CurrentSize), symbol, percent(l.limits.MaxPositionSize)),
		}, nil
	}

	riskPerTrade := price.Mul(quantity).Div(value)
	if riskPerTrade.GreaterThanOrEqual(l.limits.MaxRiskPerTrade) {
		return TradeDecision{
			Reason: fmt.Sprintf("risk per trade %s%% exceeds limit (%s%%)",
				percent2(riskPerTrade), percent(l.limits.MaxRiskPerTrade)),
		}, nil
	}

	return TradeDecision{
		Allowed: true,
		Metrics: &TradeMetrics{
			RiskPerTrade: percent2(riskPerTrade) + "%",
			PositionSize: percent2(ps.CurrentSize) + "%",
			Drawdown:     percent2(dd.CurrentDrawdown) + "%",
		},
	}, nil
}

// PositionRisk describes one holding inside a metrics snapshot.
type PositionRisk struct {
	Symbol       string          `json:"symbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	Value        decimal.Decimal `json:"value"`
	PortfolioPct string          `json:"portfolioPct"`
}

// Snapshot is the read-only risk report; it never feeds admission decisions.
type Snapshot struct {
	PortfolioValue decimal.Decimal `json:"portfolioValue"`
	PeakValue      decimal.Decimal `json:"peakValue"`
	Drawdown       DrawdownResult  `json:"drawdown"`
	Positions      []PositionRisk  `json:"positions"`
	Limits         Limits          `json:"limits"`
}

// Metrics builds the observability snapshot: current value, peak, drawdown
// status, per-symbol detail, and the configured limits.
func (l *Limiter) Metrics() (Snapshot, error) {
	value, err := l.PortfolioValue()
	if err != nil {
		return Snapshot{}, err
	}

	positions := l.book.Positions()
	symbols := make([]string, 0, len(positions))
	for symbol := range positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	detail := make([]PositionRisk, 0, len(symbols))
	for _, symbol := range symbols {
		price, err := l.oracle.Price(symbol)
		if err != nil {
			return Snapshot{}, fmt.Errorf("risk metrics for %s: %w", symbol, err)
		}
		posValue := positions[symbol].Mul(price)
		pct := "0.00"
		if value.Sign() > 0 {
			pct = percent2(posValue.Div(value))
		}
		detail = append(detail, PositionRisk{
			Symbol:       symbol,
			Quantity:     positions[symbol],
			Value:        posValue,
			PortfolioPct: pct + "%",
		})
	}

	return Snapshot{
		PortfolioValue: value,
		PeakValue:      l.peak,
		Drawdown:       l.drawdownAt(value),
		Positions:      detail,
		Limits:         l.limits,
	}, nil
}

// percent2 renders a fraction as a percentage with two decimals: 0.009 → "0.90".
func percent2(fraction decimal.Decimal) string {
	return fraction.Mul(hundred).StringFixed(2)
}

// percent renders a fraction as a trimmed percentage: 0.01 → "1".
func percent(fraction decimal.Decimal) string {
	return fraction.Mul(hundred).String()
}
