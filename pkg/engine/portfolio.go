// Package engine holds the trading session: the portfolio ledger, the order
// executor that mutates it, and the strategy runner that drives it.
package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"papertrade/pkg/risk"
)

// TradeRecord is one entry in the append-only trade log.
type TradeRecord struct {
	ID         uuid.UUID       `json:"id"`
	Action     risk.Action     `json:"action"`
	Symbol     string          `json:"symbol"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	ExecutedAt time.Time       `json:"executedAt"`
}

// Portfolio is the authoritative in-memory ledger: cash, per-symbol share
// counts, and the trade log. It performs no validation of its own — the
// session enforces invariants before calling, and serializes access.
type Portfolio struct {
	cash      decimal.Decimal
	positions map[string]decimal.Decimal
	history   []TradeRecord
}

func NewPortfolio(initialCash decimal.Decimal) *Portfolio {
	return &Portfolio{
		cash:      initialCash,
		positions: make(map[string]decimal.Decimal),
	}
}

func (p *Portfolio) Cash() decimal.Decimal { return p.cash }

func (p *Portfolio) Credit(amount decimal.Decimal) { p.cash = p.cash.Add(amount) }

func (p *Portfolio) Debit(amount decimal.Decimal) { p.cash = p.cash.Sub(amount) }

// Position returns the held quantity for a symbol, zero if absent.
func (p *Portfolio) Position(symbol string) decimal.Decimal {
	return p.positions[symbol]
}

// Positions returns a copy of the holdings map.
func (p *Portfolio) Positions() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(p.positions))
	for symbol, qty := range p.positions {
		out[symbol] = qty
	}
	return out
}

// AddPosition adds quantity to the symbol's holding, creating it on first buy.
func (p *Portfolio) AddPosition(symbol string, quantity decimal.Decimal) {
	p.positions[symbol] = p.positions[symbol].Add(quantity)
}

// ReducePosition subtracts quantity from the symbol's holding and removes the
// entry when it reaches zero. The caller guarantees quantity <= held.
func (p *Portfolio) ReducePosition(symbol string, quantity decimal.Decimal) {
	remaining := p.positions[symbol].Sub(quantity)
	if remaining.Sign() <= 0 {
		delete(p.positions, symbol)
		return
	}
	p.positions[symbol] = remaining
}

// AppendHistory appends to the trade log. Insertion order is chronological
// order; entries are never removed or reordered.
func (p *Portfolio) AppendHistory(record TradeRecord) {
	p.history = append(p.history, record)
}

// History returns a copy of the last limit records in chronological order.
// A non-positive limit returns the full log.
func (p *Portfolio) History(limit int) []TradeRecord {
	start := 0
	if limit > 0 && limit < len(p.history) {
		start = len(p.history) - limit
	}
	out := make([]TradeRecord, len(p.history)-start)
	copy(out, p.history[start:])
	return out
}

func (p *Portfolio) HistoryLen() int { return len(p.history) }

// PortfolioView is the serializable read-only view of the ledger.
type PortfolioView struct {
	Cash      decimal.Decimal            `json:"cash"`
	Positions map[string]decimal.Decimal `json:"positions"`
	Trades    int                        `json:"trades"`
}

func (p *Portfolio) View() PortfolioView {
	return PortfolioView{
		Cash:      p.cash,
		Positions: p.Positions(),
		Trades:    len(p.history),
	}
}
