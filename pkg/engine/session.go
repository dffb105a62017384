package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"papertrade/pkg/market"
	"papertrade/pkg/risk"
	"papertrade/pkg/util"
)

var (
	// ErrInvalidQuantity rejects non-positive order quantities.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrUnknownAction rejects unrecognized action verbs.
	ErrUnknownAction = errors.New("unknown order action")
)

// ReasonInsufficientFunds distinguishes a funds rejection from an admission
// denial; callers can match on it.
const ReasonInsufficientFunds = "insufficient funds"

// ReasonInsufficientPosition rejects sells larger than the held quantity.
const ReasonInsufficientPosition = "insufficient position"

// ExecResult is the outcome of an order execution. Rejections are values:
// Success=false with a Reason, never an error. Errors are reserved for
// invalid input and oracle failures.
type ExecResult struct {
	Success     bool               `json:"success"`
	Action      risk.Action        `json:"action"`
	Symbol      string             `json:"symbol"`
	Price       decimal.Decimal    `json:"price"`
	Quantity    decimal.Decimal    `json:"quantity"`
	Reason      string             `json:"reason,omitempty"`
	RiskMetrics *risk.TradeMetrics `json:"riskMetrics,omitempty"`
}

// Session owns one portfolio and its risk limiter for the lifetime of the
// process. It is the only component that mutates the ledger, and it holds a
// lock across each execution so risk checks observe a consistent snapshot and
// debit/position/history updates land as one unit.
type Session struct {
	mu        sync.RWMutex
	portfolio *Portfolio
	limiter   *risk.Limiter
	oracle    market.Oracle
	clock     util.Clock
	log       *zap.SugaredLogger
}

// NewSession creates the portfolio and risk limiter together: the limiter
// reads the initial cash as both its initial capital and its starting peak.
func NewSession(initialCash decimal.Decimal, limits risk.Limits, oracle market.Oracle, clock util.Clock, log *zap.SugaredLogger) *Session {
	portfolio := NewPortfolio(initialCash)
	return &Session{
		portfolio: portfolio,
		limiter:   risk.NewLimiter(limits, initialCash, portfolio, oracle),
		oracle:    oracle,
		clock:     clock,
		log:       log,
	}
}

// Execute dispatches on the action verb. Unknown verbs fail fast.
func (s *Session) Execute(action risk.Action, symbol string, quantity decimal.Decimal) (ExecResult, error) {
	switch action {
	case risk.ActionBuy:
		return s.ExecuteBuy(symbol, quantity)
	case risk.ActionSell:
		return s.ExecuteSell(symbol, quantity)
	default:
		return ExecResult{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// ExecuteBuy reads the price once, consults the risk limiter, then checks
// funds. The funds check runs after the risk check so a risk denial is the
// reason surfaced when both would fail. The ledger is only touched once every
// check has passed.
func (s *Session) ExecuteBuy(symbol string, quantity decimal.Decimal) (ExecResult, error) {
	if quantity.Sign() <= 0 {
		return ExecResult{}, fmt.Errorf("%w: got %s", ErrInvalidQuantity, quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	price, err := s.oracle.Price(symbol)
	if err != nil {
		return ExecResult{}, fmt.Errorf("price read for %s: %w", symbol, err)
	}
	cost := price.Mul(quantity)

	decision, err := s.limiter.CheckTrade(risk.ActionBuy, symbol, quantity, price)
	if err != nil {
		return ExecResult{}, err
	}
	if !decision.Allowed {
		s.log.Infow("order_denied",
			"action", risk.ActionBuy, "symbol", symbol,
			"quantity", quantity, "reason", decision.Reason)
		return ExecResult{Action: risk.ActionBuy, Symbol: symbol, Reason: decision.Reason}, nil
	}

	if s.portfolio.Cash().LessThan(cost) {
		s.log.Infow("order_denied",
			"action", risk.ActionBuy, "symbol", symbol,
			"quantity", quantity, "reason", ReasonInsufficientFunds)
		return ExecResult{Action: risk.ActionBuy, Symbol: symbol, Reason: ReasonInsufficientFunds}, nil
	}

	s.portfolio.Debit(cost)
	s.portfolio.AddPosition(symbol, quantity)
	s.portfolio.AppendHistory(TradeRecord{
		ID:         uuid.New(),
		Action:     risk.ActionBuy,
		Symbol:     symbol,
		Quantity:   quantity,
		Price:      price,
		ExecutedAt: s.clock.Now(),
	})

	s.log.Infow("order_executed",
		"action", risk.ActionBuy, "symbol", symbol,
		"quantity", quantity, "price", price, "cost", cost)

	return ExecResult{
		Success:     true,
		Action:      risk.ActionBuy,
		Symbol:      symbol,
		Price:       price,
		Quantity:    quantity,
		RiskMetrics: decision.Metrics,
	}, nil
}

// ExecuteSell mirrors the buy path. Sells always pass the risk limiter —
// reducing risk is never constrained — so the only structured rejection is an
// oversell.
func (s *Session) ExecuteSell(symbol string, quantity decimal.Decimal) (ExecResult, error) {
	if quantity.Sign() <= 0 {
		return ExecResult{}, fmt.Errorf("%w: got %s", ErrInvalidQuantity, quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	price, err := s.oracle.Price(symbol)
	if err != nil {
		return ExecResult{}, fmt.Errorf("price read for %s: %w", symbol, err)
	}

	decision, err := s.limiter.CheckTrade(risk.ActionSell, symbol, quantity, price)
	if err != nil {
		return ExecResult{}, err
	}
	if !decision.Allowed {
		return ExecResult{Action: risk.ActionSell, Symbol: symbol, Reason: decision.Reason}, nil
	}

	if s.portfolio.Position(symbol).LessThan(quantity) {
		s.log.Infow("order_denied",
			"action", risk.ActionSell, "symbol", symbol,
			"quantity", quantity, "reason", ReasonInsufficientPosition)
		return ExecResult{Action: risk.ActionSell, Symbol: symbol, Reason: ReasonInsufficientPosition}, nil
	}

	proceeds := price.Mul(quantity)
	s.portfolio.Credit(proceeds)
	s.portfolio.ReducePosition(symbol, quantity)
	s.portfolio.AppendHistory(TradeRecord{
		ID:         uuid.New(),
		Action:     risk.ActionSell,
		Symbol:     symbol,
		Quantity:   quantity,
		Price:      price,
		ExecutedAt: s.clock.Now(),
	})

	s.log.Infow("order_executed",
		"action", risk.ActionSell, "symbol", symbol,
		"quantity", quantity, "price", price, "proceeds", proceeds)

	return ExecResult{
		Success:  true,
		Action:   risk.ActionSell,
		Symbol:   symbol,
		Price:    price,
		Quantity: quantity,
	}, nil
}

// PortfolioView returns a consistent read-only snapshot of the ledger.
func (s *Session) PortfolioView() PortfolioView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.portfolio.View()
}

// Position returns the held quantity for a symbol.
func (s *Session) Position(symbol string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.portfolio.Position(symbol)
}

// TradeHistory returns the last limit trade records, oldest first.
func (s *Session) TradeHistory(limit int) []TradeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.portfolio.History(limit)
}

// RiskMetrics builds the limiter's observability snapshot. It takes the write
// lock because computing portfolio value ratchets the peak.
func (s *Session) RiskMetrics() (risk.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limiter.Metrics()
}
