package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"papertrade/pkg/market"
	"papertrade/pkg/strategy"
	"papertrade/pkg/util"
)

// TickListener observes each sampled price (dashboard streaming hook).
type TickListener func(symbol string, price decimal.Decimal, at time.Time)

// TradeListener observes each executed trade (dashboard streaming hook).
type TradeListener func(record TradeRecord)

// RunnerConfig sizes the tick loop.
type RunnerConfig struct {
	Symbols  []string
	Interval time.Duration
	// Window is how many recent prices each strategy sees.
	Window int
	// OrderQty is the fixed quantity per strategy order.
	OrderQty decimal.Decimal
}

// Runner drives the sandbox: each tick it samples the oracle, feeds the
// price window to every strategy, and routes admitted decisions through the
// session. All executions funnel through the session's lock, so the runner
// itself needs none.
type Runner struct {
	cfg        RunnerConfig
	session    *Session
	oracle     market.Oracle
	strategies []strategy.Strategy
	clock      util.Clock
	log        *zap.SugaredLogger

	prices  map[string][]decimal.Decimal
	onTick  TickListener
	onTrade TradeListener
}

func NewRunner(cfg RunnerConfig, session *Session, oracle market.Oracle, strategies []strategy.Strategy, clock util.Clock, log *zap.SugaredLogger) *Runner {
	if cfg.Window < 2 {
		cfg.Window = 32
	}
	return &Runner{
		cfg:        cfg,
		session:    session,
		oracle:     oracle,
		strategies: strategies,
		clock:      clock,
		log:        log,
		prices:     make(map[string][]decimal.Decimal),
	}
}

func (r *Runner) OnTick(fn TickListener)   { r.onTick = fn }
func (r *Runner) OnTrade(fn TradeListener) { r.onTrade = fn }

// Run ticks until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.clock.After(r.cfg.Interval):
			r.Step()
		}
	}
}

// Step performs one tick across all symbols. Exposed so batch simulation can
// drive the loop without a clock.
func (r *Runner) Step() {
	for _, symbol := range r.cfg.Symbols {
		price, err := r.oracle.Price(symbol)
		if err != nil {
			r.log.Warnw("tick_price_failed", "symbol", symbol, "err", err)
			continue
		}
		r.record(symbol, price)
		if r.onTick != nil {
			r.onTick(symbol, price, r.clock.Now())
		}

		for _, strat := range r.strategies {
			r.apply(strat, symbol)
		}
	}
}

func (r *Runner) record(symbol string, price decimal.Decimal) {
	window := append(r.prices[symbol], price)
	if len(window) > r.cfg.Window {
		window = window[1:]
	}
	r.prices[symbol] = window
}

func (r *Runner) apply(strat strategy.Strategy, symbol string) {
	sig := strat.Decide(symbol, r.prices[symbol])

	switch sig {
	case strategy.Buy:
		result, err := r.session.ExecuteBuy(symbol, r.cfg.OrderQty)
		if err != nil {
			r.log.Errorw("strategy_buy_failed", "strategy", strat.Name(), "symbol", symbol, "err", err)
			return
		}
		r.notify(strat, result)

	case strategy.Sell:
		held := r.session.Position(symbol)
		if held.Sign() <= 0 {
			return
		}
		qty := r.cfg.OrderQty
		if held.LessThan(qty) {
			qty = held
		}
		result, err := r.session.ExecuteSell(symbol, qty)
		if err != nil {
			r.log.Errorw("strategy_sell_failed", "strategy", strat.Name(), "symbol", symbol, "err", err)
			return
		}
		r.notify(strat, result)
	}
}

func (r *Runner) notify(strat strategy.Strategy, result ExecResult) {
	if !result.Success {
		r.log.Debugw("strategy_order_denied",
			"strategy", strat.Name(), "symbol", result.Symbol, "reason", result.Reason)
		return
	}
	if r.onTrade != nil {
		history := r.session.TradeHistory(1)
		if len(history) == 1 {
			r.onTrade(history[0])
		}
	}
}
