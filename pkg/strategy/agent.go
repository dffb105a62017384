package strategy

import "github.com/shopspring/decimal"

// The agents below are deliberately shallow decision stubs: a goal gate and a
// nearest-neighbor memory. They carry no planning or learning machinery.

// AgentContext is the portfolio context an agent may condition on, in
// addition to the price window.
type AgentContext struct {
	Cash     decimal.Decimal
	Drawdown decimal.Decimal
}

// GoalAgent wraps a strategy and suppresses buys when the session is outside
// its goal envelope (cash floor or drawdown ceiling).
type GoalAgent struct {
	Inner       Strategy
	MinCash     decimal.Decimal
	MaxDrawdown decimal.Decimal
}

func (g *GoalAgent) Name() string { return g.Inner.Name() + "-goal" }

func (g *GoalAgent) DecideWithContext(symbol string, prices []decimal.Decimal, ctx AgentContext) Signal {
	sig := g.Inner.Decide(symbol, prices)
	if sig != Buy {
		return sig
	}
	if ctx.Cash.LessThan(g.MinCash) {
		return Hold
	}
	if g.MaxDrawdown.Sign() > 0 && ctx.Drawdown.GreaterThan(g.MaxDrawdown) {
		return Hold
	}
	return Buy
}

// Decide applies the inner strategy without context gating.
func (g *GoalAgent) Decide(symbol string, prices []decimal.Decimal) Signal {
	return g.DecideWithContext(symbol, prices, AgentContext{Cash: g.MinCash})
}

type memorySample struct {
	move    decimal.Decimal
	outcome Signal
}

// MemoryAgent replays the outcome of the most similar past price move. It
// keeps a bounded FIFO of (move, outcome) samples and answers with the
// nearest neighbor, holding until it has seen anything at all.
type MemoryAgent struct {
	Capacity int
	samples  []memorySample
}

func NewMemoryAgent(capacity int) *MemoryAgent {
	if capacity < 1 {
		capacity = 32
	}
	return &MemoryAgent{Capacity: capacity}
}

func (a *MemoryAgent) Name() string { return "memory" }

// Observe records the outcome that followed a fractional price move.
func (a *MemoryAgent) Observe(move decimal.Decimal, outcome Signal) {
	a.samples = append(a.samples, memorySample{move: move, outcome: outcome})
	if len(a.samples) > a.Capacity {
		a.samples = a.samples[1:]
	}
}

func (a *MemoryAgent) Decide(symbol string, prices []decimal.Decimal) Signal {
	if len(a.samples) == 0 || len(prices) < 2 {
		return Hold
	}
	prev := prices[len(prices)-2]
	if prev.Sign() <= 0 {
		return Hold
	}
	move := prices[len(prices)-1].Sub(prev).Div(prev)

	best := a.samples[0]
	bestDist := move.Sub(best.move).Abs()
	for _, s := range a.samples[1:] {
		dist := move.Sub(s.move).Abs()
		if dist.LessThan(bestDist) {
			best = s
			bestDist = dist
		}
	}
	return best.outcome
}
