// Package verify checks aggregate trade statistics against static rule
// thresholds. Despite the name it is plain threshold arithmetic over the
// trade log, not formal verification.
package verify

import (
	"github.com/shopspring/decimal"

	"papertrade/pkg/engine"
	"papertrade/pkg/risk"
)

// Metrics are the aggregate statistics computed from a trade log.
type Metrics struct {
	Trades          int             `json:"trades"`
	Wins            int             `json:"wins"`
	Losses          int             `json:"losses"`
	WinRate         decimal.Decimal `json:"winRate"`
	MaxDrawdown     decimal.Decimal `json:"maxDrawdown"`
	AvgRiskPerTrade decimal.Decimal `json:"avgRiskPerTrade"`
}

type holding struct {
	qty     decimal.Decimal
	avgCost decimal.Decimal
}

// ComputeMetrics replays the trade log sequentially against the starting
// capital. Each sell is scored win/loss against the position's weighted
// average cost; equity is marked at the last traded price per symbol for the
// drawdown curve; per-trade risk is notional over initial capital.
func ComputeMetrics(initialCapital decimal.Decimal, trades []engine.TradeRecord) Metrics {
	m := Metrics{Trades: len(trades)}
	if len(trades) == 0 {
		return m
	}

	cash := initialCapital
	holdings := make(map[string]*holding)
	lastPrice := make(map[string]decimal.Decimal)

	peak := initialCapital
	maxDrawdown := decimal.Zero
	riskSum := decimal.Zero

	for _, trade := range trades {
		notional := trade.Price.Mul(trade.Quantity)
		if initialCapital.Sign() > 0 {
			riskSum = riskSum.Add(notional.Div(initialCapital))
		}

		pos := holdings[trade.Symbol]
		if pos == nil {
			pos = &holding{}
			holdings[trade.Symbol] = pos
		}

		switch trade.Action {
		case risk.ActionBuy:
			cash = cash.Sub(notional)
			newQty := pos.qty.Add(trade.Quantity)
			pos.avgCost = pos.avgCost.Mul(pos.qty).Add(notional).Div(newQty)
			pos.qty = newQty

		case risk.ActionSell:
			cash = cash.Add(notional)
			if trade.Price.GreaterThan(pos.avgCost) {
				m.Wins++
			} else {
				m.Losses++
			}
			pos.qty = pos.qty.Sub(trade.Quantity)
			if pos.qty.Sign() <= 0 {
				pos.qty = decimal.Zero
				pos.avgCost = decimal.Zero
			}
		}
		lastPrice[trade.Symbol] = trade.Price

		equity := cash
		for symbol, h := range holdings {
			equity = equity.Add(h.qty.Mul(lastPrice[symbol]))
		}
		if equity.GreaterThan(peak) {
			peak = equity
		}
		if peak.Sign() > 0 {
			drawdown := peak.Sub(equity).Div(peak)
			if drawdown.GreaterThan(maxDrawdown) {
				maxDrawdown = drawdown
			}
		}
	}

	closed := m.Wins + m.Losses
	if closed > 0 {
		m.WinRate = decimal.NewFromInt(int64(m.Wins)).Div(decimal.NewFromInt(int64(closed)))
	}
	m.MaxDrawdown = maxDrawdown
	m.AvgRiskPerTrade = riskSum.Div(decimal.NewFromInt(int64(len(trades))))
	return m
}

// Rules are the static acceptance thresholds.
type Rules struct {
	MinWinRate  decimal.Decimal `json:"minWinRate"`
	MaxDrawdown decimal.Decimal `json:"maxDrawdown"`
	MaxAvgRisk  decimal.Decimal `json:"maxAvgRisk"`
}

// Proof is one rule comparison.
type Proof struct {
	Name      string          `json:"name"`
	Passed    bool            `json:"passed"`
	Actual    decimal.Decimal `json:"actual"`
	Threshold decimal.Decimal `json:"threshold"`
}

// Report is the verifier's verdict: valid iff every proof passed.
type Report struct {
	Valid  bool    `json:"valid"`
	Proofs []Proof `json:"proofs"`
}

// Evaluate compares metrics against rules. The win-rate rule passes
// vacuously when no positions were closed.
func Evaluate(m Metrics, rules Rules) Report {
	winRatePassed := m.WinRate.GreaterThanOrEqual(rules.MinWinRate)
	if m.Wins+m.Losses == 0 {
		winRatePassed = true
	}

	proofs := []Proof{
		{Name: "win_rate", Passed: winRatePassed, Actual: m.WinRate, Threshold: rules.MinWinRate},
		{Name: "max_drawdown", Passed: m.MaxDrawdown.LessThanOrEqual(rules.MaxDrawdown), Actual: m.MaxDrawdown, Threshold: rules.MaxDrawdown},
		{Name: "avg_risk_per_trade", Passed: m.AvgRiskPerTrade.LessThanOrEqual(rules.MaxAvgRisk), Actual: m.AvgRiskPerTrade, Threshold: rules.MaxAvgRisk},
	}

	report := Report{Valid: true, Proofs: proofs}
	for _, p := range proofs {
		if !p.Passed {
			report.Valid = false
		}
	}
	return report
}
