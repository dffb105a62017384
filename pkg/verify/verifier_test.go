package verify

import (
	"testing"

	"github.com/shopspring/decimal"

	"papertrade/pkg/engine"
	"papertrade/pkg/risk"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func trade(action risk.Action, symbol, qty, price string) engine.TradeRecord {
	return engine.TradeRecord{
		Action:   action,
		Symbol:   symbol,
		Quantity: d(qty),
		Price:    d(price),
	}
}

// Round trip on one symbol: two buys averaging to a 105 cost, one winning
// sell at 120, one losing sell at 90.
func roundTripLog() []engine.TradeRecord {
	return []engine.TradeRecord{
		trade(risk.ActionBuy, "AAPL", "10", "100"),
		trade(risk.ActionBuy, "AAPL", "10", "110"),
		trade(risk.ActionSell, "AAPL", "10", "120"),
		trade(risk.ActionSell, "AAPL", "10", "90"),
	}
}

func TestComputeMetricsRoundTrip(t *testing.T) {
	m := ComputeMetrics(d("100000"), roundTripLog())

	if m.Trades != 4 {
		t.Errorf("trades: got %d, want 4", m.Trades)
	}
	if m.Wins != 1 || m.Losses != 1 {
		t.Errorf("wins/losses: got %d/%d, want 1/1", m.Wins, m.Losses)
	}
	if !m.WinRate.Equal(d("0.5")) {
		t.Errorf("win rate: got %s, want 0.5", m.WinRate)
	}

	// Notionals 1000, 1100, 1200, 900 over 100000 capital average to 1.05%.
	if !m.AvgRiskPerTrade.Equal(d("0.0105")) {
		t.Errorf("avg risk: got %s, want 0.0105", m.AvgRiskPerTrade)
	}

	// Equity peaks at 100300 after the winning sell, then settles at 100000.
	wantDD := d("300").Div(d("100300"))
	if !m.MaxDrawdown.Equal(wantDD) {
		t.Errorf("max drawdown: got %s, want %s", m.MaxDrawdown, wantDD)
	}
}

func TestComputeMetricsSellAtCostIsLoss(t *testing.T) {
	trades := []engine.TradeRecord{
		trade(risk.ActionBuy, "AAPL", "10", "100"),
		trade(risk.ActionSell, "AAPL", "10", "100"),
	}
	m := ComputeMetrics(d("100000"), trades)
	if m.Wins != 0 || m.Losses != 1 {
		t.Errorf("sell at avg cost must score as loss, got %d/%d", m.Wins, m.Losses)
	}
}

func TestComputeMetricsEmptyLog(t *testing.T) {
	m := ComputeMetrics(d("100000"), nil)
	if m.Trades != 0 || m.Wins != 0 || m.Losses != 0 {
		t.Errorf("unexpected counts: %+v", m)
	}
	if !m.WinRate.IsZero() || !m.MaxDrawdown.IsZero() || !m.AvgRiskPerTrade.IsZero() {
		t.Errorf("unexpected nonzero metrics: %+v", m)
	}
}

func TestComputeMetricsBuysOnlyNoClosedTrades(t *testing.T) {
	trades := []engine.TradeRecord{
		trade(risk.ActionBuy, "AAPL", "5", "100"),
		trade(risk.ActionBuy, "MSFT", "5", "200"),
	}
	m := ComputeMetrics(d("100000"), trades)
	if m.Wins+m.Losses != 0 {
		t.Errorf("no sells, so no closed trades: %+v", m)
	}
	if !m.WinRate.IsZero() {
		t.Errorf("win rate should stay zero with no closed trades, got %s", m.WinRate)
	}
}

func TestEvaluatePasses(t *testing.T) {
	m := ComputeMetrics(d("100000"), roundTripLog())
	rules := Rules{
		MinWinRate:  d("0.4"),
		MaxDrawdown: d("0.10"),
		MaxAvgRisk:  d("0.02"),
	}

	report := Evaluate(m, rules)
	if !report.Valid {
		t.Fatalf("expected valid report, got %+v", report)
	}
	if len(report.Proofs) != 3 {
		t.Fatalf("expected 3 proofs, got %d", len(report.Proofs))
	}
	for _, p := range report.Proofs {
		if !p.Passed {
			t.Errorf("proof %s failed: actual %s, threshold %s", p.Name, p.Actual, p.Threshold)
		}
	}
}

func TestEvaluateFailsOnWinRate(t *testing.T) {
	m := ComputeMetrics(d("100000"), roundTripLog())
	rules := Rules{
		MinWinRate:  d("0.6"),
		MaxDrawdown: d("0.10"),
		MaxAvgRisk:  d("0.02"),
	}

	report := Evaluate(m, rules)
	if report.Valid {
		t.Fatal("expected invalid report")
	}
	for _, p := range report.Proofs {
		switch p.Name {
		case "win_rate":
			if p.Passed {
				t.Error("win_rate proof should fail at 0.5 against 0.6")
			}
		default:
			if !p.Passed {
				t.Errorf("proof %s should pass: %+v", p.Name, p)
			}
		}
	}
}

func TestEvaluateWinRateVacuousWithoutClosedTrades(t *testing.T) {
	m := ComputeMetrics(d("100000"), []engine.TradeRecord{
		trade(risk.ActionBuy, "AAPL", "1", "100"),
	})
	rules := Rules{
		MinWinRate:  d("0.9"),
		MaxDrawdown: d("0.10"),
		MaxAvgRisk:  d("0.02"),
	}

	report := Evaluate(m, rules)
	if !report.Valid {
		t.Fatalf("win rate must pass vacuously with no closed trades: %+v", report)
	}
}

func TestEvaluateDrawdownThresholdInclusive(t *testing.T) {
	m := Metrics{Trades: 1, MaxDrawdown: d("0.10")}
	rules := Rules{MinWinRate: d("0"), MaxDrawdown: d("0.10"), MaxAvgRisk: d("1")}
	if report := Evaluate(m, rules); !report.Valid {
		t.Errorf("drawdown exactly at threshold must pass: %+v", report)
	}

	m.MaxDrawdown = d("0.1001")
	if report := Evaluate(m, rules); report.Valid {
		t.Error("drawdown above threshold must fail")
	}
}
