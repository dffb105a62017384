package engine

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"papertrade/pkg/market"
	"papertrade/pkg/risk"
	"papertrade/pkg/util"
)

func testLimits() risk.Limits {
	return risk.Limits{
		MaxRiskPerTrade:      d("0.01"),
		MaxPortfolioDrawdown: d("0.10"),
		MaxPositionSize:      d("0.20"),
	}
}

func newTestSession(cash string, prices map[string]decimal.Decimal) (*Session, *market.FixedOracle) {
	oracle := market.NewFixedOracle(prices)
	clock := util.NewManualClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	session := NewSession(d(cash), testLimits(), oracle, clock, zap.NewNop().Sugar())
	return session, oracle
}

func TestExecuteBuyConservation(t *testing.T) {
	session, _ := newTestSession("100000", map[string]decimal.Decimal{"AAPL": d("150")})

	result, err := session.ExecuteBuy("AAPL", d("6"))
	if err != nil {
		t.Fatalf("ExecuteBuy: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got denial: %s", result.Reason)
	}
	if !result.Price.Equal(d("150")) {
		t.Errorf("expected price 150, got %s", result.Price)
	}
	if result.RiskMetrics == nil {
		t.Error("expected risk metrics on success")
	}

	view := session.PortfolioView()
	if !view.Cash.Equal(d("99100")) {
		t.Errorf("expected cash 100000 - 900 = 99100, got %s", view.Cash)
	}
	if !view.Positions["AAPL"].Equal(d("6")) {
		t.Errorf("expected position 6, got %s", view.Positions["AAPL"])
	}

	history := session.TradeHistory(0)
	if len(history) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(history))
	}
	rec := history[0]
	if rec.Action != risk.ActionBuy || rec.Symbol != "AAPL" ||
		!rec.Quantity.Equal(d("6")) || !rec.Price.Equal(d("150")) {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.ExecutedAt.IsZero() {
		t.Error("expected a timestamp on the record")
	}
}

func TestDeniedBuyLeavesLedgerUntouched(t *testing.T) {
	session, _ := newTestSession("100000", map[string]decimal.Decimal{"AAPL": d("150")})

	// First buy succeeds and fixes the reference state.
	if _, err := session.ExecuteBuy("AAPL", d("6")); err != nil {
		t.Fatalf("setup buy: %v", err)
	}
	before := session.PortfolioView()

	// 1000 shares at 150 blows both the position-size and risk caps.
	result, err := session.ExecuteBuy("AAPL", d("1000"))
	if err != nil {
		t.Fatalf("ExecuteBuy: %v", err)
	}
	if result.Success {
		t.Fatal("expected denial")
	}

	after := session.PortfolioView()
	if !after.Cash.Equal(before.Cash) {
		t.Errorf("cash changed on denial: %s -> %s", before.Cash, after.Cash)
	}
	if !after.Positions["AAPL"].Equal(before.Positions["AAPL"]) {
		t.Errorf("position changed on denial: %s -> %s",
			before.Positions["AAPL"], after.Positions["AAPL"])
	}
	if after.Trades != before.Trades {
		t.Errorf("history grew on denial: %d -> %d", before.Trades, after.Trades)
	}
}

// lowCashSession shapes a ledger with almost no cash but a large holding, so
// portfolio value stays high while the funds check can fail.
func lowCashSession(t *testing.T) *Session {
	t.Helper()
	session, _ := newTestSession("100000", map[string]decimal.Decimal{
		"AAPL":  d("100"),
		"GOOGL": d("50"),
	})
	session.portfolio.Debit(d("99900"))
	session.portfolio.AddPosition("AAPL", d("1000"))
	// Portfolio value: 100 cash + 1000 × 100 = 100100.
	return session
}

func TestInsufficientFundsAfterRiskPasses(t *testing.T) {
	session := lowCashSession(t)

	// Cost 450: ~0.45% risk and size, well within limits, but cash is 100.
	result, err := session.ExecuteBuy("GOOGL", d("9"))
	if err != nil {
		t.Fatalf("ExecuteBuy: %v", err)
	}
	if result.Success {
		t.Fatal("expected funds denial")
	}
	if result.Reason != ReasonInsufficientFunds {
		t.Errorf("expected %q, got %q", ReasonInsufficientFunds, result.Reason)
	}

	view := session.PortfolioView()
	if !view.Cash.Equal(d("100")) {
		t.Errorf("cash changed on funds denial: %s", view.Cash)
	}
	if _, held := view.Positions["GOOGL"]; held {
		t.Error("position created on funds denial")
	}
	if view.Trades != 0 {
		t.Errorf("history grew on funds denial: %d", view.Trades)
	}
}

func TestRiskDenialSurfacesBeforeFundsDenial(t *testing.T) {
	session := lowCashSession(t)

	// Cost 1500 violates both the 1% risk cap and the funds check; the risk
	// check runs first, so its reason wins.
	result, err := session.ExecuteBuy("GOOGL", d("30"))
	if err != nil {
		t.Fatalf("ExecuteBuy: %v", err)
	}
	if result.Success {
		t.Fatal("expected denial")
	}
	if result.Reason == ReasonInsufficientFunds {
		t.Fatal("funds reason surfaced before risk reason")
	}
	if !strings.Contains(result.Reason, "risk per trade") {
		t.Errorf("expected a risk-per-trade reason, got %q", result.Reason)
	}
}

func TestExecuteBuyInvalidQuantity(t *testing.T) {
	session, _ := newTestSession("100000", map[string]decimal.Decimal{"AAPL": d("150")})

	for _, qty := range []string{"0", "-5"} {
		if _, err := session.ExecuteBuy("AAPL", d(qty)); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("qty %s: expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
	if session.PortfolioView().Trades != 0 {
		t.Error("invalid input must not touch the ledger")
	}
}

func TestExecuteUnknownAction(t *testing.T) {
	session, _ := newTestSession("100000", map[string]decimal.Decimal{"AAPL": d("150")})

	if _, err := session.Execute(risk.Action("HOLD"), "AAPL", d("1")); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestExecuteBuyOracleFailureLeavesLedgerUntouched(t *testing.T) {
	session, oracle := newTestSession("100000", map[string]decimal.Decimal{"AAPL": d("150")})
	oracle.FailWith(errors.New("feed down"))

	if _, err := session.ExecuteBuy("AAPL", d("6")); err == nil {
		t.Fatal("expected oracle error to propagate")
	}

	view := session.PortfolioView()
	if !view.Cash.Equal(d("100000")) || len(view.Positions) != 0 || view.Trades != 0 {
		t.Errorf("ledger mutated despite oracle failure: %+v", view)
	}
}

func TestExecuteSell(t *testing.T) {
	session, _ := newTestSession("100000", map[string]decimal.Decimal{"AAPL": d("150")})

	if _, err := session.ExecuteBuy("AAPL", d("6")); err != nil {
		t.Fatalf("setup buy: %v", err)
	}

	result, err := session.ExecuteSell("AAPL", d("4"))
	if err != nil {
		t.Fatalf("ExecuteSell: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got denial: %s", result.Reason)
	}

	view := session.PortfolioView()
	if !view.Cash.Equal(d("99700")) {
		t.Errorf("expected cash 99100 + 600 = 99700, got %s", view.Cash)
	}
	if !view.Positions["AAPL"].Equal(d("2")) {
		t.Errorf("expected position 2, got %s", view.Positions["AAPL"])
	}

	history := session.TradeHistory(1)
	if len(history) != 1 || history[0].Action != risk.ActionSell {
		t.Fatalf("expected a SELL record, got %+v", history)
	}
}

func TestExecuteSellInsufficientPosition(t *testing.T) {
	session, _ := newTestSession("100000", map[string]decimal.Decimal{"AAPL": d("150")})

	result, err := session.ExecuteSell("AAPL", d("1"))
	if err != nil {
		t.Fatalf("ExecuteSell: %v", err)
	}
	if result.Success {
		t.Fatal("expected oversell rejection")
	}
	if result.Reason != ReasonInsufficientPosition {
		t.Errorf("expected %q, got %q", ReasonInsufficientPosition, result.Reason)
	}

	view := session.PortfolioView()
	if !view.Cash.Equal(d("100000")) || view.Trades != 0 {
		t.Errorf("ledger mutated on oversell: %+v", view)
	}
}

func TestSellAllowedDuringDrawdown(t *testing.T) {
	session, _ := newTestSession("100000", map[string]decimal.Decimal{"AAPL": d("150")})

	if _, err := session.ExecuteBuy("AAPL", d("6")); err != nil {
		t.Fatalf("setup buy: %v", err)
	}
	// Force a drawdown far beyond the 10% limit.
	session.portfolio.Debit(d("50000"))

	result, err := session.ExecuteSell("AAPL", d("6"))
	if err != nil {
		t.Fatalf("ExecuteSell: %v", err)
	}
	if !result.Success {
		t.Fatalf("sells must pass risk checks, got denial: %s", result.Reason)
	}
}
