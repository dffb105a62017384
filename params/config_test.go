package params

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if !cfg.InitialCash.Equal(d("100000")) {
		t.Errorf("initial cash: got %s", cfg.InitialCash)
	}
	if len(cfg.Symbols) != 4 || cfg.Symbols[0] != "AAPL" {
		t.Errorf("symbols: got %v", cfg.Symbols)
	}
	if cfg.TickInterval != time.Second {
		t.Errorf("tick interval: got %s", cfg.TickInterval)
	}
	if !cfg.Risk.MaxRiskPerTrade.Equal(d("0.01")) ||
		!cfg.Risk.MaxPortfolioDrawdown.Equal(d("0.10")) ||
		!cfg.Risk.MaxPositionSize.Equal(d("0.20")) {
		t.Errorf("risk defaults: %+v", cfg.Risk)
	}
	if cfg.Oracle.BasePrices["AAPL"] != 150 {
		t.Errorf("base prices: %v", cfg.Oracle.BasePrices)
	}
}

func TestRiskLimits(t *testing.T) {
	limits := Default().RiskLimits()
	if !limits.MaxRiskPerTrade.Equal(d("0.01")) ||
		!limits.MaxPortfolioDrawdown.Equal(d("0.10")) ||
		!limits.MaxPositionSize.Equal(d("0.20")) {
		t.Errorf("limits: %+v", limits)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("SANDBOX_INITIAL_CASH", "50000")
	t.Setenv("SANDBOX_SYMBOLS", "NVDA, AMD")
	t.Setenv("SANDBOX_TICK_MS", "250")
	t.Setenv("SANDBOX_LISTEN", ":9090")
	t.Setenv("RISK_MAX_PER_TRADE", "0.02")
	t.Setenv("ORACLE_SEED", "42")
	t.Setenv("STRAT_ORDER_QTY", "5")

	cfg := LoadFromEnv("")

	if !cfg.InitialCash.Equal(d("50000")) {
		t.Errorf("initial cash: got %s", cfg.InitialCash)
	}
	if len(cfg.Symbols) != 2 || cfg.Symbols[0] != "NVDA" || cfg.Symbols[1] != "AMD" {
		t.Errorf("symbols: got %v", cfg.Symbols)
	}
	if cfg.TickInterval != 250*time.Millisecond {
		t.Errorf("tick interval: got %s", cfg.TickInterval)
	}
	if cfg.Listen != ":9090" {
		t.Errorf("listen: got %s", cfg.Listen)
	}
	if !cfg.Risk.MaxRiskPerTrade.Equal(d("0.02")) {
		t.Errorf("risk per trade: got %s", cfg.Risk.MaxRiskPerTrade)
	}
	if cfg.Oracle.Seed != 42 {
		t.Errorf("seed: got %d", cfg.Oracle.Seed)
	}
	if !cfg.Strategy.OrderQty.Equal(d("5")) {
		t.Errorf("order qty: got %s", cfg.Strategy.OrderQty)
	}
}

func TestLoadFromEnvBadValuesKeepDefaults(t *testing.T) {
	t.Setenv("SANDBOX_INITIAL_CASH", "lots")
	t.Setenv("SANDBOX_TICK_MS", "-5")
	t.Setenv("RISK_MAX_DRAWDOWN", "ten percent")

	cfg := LoadFromEnv("")
	def := Default()

	if !cfg.InitialCash.Equal(def.InitialCash) {
		t.Errorf("initial cash: got %s, want default", cfg.InitialCash)
	}
	if cfg.TickInterval != def.TickInterval {
		t.Errorf("tick interval: got %s, want default", cfg.TickInterval)
	}
	if !cfg.Risk.MaxPortfolioDrawdown.Equal(def.Risk.MaxPortfolioDrawdown) {
		t.Errorf("drawdown: got %s, want default", cfg.Risk.MaxPortfolioDrawdown)
	}
}

func TestLoadFromEnvIgnoresBlankSymbols(t *testing.T) {
	t.Setenv("SANDBOX_SYMBOLS", " , ,")
	cfg := LoadFromEnv("")
	if len(cfg.Symbols) != 4 {
		t.Errorf("blank symbol list must keep defaults, got %v", cfg.Symbols)
	}
}
