package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"papertrade/pkg/risk"
)

type Risk struct {
	MaxRiskPerTrade      decimal.Decimal
	MaxPortfolioDrawdown decimal.Decimal
	MaxPositionSize      decimal.Decimal
}

type Oracle struct {
	// Seed for the price generator; 0 means time-seeded.
	Seed       int64
	Volatility float64
	// BasePrices per symbol; symbols without an entry start at DefaultPrice.
	BasePrices   map[string]float64
	DefaultPrice float64
}

type Strategy struct {
	MomentumLookback   int
	MomentumThreshold  decimal.Decimal
	ReversionWindow    int
	ReversionThreshold decimal.Decimal
	OrderQty           decimal.Decimal
	PriceWindow        int
}

type Verify struct {
	MinWinRate  decimal.Decimal
	MaxDrawdown decimal.Decimal
	MaxAvgRisk  decimal.Decimal
}

type Config struct {
	InitialCash  decimal.Decimal
	Symbols      []string
	TickInterval time.Duration
	Listen       string
	Risk         Risk
	Oracle       Oracle
	Strategy     Strategy
	Verify       Verify
}

func Default() Config {
	return Config{
		InitialCash:  decimal.NewFromInt(100000),
		Symbols:      []string{"AAPL", "GOOGL", "MSFT", "TSLA"},
		TickInterval: time.Second,
		Listen:       ":8080",
		Risk: Risk{
			MaxRiskPerTrade:      decimal.RequireFromString("0.01"),
			MaxPortfolioDrawdown: decimal.RequireFromString("0.10"),
			MaxPositionSize:      decimal.RequireFromString("0.20"),
		},
		Oracle: Oracle{
			Volatility: 0.02,
			BasePrices: map[string]float64{
				"AAPL":  150,
				"GOOGL": 2800,
				"MSFT":  300,
				"TSLA":  250,
			},
			DefaultPrice: 100,
		},
		Strategy: Strategy{
			MomentumLookback:   5,
			MomentumThreshold:  decimal.RequireFromString("0.01"),
			ReversionWindow:    10,
			ReversionThreshold: decimal.RequireFromString("0.015"),
			OrderQty:           decimal.NewFromInt(2),
			PriceWindow:        64,
		},
		Verify: Verify{
			MinWinRate:  decimal.RequireFromString("0.4"),
			MaxDrawdown: decimal.RequireFromString("0.25"),
			MaxAvgRisk:  decimal.RequireFromString("0.05"),
		},
	}
}

// RiskLimits converts the risk block into the limiter's config type.
func (c Config) RiskLimits() risk.Limits {
	return risk.Limits{
		MaxRiskPerTrade:      c.Risk.MaxRiskPerTrade,
		MaxPortfolioDrawdown: c.Risk.MaxPortfolioDrawdown,
		MaxPositionSize:      c.Risk.MaxPositionSize,
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults. Unparseable
// values keep their default.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.InitialCash = envDecimal("SANDBOX_INITIAL_CASH", cfg.InitialCash)
	if symbols := os.Getenv("SANDBOX_SYMBOLS"); symbols != "" {
		parts := strings.Split(symbols, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			cfg.Symbols = out
		}
	}
	cfg.TickInterval = envDurationMS("SANDBOX_TICK_MS", cfg.TickInterval)
	if listen := os.Getenv("SANDBOX_LISTEN"); listen != "" {
		cfg.Listen = listen
	}

	cfg.Risk.MaxRiskPerTrade = envDecimal("RISK_MAX_PER_TRADE", cfg.Risk.MaxRiskPerTrade)
	cfg.Risk.MaxPortfolioDrawdown = envDecimal("RISK_MAX_DRAWDOWN", cfg.Risk.MaxPortfolioDrawdown)
	cfg.Risk.MaxPositionSize = envDecimal("RISK_MAX_POSITION_SIZE", cfg.Risk.MaxPositionSize)

	cfg.Oracle.Seed = envInt64("ORACLE_SEED", cfg.Oracle.Seed)
	cfg.Oracle.Volatility = envFloat("ORACLE_VOLATILITY", cfg.Oracle.Volatility)
	cfg.Oracle.DefaultPrice = envFloat("ORACLE_DEFAULT_PRICE", cfg.Oracle.DefaultPrice)

	cfg.Strategy.MomentumLookback = envInt("STRAT_MOMENTUM_LOOKBACK", cfg.Strategy.MomentumLookback)
	cfg.Strategy.MomentumThreshold = envDecimal("STRAT_MOMENTUM_THRESHOLD", cfg.Strategy.MomentumThreshold)
	cfg.Strategy.ReversionWindow = envInt("STRAT_REVERSION_WINDOW", cfg.Strategy.ReversionWindow)
	cfg.Strategy.ReversionThreshold = envDecimal("STRAT_REVERSION_THRESHOLD", cfg.Strategy.ReversionThreshold)
	cfg.Strategy.OrderQty = envDecimal("STRAT_ORDER_QTY", cfg.Strategy.OrderQty)
	cfg.Strategy.PriceWindow = envInt("STRAT_PRICE_WINDOW", cfg.Strategy.PriceWindow)

	cfg.Verify.MinWinRate = envDecimal("VERIFY_MIN_WIN_RATE", cfg.Verify.MinWinRate)
	cfg.Verify.MaxDrawdown = envDecimal("VERIFY_MAX_DRAWDOWN", cfg.Verify.MaxDrawdown)
	cfg.Verify.MaxAvgRisk = envDecimal("VERIFY_MAX_AVG_RISK", cfg.Verify.MaxAvgRisk)

	return cfg
}

func envDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if raw := os.Getenv(key); raw != "" {
		if v, err := decimal.NewFromString(raw); err == nil {
			return v
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return v
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return fallback
}

func envDurationMS(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return fallback
}
