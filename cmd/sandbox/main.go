package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"papertrade/params"
	"papertrade/pkg/api"
	"papertrade/pkg/engine"
	"papertrade/pkg/market"
	"papertrade/pkg/strategy"
	"papertrade/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	// Setup logging (write to both console and file)
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "data/sandbox.log"
	}

	logger, err := util.NewLoggerWithFile(logFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", logFile)

	// ---- Market data: in-process random walk ----
	oracle := market.NewRandomOracle(market.OracleConfig{
		Seed:         cfg.Oracle.Seed,
		Volatility:   cfg.Oracle.Volatility,
		BasePrices:   cfg.Oracle.BasePrices,
		DefaultPrice: cfg.Oracle.DefaultPrice,
	})

	// ---- Trading session: ledger + risk limiter + executor ----
	session := engine.NewSession(cfg.InitialCash, cfg.RiskLimits(), oracle, util.RealClock{}, sugar)
	sugar.Infow("session_created",
		"initial_cash", cfg.InitialCash,
		"max_risk_per_trade", cfg.Risk.MaxRiskPerTrade,
		"max_drawdown", cfg.Risk.MaxPortfolioDrawdown,
		"max_position_size", cfg.Risk.MaxPositionSize)

	strategies := []strategy.Strategy{
		strategy.NewMomentum(cfg.Strategy.MomentumLookback, cfg.Strategy.MomentumThreshold),
		strategy.NewMeanReversion(cfg.Strategy.ReversionWindow, cfg.Strategy.ReversionThreshold),
	}

	runner := engine.NewRunner(engine.RunnerConfig{
		Symbols:  cfg.Symbols,
		Interval: cfg.TickInterval,
		Window:   cfg.Strategy.PriceWindow,
		OrderQty: cfg.Strategy.OrderQty,
	}, session, oracle, strategies, util.RealClock{}, sugar)

	// ---- Dashboard API ----
	server := api.NewServer(cfg.Listen, session, sugar)
	runner.OnTick(server.BroadcastTick)
	runner.OnTrade(server.BroadcastTrade)

	go func() {
		if err := server.Start(); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sugar.Infow("sandbox_running",
		"symbols", cfg.Symbols,
		"tick_interval_ms", cfg.TickInterval.Milliseconds(),
		"listen", cfg.Listen)

	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		sugar.Errorw("runner_stopped", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("api_shutdown_failed", "err", err)
	}
	sugar.Info("sandbox stopped")
}
