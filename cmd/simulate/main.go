package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"papertrade/params"
	"papertrade/pkg/engine"
	"papertrade/pkg/market"
	"papertrade/pkg/strategy"
	"papertrade/pkg/util"
	"papertrade/pkg/verify"
)

func main() {
	ticks := flag.Int("ticks", 5000, "number of market ticks to simulate")
	seed := flag.Int64("seed", 42, "oracle RNG seed (0 = time-seeded)")
	flag.Parse()

	cfg := params.LoadFromEnv("")
	if *ticks <= 0 {
		log.Fatal("ticks must be positive")
	}

	oracle := market.NewRandomOracle(market.OracleConfig{
		Seed:         *seed,
		Volatility:   cfg.Oracle.Volatility,
		BasePrices:   cfg.Oracle.BasePrices,
		DefaultPrice: cfg.Oracle.DefaultPrice,
	})

	// The progress bar owns the terminal during the run; order-level
	// logging is disabled and the outcome is reported at the end.
	sugar := zap.NewNop().Sugar()

	session := engine.NewSession(cfg.InitialCash, cfg.RiskLimits(), oracle, util.RealClock{}, sugar)

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

	bar := initProgressBar(*ticks)
	for i := 0; i < *ticks; i++ {
		runner.Step()
		bar.Add(1)
	}
	fmt.Println()

	view := session.PortfolioView()
	metrics := verify.ComputeMetrics(cfg.InitialCash, session.TradeHistory(0))
	report := verify.Evaluate(metrics, verify.Rules{
		MinWinRate:  cfg.Verify.MinWinRate,
		MaxDrawdown: cfg.Verify.MaxDrawdown,
		MaxAvgRisk:  cfg.Verify.MaxAvgRisk,
	})

	fmt.Println("---- simulation result ----")
	fmt.Printf("ticks:        %d\n", *ticks)
	fmt.Printf("cash:         %s\n", view.Cash)
	fmt.Printf("positions:    %d\n", len(view.Positions))
	fmt.Printf("trades:       %d (wins %d, losses %d)\n", metrics.Trades, metrics.Wins, metrics.Losses)
	fmt.Printf("win rate:     %s\n", metrics.WinRate.StringFixed(4))
	fmt.Printf("max drawdown: %s\n", metrics.MaxDrawdown.StringFixed(4))
	fmt.Printf("avg risk:     %s\n", metrics.AvgRiskPerTrade.StringFixed(4))

	fmt.Println("---- verification ----")
	for _, proof := range report.Proofs {
		status := "PASS"
		if !proof.Passed {
			status = "FAIL"
		}
		fmt.Printf("%-20s %s  actual=%s threshold=%s\n",
			proof.Name, status, proof.Actual.StringFixed(4), proof.Threshold.StringFixed(4))
	}
	if report.Valid {
		fmt.Println("strategy verified: all rules hold")
	} else {
		fmt.Println("strategy rejected: one or more rules violated")
	}
}

func initProgressBar(maxTicks int) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Simulating market..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
