package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	datafeed "github.com/tradelab/fvgscanner/Internal/database"
	"github.com/tradelab/fvgscanner/Internal/strategy/detection"
	"github.com/tradelab/fvgscanner/Internal/strategy/metrics"
	"github.com/tradelab/fvgscanner/Internal/strategy/signals"
	"github.com/tradelab/fvgscanner/Internal/types"
	"github.com/tradelab/fvgscanner/Internal/utils/config"
	"github.com/tradelab/fvgscanner/Internal/utils/formatting"
	"github.com/tradelab/fvgscanner/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	_ = godotenv.Load("../../.env")
	logger.Init()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	if err := datafeed.InitDatabase(); err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer datafeed.CloseDatabase()

	ctx := context.Background()

	detector := detection.NewFVGDetector()
	detector.MinGapPercentage = cfg.Patterns.FairValueGap.MinGapPercentage
	detector.LookbackCandles = cfg.Patterns.FairValueGap.LookbackCandles
	generator := signals.NewGeneratorFromConfig(cfg)

	var allSignals []types.Signal
	series := make(map[metrics.SeriesKey][]types.Candle)

	for _, symbol := range cfg.Scanner.Symbols {
		for _, timeframe := range cfg.Scanner.Timeframes {
			candles, err := datafeed.GetCandles(ctx, symbol, timeframe, 0)
			if err != nil {
				logger.Warn("skipping pair",
					zap.String("symbol", symbol),
					zap.String("timeframe", timeframe),
					zap.Error(err))
				continue
			}
			candles = clipToWindow(candles, cfg.Backtesting)
			if len(candles) < 3 {
				continue
			}
			series[metrics.SeriesKey{Symbol: symbol, Timeframe: timeframe}] = candles

			for _, pattern := range detector.Detect(candles) {
				pattern.Symbol = symbol
				pattern.Timeframe = timeframe

				for _, signal := range generator.GenerateSignalsFromPatterns([]types.Pattern{pattern}, symbol, timeframe, candles) {
					// replay from the moment the pattern completed, not from now
					signal.GeneratedAt = pattern.EndTimestamp
					allSignals = append(allSignals, signal)
				}
			}
		}
	}

	logger.Info("backtest input ready",
		zap.Int("signals", len(allSignals)),
		zap.Int("series", len(series)))

	engine := metrics.NewEngineFromConfig(cfg.Backtesting)
	result := engine.RunBacktest(allSignals, series)

	metrics.PrintSummary(result)
	printTrades(result.Trades)

	if len(result.Trades) > 0 {
		if err := datafeed.SaveBacktestTrades(ctx, result.RunID, result.Trades); err != nil {
			logger.Warn("failed to persist backtest trades", zap.Error(err))
		}
	}
}

// clipToWindow limits the series to the configured backtest date range.
func clipToWindow(candles []types.Candle, cfg config.BacktestConfig) []types.Candle {
	start := formatting.ParseDate(cfg.StartDate)
	end := formatting.ParseDate(cfg.EndDate)

	var clipped []types.Candle
	for _, c := range candles {
		if !start.IsZero() && c.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && c.Timestamp.After(end) {
			continue
		}
		clipped = append(clipped, c)
	}
	return clipped
}

func printTrades(trades []types.Trade) {
	if len(trades) == 0 {
		return
	}

	fmt.Println("\nFirst trades:")
	limit := len(trades)
	if limit > 10 {
		limit = 10
	}
	for _, t := range trades[:limit] {
		fmt.Printf("  %s %-5s %-10s entry %.4f exit %.4f (%s) pnl $%.2f (%.2f%%)\n",
			t.EntryTime.Format("2006-01-02 15:04"), t.Direction, t.Symbol,
			t.EntryPrice, t.ExitPrice, t.ExitReason, t.PnL, t.PnLPercent)
	}
}
