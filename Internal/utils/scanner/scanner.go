package scanner

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	datafeed "github.com/tradelab/fvgscanner/Internal/database"
	"github.com/tradelab/fvgscanner/Internal/notifications"
	"github.com/tradelab/fvgscanner/Internal/strategy/detection"
	"github.com/tradelab/fvgscanner/Internal/strategy/signals"
	"github.com/tradelab/fvgscanner/Internal/types"
	"github.com/tradelab/fvgscanner/Internal/utils/config"
	"github.com/tradelab/fvgscanner/Internal/utils/timeframes"
	"github.com/tradelab/fvgscanner/pkg/logger"
)

// candleHistory is how many candles each scan pulls for detection and
// chart context.
const candleHistory = 500

// Scanner runs the detect-generate-persist-notify pipeline across the
// configured symbols and timeframes.
type Scanner struct {
	cfg       *config.Config
	detector  *detection.FVGDetector
	generator *signals.Generator
	filter    *signals.QualityFilter
	notifier  *notifications.Notifier
}

func New(cfg *config.Config) *Scanner {
	detector := detection.NewFVGDetector()
	detector.MinGapPercentage = cfg.Patterns.FairValueGap.MinGapPercentage
	detector.LookbackCandles = cfg.Patterns.FairValueGap.LookbackCandles

	filter := signals.NewQualityFilter()
	filter.MinRiskReward = cfg.Signals.MinRiskReward

	return &Scanner{
		cfg:       cfg,
		detector:  detector,
		generator: signals.NewGeneratorFromConfig(cfg),
		filter:    filter,
		notifier:  notifications.NewNotifier(cfg.Notifications.Email),
	}
}

// ScanResult reports one symbol/timeframe pass.
type ScanResult struct {
	Symbol    string
	Timeframe string
	Patterns  int
	Signals   int
	Err       error
}

type scanJob struct {
	symbol    string
	timeframe string
}

// ScanAll fans the configured symbol/timeframe pairs out over a bounded
// worker pool. Pairs share no mutable state, so they run concurrently;
// each failure is contained in its own result.
func (s *Scanner) ScanAll(ctx context.Context) []ScanResult {
	jobs := make(chan scanJob)
	results := make(chan ScanResult)

	workers := s.cfg.Scanner.Workers
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				patterns, sigs, err := s.scanOne(ctx, job.symbol, job.timeframe)
				results <- ScanResult{
					Symbol:    job.symbol,
					Timeframe: job.timeframe,
					Patterns:  patterns,
					Signals:   sigs,
					Err:       err,
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, symbol := range s.cfg.Scanner.Symbols {
			for _, timeframe := range s.cfg.Scanner.Timeframes {
				select {
				case jobs <- scanJob{symbol: symbol, timeframe: timeframe}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []ScanResult
	for result := range results {
		if result.Err != nil {
			logger.Error("scan failed",
				zap.String("symbol", result.Symbol),
				zap.String("timeframe", result.Timeframe),
				zap.Error(result.Err))
		} else {
			logger.Info("scan finished",
				zap.String("symbol", result.Symbol),
				zap.String("timeframe", result.Timeframe),
				zap.Int("patterns", result.Patterns),
				zap.Int("signals", result.Signals))
		}
		all = append(all, result)
	}
	return all
}

// scanOne loads candles, detects gaps, generates signals linked to
// their saved patterns and sends notifications.
func (s *Scanner) scanOne(ctx context.Context, symbol, timeframe string) (int, int, error) {
	candles, err := s.loadCandles(ctx, symbol, timeframe)
	if err != nil {
		return 0, 0, err
	}
	if len(candles) < 3 {
		return 0, 0, nil
	}
	lastClose := candles[len(candles)-1].Close

	patterns := s.detector.Detect(candles)

	signalCount := 0
	for i := range patterns {
		pattern := &patterns[i]
		pattern.Symbol = symbol
		pattern.Timeframe = timeframe
		pattern.IsFilled = pattern.CheckFilled(lastClose)

		if err := datafeed.SavePattern(ctx, pattern); err != nil {
			logger.Warn("failed to save pattern",
				zap.String("symbol", symbol), zap.Error(err))
			continue
		}

		for _, signal := range s.generator.GenerateSignalsFromPatterns([]types.Pattern{*pattern}, symbol, timeframe, candles) {
			if verdict := s.filter.Apply(*pattern, signal); !verdict.Passed {
				logger.Debug("signal filtered",
					zap.String("symbol", symbol),
					zap.String("reason", verdict.Reason))
				continue
			}

			signal.PatternID = pattern.ID
			if err := datafeed.SaveSignal(ctx, &signal); err != nil {
				logger.Warn("failed to save signal",
					zap.String("symbol", symbol), zap.Error(err))
				continue
			}
			signalCount++

			if _, err := s.notifier.SendSignalNotification(signal); err != nil {
				logger.Warn("notification failed",
					zap.String("symbol", symbol), zap.Error(err))
			}
		}
	}

	return len(patterns), signalCount, nil
}

// loadCandles fetches stored candles for the timeframe, falling back to
// aggregating the 1m series when the timeframe is not stored natively.
func (s *Scanner) loadCandles(ctx context.Context, symbol, timeframe string) ([]types.Candle, error) {
	candles, err := datafeed.GetCandles(ctx, symbol, timeframe, candleHistory)
	if err != nil {
		return nil, fmt.Errorf("loading %s %s candles: %w", symbol, timeframe, err)
	}
	if len(candles) >= 3 || timeframe == "1m" {
		return candles, nil
	}

	minutes, err := timeframes.ToMinutes(timeframe)
	if err != nil {
		return nil, err
	}

	base, err := datafeed.GetCandles(ctx, symbol, "1m", candleHistory*minutes)
	if err != nil {
		return nil, fmt.Errorf("loading %s 1m candles: %w", symbol, err)
	}
	if len(base) == 0 {
		return nil, nil
	}
	return timeframes.Aggregate(base, timeframe)
}

// ExpireStaleSignals sweeps pending signals against the latest price
// and retires the ones that can no longer be acted on.
func (s *Scanner) ExpireStaleSignals(ctx context.Context) error {
	active, err := datafeed.GetActiveSignals(ctx)
	if err != nil {
		return err
	}

	for _, signal := range active {
		candles, err := datafeed.GetCandles(ctx, signal.Symbol, signal.Timeframe, 1)
		if err != nil || len(candles) == 0 {
			continue
		}
		last := candles[len(candles)-1]

		valid, reason := s.generator.CheckSignalValidity(signal, last.Close, last.Timestamp)
		if valid {
			continue
		}

		status := types.StatusCancelled
		if reason == signals.ReasonExpired {
			status = types.StatusExpired
		}
		if err := datafeed.UpdateSignalStatus(ctx, signal.ID, status); err != nil {
			logger.Warn("failed to retire signal",
				zap.Int64("signal_id", signal.ID), zap.Error(err))
			continue
		}
		logger.Info("signal retired",
			zap.Int64("signal_id", signal.ID),
			zap.String("reason", reason))
	}
	return nil
}
