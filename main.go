package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	datafeed "github.com/tradelab/fvgscanner/Internal/database"
	"github.com/tradelab/fvgscanner/Internal/utils/config"
	"github.com/tradelab/fvgscanner/Internal/utils/scanner"
	"github.com/tradelab/fvgscanner/pkg/logger"
)

func main() {
	once := flag.Bool("once", false, "run a single scan pass and exit")
	flag.Parse()

	_ = godotenv.Load()
	logger.Init()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	if err := datafeed.InitDatabase(); err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer datafeed.CloseDatabase()

	sc := scanner.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runPass(ctx, sc)
	if *once {
		return
	}

	interval := time.Duration(cfg.Scanner.ScanIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("scanner running",
		zap.Duration("interval", interval),
		zap.Strings("symbols", cfg.Scanner.Symbols),
		zap.Strings("timeframes", cfg.Scanner.Timeframes))

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case <-ticker.C:
			runPass(ctx, sc)
		}
	}
}

func runPass(ctx context.Context, sc *scanner.Scanner) {
	results := sc.ScanAll(ctx)
	logger.Info("scan pass complete", zap.Int("pairs", len(results)))

	if err := sc.ExpireStaleSignals(ctx); err != nil {
		logger.Warn("failed to expire stale signals", zap.Error(err))
	}
}
