package signals

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/tradelab/fvgscanner/Internal/strategy/chart"
	"github.com/tradelab/fvgscanner/Internal/types"
	"github.com/tradelab/fvgscanner/Internal/utils/config"
	"github.com/tradelab/fvgscanner/pkg/logger"
)

// signal invalidation reasons returned by CheckSignalValidity
const (
	ReasonValid       = "valid"
	ReasonExpired     = "expired"
	ReasonPriceMoved  = "price_moved_away"
	ReasonStopLossHit = "stop_loss_hit"
)

// how far price may drift from entry before a pending signal dies
const maxEntryDriftPercent = 5.0

// builds a candidate signal from one pattern kind
type builderFunc func(pattern types.Pattern, symbol, timeframe string, candles []types.Candle) (types.Signal, bool)

// Generator converts detected patterns plus chart context into trade
// proposals with entry, stop, take profits and position sizing.
type Generator struct {
	MinRiskReward         float64
	StopLossATRMultiplier float64
	TakeProfitLevels      []float64 // fallback multiples for the chart analyzer
	MaxRiskPercent        float64
	AccountSize           float64
	ATRPeriod             int
	SignalTTL             time.Duration

	builders map[string]builderFunc
}

// creates a generator with default settings
func NewGenerator() *Generator {
	g := &Generator{
		MinRiskReward:         2.0,
		StopLossATRMultiplier: 1.5,
		TakeProfitLevels:      []float64{2, 3, 4},
		MaxRiskPercent:        1.0,
		AccountSize:           10000,
		ATRPeriod:             14,
		SignalTTL:             24 * time.Hour,
	}
	g.builders = map[string]builderFunc{
		types.PatternFairValueGap: g.buildFVGSignal,
	}
	return g
}

// creates a generator driven by the loaded configuration
func NewGeneratorFromConfig(cfg *config.Config) *Generator {
	g := NewGenerator()
	g.MinRiskReward = cfg.Signals.MinRiskReward
	g.StopLossATRMultiplier = cfg.Signals.StopLossATRMultiplier
	if len(cfg.Signals.TakeProfitLevels) > 0 {
		g.TakeProfitLevels = cfg.Signals.TakeProfitLevels
	}
	g.MaxRiskPercent = cfg.RiskManagement.MaxRiskPerTradePercent
	g.AccountSize = cfg.RiskManagement.AccountSize
	return g
}

// GenerateSignalsFromPatterns builds one signal per viable pattern.
// Patterns without a registered builder, without a reachable first take
// profit, or below the minimum risk/reward are skipped. Fewer candles
// than the ATR period yields no signals at all.
func (g *Generator) GenerateSignalsFromPatterns(patterns []types.Pattern, symbol, timeframe string, candles []types.Candle) []types.Signal {
	if len(candles) < g.ATRPeriod {
		return nil
	}

	var signals []types.Signal

	for _, pattern := range patterns {
		build, ok := g.builders[pattern.PatternType]
		if !ok {
			logger.Debug("no signal builder for pattern type",
				zap.String("pattern_type", pattern.PatternType))
			continue
		}

		if signal, ok := build(pattern, symbol, timeframe, candles); ok {
			signals = append(signals, signal)
		}
	}

	logger.Info("signal generation finished",
		zap.String("symbol", symbol),
		zap.String("timeframe", timeframe),
		zap.Int("patterns", len(patterns)),
		zap.Int("signals", len(signals)))

	return signals
}

func (g *Generator) buildFVGSignal(pattern types.Pattern, symbol, timeframe string, candles []types.Candle) (types.Signal, bool) {
	atr := CalculateATR(candles, g.ATRPeriod)

	var direction string
	var entryPrice, stopLoss float64

	zone := pattern.GetEntryZone()

	if pattern.Direction == types.DirectionBullish {
		// wait for price to fill into the gap, then go long
		direction = types.DirectionLong
		entryPrice = zone.OptimalEntry
		stopLoss = pattern.PriceLow - atr*g.StopLossATRMultiplier
	} else {
		direction = types.DirectionShort
		entryPrice = zone.OptimalEntry
		stopLoss = pattern.PriceHigh + atr*g.StopLossATRMultiplier
	}

	risk := math.Abs(entryPrice - stopLoss)
	if risk == 0 {
		// degenerate risk sizes to zero, never emit such a signal
		logger.Debug("signal skipped: entry equals stop",
			zap.String("symbol", symbol), zap.Float64("entry", entryPrice))
		return types.Signal{}, false
	}

	targets := chart.CalculateDynamicTakeProfits(entryPrice, stopLoss, direction, candles, 3, g.TakeProfitLevels)
	if len(targets) == 0 {
		logger.Debug("signal skipped: no take profit target",
			zap.String("symbol", symbol), zap.String("timeframe", timeframe))
		return types.Signal{}, false
	}

	rrRatio := targets[0].RRRatio
	if rrRatio < g.MinRiskReward {
		logger.Debug("signal rejected: risk/reward below minimum",
			zap.Float64("rr", rrRatio), zap.Float64("min", g.MinRiskReward))
		return types.Signal{}, false
	}

	riskAmount := g.AccountSize * g.MaxRiskPercent / 100
	positionSize := riskAmount / risk

	signal := types.Signal{
		Symbol:          symbol,
		Timeframe:       timeframe,
		Direction:       direction,
		EntryPrice:      entryPrice,
		StopLoss:        stopLoss,
		TakeProfit1:     targets[0].Price,
		RiskRewardRatio: rrRatio,
		RiskAmount:      riskAmount,
		PositionSize:    positionSize,
		Status:          types.StatusPending,
		GeneratedAt:     time.Now().UTC(),
		Notes:           fmt.Sprintf("FVG %s - Gap: %.8f to %.8f", pattern.Direction, pattern.PriceLow, pattern.PriceHigh),
	}
	signal.ValidUntil = signal.GeneratedAt.Add(g.SignalTTL)

	if len(targets) > 1 {
		tp2 := targets[1].Price
		signal.TakeProfit2 = &tp2
	}
	if len(targets) > 2 {
		tp3 := targets[2].Price
		signal.TakeProfit3 = &tp3
	}

	logger.Info("generated signal",
		zap.String("symbol", symbol),
		zap.String("direction", direction),
		zap.Float64("entry", entryPrice),
		zap.Float64("rr", rrRatio))

	return signal, true
}

// CheckSignalValidity reports whether a pending signal can still be
// acted on, with the reason it cannot.
func (g *Generator) CheckSignalValidity(signal types.Signal, currentPrice float64, currentTime time.Time) (bool, string) {
	if !signal.ValidUntil.IsZero() && currentTime.After(signal.ValidUntil) {
		return false, ReasonExpired
	}

	priceDiffPercent := math.Abs(currentPrice-signal.EntryPrice) / signal.EntryPrice * 100
	if priceDiffPercent > maxEntryDriftPercent {
		return false, ReasonPriceMoved
	}

	if signal.Direction == types.DirectionLong {
		if currentPrice <= signal.StopLoss {
			return false, ReasonStopLossHit
		}
	} else {
		if currentPrice >= signal.StopLoss {
			return false, ReasonStopLossHit
		}
	}

	return true, ReasonValid
}

// CalculateATR computes the Average True Range over the trailing
// period: true range is max(high-low, |high-prevClose|, |low-prevClose|),
// averaged with a simple rolling mean.
func CalculateATR(candles []types.Candle, period int) float64 {
	if len(candles) == 0 || period <= 0 {
		return 0
	}

	if len(candles) < period {
		// not enough data for a full window, fall back to simple range
		maxHigh := candles[0].High
		minLow := candles[0].Low
		for _, c := range candles[1:] {
			if c.High > maxHigh {
				maxHigh = c.High
			}
			if c.Low < minLow {
				minLow = c.Low
			}
		}
		return (maxHigh - minLow) / float64(len(candles))
	}

	trueRanges := make([]float64, len(candles))
	trueRanges[0] = candles[0].High - candles[0].Low
	for i := 1; i < len(candles); i++ {
		highLow := candles[i].High - candles[i].Low
		highClose := math.Abs(candles[i].High - candles[i-1].Close)
		lowClose := math.Abs(candles[i].Low - candles[i-1].Close)

		tr := highLow
		if highClose > tr {
			tr = highClose
		}
		if lowClose > tr {
			tr = lowClose
		}
		trueRanges[i] = tr
	}

	sum := 0.0
	for _, tr := range trueRanges[len(trueRanges)-period:] {
		sum += tr
	}
	return sum / float64(period)
}

// FormatSignalNotification renders a signal as the plain-text body used
// for notifications.
func FormatSignalNotification(signal types.Signal) string {
	arrow := "LONG"
	if signal.Direction == types.DirectionShort {
		arrow = "SHORT"
	}

	msg := fmt.Sprintf(`NEW TRADING SIGNAL

Symbol: %s
Timeframe: %s
Direction: %s

ENTRY: %.8f
STOP LOSS: %.8f

TAKE PROFITS:
  TP1: %.8f (R/R: %.2f)
`, signal.Symbol, signal.Timeframe, arrow, signal.EntryPrice, signal.StopLoss, signal.TakeProfit1, signal.RiskRewardRatio)

	if signal.TakeProfit2 != nil {
		msg += fmt.Sprintf("  TP2: %.8f\n", *signal.TakeProfit2)
	}
	if signal.TakeProfit3 != nil {
		msg += fmt.Sprintf("  TP3: %.8f\n", *signal.TakeProfit3)
	}

	msg += fmt.Sprintf(`
Position Size: %.4f
Risk Amount: $%.2f

Notes: %s

Valid Until: %s
`, signal.PositionSize, signal.RiskAmount, signal.Notes, signal.ValidUntil.Format(time.RFC1123))

	return msg
}
