package metrics

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/tradelab/fvgscanner/Internal/types"
	"github.com/tradelab/fvgscanner/Internal/utils/config"
	"github.com/tradelab/fvgscanner/pkg/logger"
)

// SeriesKey addresses one candle series in the backtest input.
type SeriesKey struct {
	Symbol    string
	Timeframe string
}

// run states of a single backtest ledger
const (
	statusIdle     = "idle"
	statusRunning  = "running"
	statusComplete = "complete"
)

// ledger holds the mutable per-run state: capital, closed trades and the
// equity curve. It is created fresh for every run and threaded through
// the simulation, so concurrent independent runs never share state.
type ledger struct {
	capital     float64
	trades      []types.Trade
	equityCurve []types.EquityPoint
	status      string
}

func newLedger(initialCapital float64) *ledger {
	return &ledger{capital: initialCapital, status: statusIdle}
}

type position struct {
	symbol     string
	direction  string
	entryPrice float64
	size       float64
	entryTime  time.Time
	stopLoss   float64
	takeProfit float64
}

type exitEvent struct {
	price  float64
	time   time.Time
	reason string
}

// Engine replays signals against historical candles, charging
// commission on both sides and slippage against the trader.
type Engine struct {
	InitialCapital    float64
	CommissionPercent float64
	SlippagePercent   float64
}

// creates an engine with default settings
func NewEngine() *Engine {
	return &Engine{
		InitialCapital:    10000,
		CommissionPercent: 0.1,
		SlippagePercent:   0.05,
	}
}

// creates an engine driven by the loaded configuration
func NewEngineFromConfig(cfg config.BacktestConfig) *Engine {
	return &Engine{
		InitialCapital:    cfg.InitialCapital,
		CommissionPercent: cfg.CommissionPercent,
		SlippagePercent:   cfg.SlippagePercent,
	}
}

// RunBacktest simulates every signal in generation-time order against
// the candle series keyed by symbol and timeframe. Signals with missing
// data or insufficient capital are skipped, never fatal; candle series
// must be sorted ascending by timestamp.
func (e *Engine) RunBacktest(signals []types.Signal, series map[SeriesKey][]types.Candle) types.BacktestResult {
	led := newLedger(e.InitialCapital)
	led.status = statusRunning

	// stable sort: later signals must see capital left by earlier ones,
	// ties keep input order
	ordered := make([]types.Signal, len(signals))
	copy(ordered, signals)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].GeneratedAt.Before(ordered[j].GeneratedAt)
	})

	logger.Info("running backtest",
		zap.Int("signals", len(ordered)),
		zap.Float64("initial_capital", e.InitialCapital))

	for _, signal := range ordered {
		e.processSignal(led, signal, series)
	}

	result := e.summarize(led)
	led.status = statusComplete
	result.Status = led.status

	logger.Info("backtest complete",
		zap.Float64("final_capital", result.FinalCapital),
		zap.Float64("return_percent", result.TotalReturnPercent),
		zap.Float64("win_rate", result.WinRate))

	return result
}

func (e *Engine) processSignal(led *ledger, signal types.Signal, series map[SeriesKey][]types.Candle) {
	candles, ok := series[SeriesKey{Symbol: signal.Symbol, Timeframe: signal.Timeframe}]
	if !ok {
		logger.Warn("no candle data for signal",
			zap.String("symbol", signal.Symbol),
			zap.String("timeframe", signal.Timeframe))
		return
	}

	start := sort.Search(len(candles), func(i int) bool {
		return !candles[i].Timestamp.Before(signal.GeneratedAt)
	})
	window := candles[start:]
	if len(window) < 2 {
		return
	}

	entryPrice := e.applySlippage(signal.EntryPrice, signal.Direction, false)
	size := signal.PositionSize

	entryCost := size * entryPrice
	commission := entryCost * e.CommissionPercent / 100
	if entryCost+commission > led.capital {
		logger.Debug("insufficient capital for signal",
			zap.String("symbol", signal.Symbol),
			zap.Float64("required", entryCost+commission),
			zap.Float64("capital", led.capital))
		return
	}
	led.capital -= entryCost + commission

	pos := position{
		symbol:     signal.Symbol,
		direction:  signal.Direction,
		entryPrice: entryPrice,
		size:       size,
		entryTime:  window[0].Timestamp,
		stopLoss:   signal.StopLoss,
		takeProfit: signal.TakeProfit1,
	}

	for _, candle := range window[1:] {
		if exit, fired := checkExit(pos, candle); fired {
			e.closePosition(led, pos, exit)
			return
		}
	}

	// position never resolved in available data: no closed trade, no
	// equity point, entry cost stays committed
	logger.Debug("position did not close in available data",
		zap.String("symbol", pos.symbol))
}

// checkExit tests the candle against the position's exit levels, stop
// loss always taking precedence over take profit.
func checkExit(pos position, candle types.Candle) (exitEvent, bool) {
	if pos.direction == types.DirectionLong {
		if candle.Low <= pos.stopLoss {
			return exitEvent{price: pos.stopLoss, time: candle.Timestamp, reason: types.ExitStopLoss}, true
		}
		if candle.High >= pos.takeProfit {
			return exitEvent{price: pos.takeProfit, time: candle.Timestamp, reason: types.ExitTakeProfit}, true
		}
		return exitEvent{}, false
	}

	if candle.High >= pos.stopLoss {
		return exitEvent{price: pos.stopLoss, time: candle.Timestamp, reason: types.ExitStopLoss}, true
	}
	if candle.Low <= pos.takeProfit {
		return exitEvent{price: pos.takeProfit, time: candle.Timestamp, reason: types.ExitTakeProfit}, true
	}
	return exitEvent{}, false
}

func (e *Engine) closePosition(led *ledger, pos position, exit exitEvent) {
	exitPrice := e.applySlippage(exit.price, pos.direction, true)

	var pnl float64
	if pos.direction == types.DirectionLong {
		pnl = (exitPrice - pos.entryPrice) * pos.size
	} else {
		pnl = (pos.entryPrice - exitPrice) * pos.size
	}

	exitNotional := pos.size * exitPrice
	pnl -= exitNotional * e.CommissionPercent / 100

	led.capital += exitNotional

	led.trades = append(led.trades, types.Trade{
		Symbol:       pos.symbol,
		Direction:    pos.direction,
		EntryPrice:   pos.entryPrice,
		ExitPrice:    exitPrice,
		EntryTime:    pos.entryTime,
		ExitTime:     exit.time,
		ExitReason:   exit.reason,
		PositionSize: pos.size,
		PnL:          pnl,
		PnLPercent:   pnl / (pos.size * pos.entryPrice) * 100,
	})
	led.equityCurve = append(led.equityCurve, types.EquityPoint{
		Timestamp: exit.time,
		Equity:    led.capital,
	})

	logger.Debug("closed position",
		zap.String("symbol", pos.symbol),
		zap.String("direction", pos.direction),
		zap.String("reason", exit.reason),
		zap.Float64("pnl", pnl))
}

// applySlippage shifts the price against the trader: entries fill worse
// than quoted, exits give back less.
func (e *Engine) applySlippage(price float64, direction string, isExit bool) float64 {
	slippage := price * e.SlippagePercent / 100

	if direction == types.DirectionLong {
		if isExit {
			return price - slippage
		}
		return price + slippage
	}
	if isExit {
		return price + slippage
	}
	return price - slippage
}
