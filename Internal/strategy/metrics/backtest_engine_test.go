package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/tradelab/fvgscanner/Internal/types"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func candleAt(ts time.Time, open, high, low, close float64) types.Candle {
	return types.Candle{Timestamp: ts, Open: open, High: high, Low: low, Close: close, Volume: 100}
}

func TestRunBacktest_LongTakeProfit(t *testing.T) {
	engine := &Engine{InitialCapital: 20000, CommissionPercent: 0.1, SlippagePercent: 0.05}

	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	signal := types.Signal{
		Symbol:       "BTC/USDT",
		Timeframe:    "1h",
		Direction:    types.DirectionLong,
		EntryPrice:   100,
		StopLoss:     95,
		TakeProfit1:  110,
		PositionSize: 100,
		GeneratedAt:  t0,
	}

	series := map[SeriesKey][]types.Candle{
		{Symbol: "BTC/USDT", Timeframe: "1h"}: {
			candleAt(t0, 100, 100.5, 99.8, 100),
			// high reaches the take profit while the low stays above the stop
			candleAt(t0.Add(time.Hour), 100, 110.5, 99, 110),
		},
	}

	result := engine.RunBacktest([]types.Signal{signal}, series)

	if result.TotalTrades != 1 {
		t.Fatalf("total trades = %d, want 1", result.TotalTrades)
	}
	if result.Status != statusComplete {
		t.Errorf("status = %q, want %q", result.Status, statusComplete)
	}
	trade := result.Trades[0]

	if trade.ExitReason != types.ExitTakeProfit {
		t.Errorf("exit reason = %q, want take_profit", trade.ExitReason)
	}

	// entry slips up to 100.05, exit slips down to 109.945
	if !approxEqual(trade.EntryPrice, 100.05) {
		t.Errorf("entry price = %v, want 100.05", trade.EntryPrice)
	}
	if !approxEqual(trade.ExitPrice, 109.945) {
		t.Errorf("exit price = %v, want 109.945", trade.ExitPrice)
	}

	// pnl = (109.945 - 100.05) * 100 minus the exit commission of 10.9945
	wantPnL := 978.5055
	if !approxEqual(trade.PnL, wantPnL) {
		t.Errorf("pnl = %v, want %v", trade.PnL, wantPnL)
	}

	// capital: 20000 - (10005 + 10.005) + 10994.50
	wantCapital := 20979.495
	if !approxEqual(result.FinalCapital, wantCapital) {
		t.Errorf("final capital = %v, want %v", result.FinalCapital, wantCapital)
	}

	if len(result.EquityCurve) != 1 {
		t.Fatalf("equity points = %d, want 1", len(result.EquityCurve))
	}
	if !approxEqual(result.EquityCurve[0].Equity, wantCapital) {
		t.Errorf("equity = %v, want %v", result.EquityCurve[0].Equity, wantCapital)
	}

	if result.WinningTrades != 1 || result.WinRate != 100 {
		t.Errorf("wins = %d rate = %v, want 1 / 100", result.WinningTrades, result.WinRate)
	}
	if result.ProfitFactor != 0 {
		t.Errorf("profit factor with no losses = %v, want 0", result.ProfitFactor)
	}
}

func TestRunBacktest_StopCheckedBeforeTakeProfit(t *testing.T) {
	engine := &Engine{InitialCapital: 20000, CommissionPercent: 0.1, SlippagePercent: 0.05}

	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	signal := types.Signal{
		Symbol:       "BTC/USDT",
		Timeframe:    "1h",
		Direction:    types.DirectionLong,
		EntryPrice:   100,
		StopLoss:     95,
		TakeProfit1:  110,
		PositionSize: 100,
		GeneratedAt:  t0,
	}

	series := map[SeriesKey][]types.Candle{
		{Symbol: "BTC/USDT", Timeframe: "1h"}: {
			candleAt(t0, 100, 100.5, 99.8, 100),
			// both levels touched on the same candle, the stop wins
			candleAt(t0.Add(time.Hour), 100, 111, 94, 95),
		},
	}

	result := engine.RunBacktest([]types.Signal{signal}, series)

	if result.TotalTrades != 1 {
		t.Fatalf("total trades = %d, want 1", result.TotalTrades)
	}
	trade := result.Trades[0]
	if trade.ExitReason != types.ExitStopLoss {
		t.Errorf("exit reason = %q, want stop_loss", trade.ExitReason)
	}
	if trade.PnL >= 0 {
		t.Errorf("stop-out pnl = %v, want negative", trade.PnL)
	}
	if result.LosingTrades != 1 {
		t.Errorf("losing trades = %d, want 1", result.LosingTrades)
	}
}

func TestRunBacktest_ShortTakeProfit(t *testing.T) {
	engine := &Engine{InitialCapital: 20000, CommissionPercent: 0.1, SlippagePercent: 0.05}

	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	signal := types.Signal{
		Symbol:       "ETH/USDT",
		Timeframe:    "1h",
		Direction:    types.DirectionShort,
		EntryPrice:   100,
		StopLoss:     105,
		TakeProfit1:  90,
		PositionSize: 100,
		GeneratedAt:  t0,
	}

	series := map[SeriesKey][]types.Candle{
		{Symbol: "ETH/USDT", Timeframe: "1h"}: {
			candleAt(t0, 100, 100.5, 99.8, 100),
			candleAt(t0.Add(time.Hour), 99, 101, 89, 90),
		},
	}

	result := engine.RunBacktest([]types.Signal{signal}, series)

	if result.TotalTrades != 1 {
		t.Fatalf("total trades = %d, want 1", result.TotalTrades)
	}
	trade := result.Trades[0]
	if trade.ExitReason != types.ExitTakeProfit {
		t.Errorf("exit reason = %q, want take_profit", trade.ExitReason)
	}

	// short entry slips down to 99.95, exit slips up to 90.045
	wantPnL := (99.95-90.045)*100 - 9004.5*0.001
	if !approxEqual(trade.PnL, wantPnL) {
		t.Errorf("pnl = %v, want %v", trade.PnL, wantPnL)
	}
	if trade.PnL <= 0 {
		t.Errorf("short take profit pnl = %v, want positive", trade.PnL)
	}
}

func TestRunBacktest_ZeroSignals(t *testing.T) {
	engine := NewEngine()

	result := engine.RunBacktest(nil, map[SeriesKey][]types.Candle{})

	if result.RunID == "" {
		t.Error("run id must be assigned")
	}
	if result.Status != statusComplete {
		t.Errorf("status = %q, want %q", result.Status, statusComplete)
	}
	if result.TotalTrades != 0 {
		t.Errorf("total trades = %d, want 0", result.TotalTrades)
	}
	if result.TotalReturnPercent != 0 {
		t.Errorf("total return percent = %v, want 0", result.TotalReturnPercent)
	}
	if result.FinalCapital != engine.InitialCapital {
		t.Errorf("final capital = %v, want %v", result.FinalCapital, engine.InitialCapital)
	}
}

func TestRunBacktest_SkipsSignalWithoutData(t *testing.T) {
	engine := NewEngine()

	signal := types.Signal{
		Symbol:       "SOL/USDT",
		Timeframe:    "1h",
		Direction:    types.DirectionLong,
		EntryPrice:   100,
		StopLoss:     95,
		TakeProfit1:  110,
		PositionSize: 10,
		GeneratedAt:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	result := engine.RunBacktest([]types.Signal{signal}, map[SeriesKey][]types.Candle{})

	if result.TotalTrades != 0 {
		t.Errorf("total trades = %d, want 0", result.TotalTrades)
	}
	if result.FinalCapital != engine.InitialCapital {
		t.Errorf("final capital = %v, want untouched %v", result.FinalCapital, engine.InitialCapital)
	}
}

func TestRunBacktest_SkipsSignalExceedingCapital(t *testing.T) {
	// 100 units at ~100.05 plus commission needs more than 10000
	engine := &Engine{InitialCapital: 10000, CommissionPercent: 0.1, SlippagePercent: 0.05}

	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	signal := types.Signal{
		Symbol:       "BTC/USDT",
		Timeframe:    "1h",
		Direction:    types.DirectionLong,
		EntryPrice:   100,
		StopLoss:     95,
		TakeProfit1:  110,
		PositionSize: 100,
		GeneratedAt:  t0,
	}

	series := map[SeriesKey][]types.Candle{
		{Symbol: "BTC/USDT", Timeframe: "1h"}: {
			candleAt(t0, 100, 100.5, 99.8, 100),
			candleAt(t0.Add(time.Hour), 100, 110.5, 99, 110),
		},
	}

	result := engine.RunBacktest([]types.Signal{signal}, series)

	if result.TotalTrades != 0 {
		t.Errorf("total trades = %d, want 0", result.TotalTrades)
	}
	if result.FinalCapital != 10000 {
		t.Errorf("final capital = %v, want untouched 10000", result.FinalCapital)
	}
}

func TestRunBacktest_EarlierSignalConsumesCapitalFirst(t *testing.T) {
	engine := &Engine{InitialCapital: 10100, CommissionPercent: 0.1, SlippagePercent: 0.05}

	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	earlier := types.Signal{
		Symbol:       "BTC/USDT",
		Timeframe:    "1h",
		Direction:    types.DirectionLong,
		EntryPrice:   100,
		StopLoss:     95,
		TakeProfit1:  110,
		PositionSize: 100,
		GeneratedAt:  t0,
	}
	later := earlier
	later.GeneratedAt = t0.Add(2 * time.Hour)

	series := map[SeriesKey][]types.Candle{
		{Symbol: "BTC/USDT", Timeframe: "1h"}: {
			candleAt(t0, 100, 100.5, 99.8, 100),
			// stops out the earlier signal at a loss
			candleAt(t0.Add(time.Hour), 100, 100.2, 94, 95),
			candleAt(t0.Add(2*time.Hour), 100, 101, 99, 100),
			candleAt(t0.Add(3*time.Hour), 100, 101, 99, 100),
		},
	}

	// input order reversed: the sort must process the earlier signal first,
	// leaving too little capital for the later one
	result := engine.RunBacktest([]types.Signal{later, earlier}, series)

	if result.TotalTrades != 1 {
		t.Fatalf("total trades = %d, want 1", result.TotalTrades)
	}
	if result.Trades[0].ExitReason != types.ExitStopLoss {
		t.Errorf("exit reason = %q, want stop_loss", result.Trades[0].ExitReason)
	}

	// 10100 - (10005 + 10.005) + 95*0.9995*100
	wantCapital := 9580.245
	if !approxEqual(result.FinalCapital, wantCapital) {
		t.Errorf("final capital = %v, want %v", result.FinalCapital, wantCapital)
	}
}
