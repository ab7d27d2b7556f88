package metrics

import (
	"testing"
	"time"

	"github.com/tradelab/fvgscanner/Internal/types"
)

func TestMaxDrawdown(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	equities := []float64{100, 120, 90, 110, 80}

	curve := make([]types.EquityPoint, len(equities))
	for i, eq := range equities {
		curve[i] = types.EquityPoint{Timestamp: base.Add(time.Duration(i) * time.Hour), Equity: eq}
	}

	// worst decline is from the 120 peak down to 80
	want := (120.0 - 80.0) / 120.0 * 100
	if got := maxDrawdown(curve); !approxEqual(got, want) {
		t.Errorf("max drawdown = %v, want %v", got, want)
	}

	if got := maxDrawdown(nil); got != 0 {
		t.Errorf("empty curve drawdown = %v, want 0", got)
	}
}

func TestSummarize_Aggregates(t *testing.T) {
	engine := &Engine{InitialCapital: 10000}

	led := newLedger(engine.InitialCapital)
	led.capital = 10100
	for _, pnl := range []float64{100, 50, -50} {
		led.trades = append(led.trades, types.Trade{PnL: pnl})
	}

	result := engine.summarize(led)

	if result.TotalTrades != 3 || result.WinningTrades != 2 || result.LosingTrades != 1 {
		t.Fatalf("trade counts = %d/%d/%d, want 3/2/1",
			result.TotalTrades, result.WinningTrades, result.LosingTrades)
	}
	if !approxEqual(result.WinRate, 200.0/3.0) {
		t.Errorf("win rate = %v, want %v", result.WinRate, 200.0/3.0)
	}
	if !approxEqual(result.AvgWin, 75) {
		t.Errorf("avg win = %v, want 75", result.AvgWin)
	}
	if !approxEqual(result.AvgLoss, -50) {
		t.Errorf("avg loss = %v, want -50", result.AvgLoss)
	}
	if !approxEqual(result.ProfitFactor, 3) {
		t.Errorf("profit factor = %v, want 3", result.ProfitFactor)
	}
	if !approxEqual(result.TotalReturn, 100) {
		t.Errorf("total return = %v, want 100", result.TotalReturn)
	}
	if !approxEqual(result.TotalReturnPercent, 1) {
		t.Errorf("total return percent = %v, want 1", result.TotalReturnPercent)
	}
}

func TestSummarize_BreakEvenTradeCountsAsLoss(t *testing.T) {
	engine := &Engine{InitialCapital: 10000}

	led := newLedger(engine.InitialCapital)
	led.trades = append(led.trades, types.Trade{PnL: 0})

	result := engine.summarize(led)

	if result.LosingTrades != 1 || result.WinningTrades != 0 {
		t.Errorf("zero-pnl trade counted as %d wins / %d losses, want 0/1",
			result.WinningTrades, result.LosingTrades)
	}
	if result.ProfitFactor != 0 {
		t.Errorf("profit factor = %v, want 0 with no loss amount", result.ProfitFactor)
	}
}
