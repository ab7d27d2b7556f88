package metrics

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tradelab/fvgscanner/Internal/types"
	"github.com/tradelab/fvgscanner/Internal/utils/formatting"
)

// summarize folds a finished ledger into a result. A run with no closed
// trades yields zero-valued statistics rather than an error.
func (e *Engine) summarize(led *ledger) types.BacktestResult {
	result := types.BacktestResult{
		RunID:          uuid.New().String(),
		InitialCapital: e.InitialCapital,
		FinalCapital:   led.capital,
		Trades:         led.trades,
		EquityCurve:    led.equityCurve,
	}

	if len(led.trades) == 0 {
		return result
	}

	var totalWinAmount, totalLossAmount float64
	for _, trade := range led.trades {
		if trade.PnL > 0 {
			result.WinningTrades++
			totalWinAmount += trade.PnL
		} else {
			result.LosingTrades++
			totalLossAmount += trade.PnL
		}
	}

	result.TotalTrades = len(led.trades)
	result.TotalReturn = led.capital - e.InitialCapital
	result.TotalReturnPercent = result.TotalReturn / e.InitialCapital * 100
	result.WinRate = float64(result.WinningTrades) / float64(result.TotalTrades) * 100

	if result.WinningTrades > 0 {
		result.AvgWin = totalWinAmount / float64(result.WinningTrades)
	}
	if result.LosingTrades > 0 {
		result.AvgLoss = totalLossAmount / float64(result.LosingTrades)
	}
	if totalLossAmount < 0 {
		result.ProfitFactor = totalWinAmount / -totalLossAmount
	}

	result.MaxDrawdown = maxDrawdown(led.equityCurve)

	return result
}

// maxDrawdown walks the equity curve in order and returns the largest
// peak-to-current decline as a percentage.
func maxDrawdown(curve []types.EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}

	peak := curve[0].Equity
	maxDD := 0.0
	for _, point := range curve {
		if point.Equity > peak {
			peak = point.Equity
		}
		dd := (peak - point.Equity) / peak * 100
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// PrintSummary writes a human-readable report of a backtest run to stdout.
func PrintSummary(result types.BacktestResult) {
	line := formatting.Separator(60)

	fmt.Println()
	fmt.Println(line)
	fmt.Println("BACKTEST RESULTS")
	fmt.Println(line)
	fmt.Printf("Run ID:             %s\n", result.RunID)
	fmt.Printf("Initial Capital:    $%.2f\n", result.InitialCapital)
	fmt.Printf("Final Capital:      $%.2f\n", result.FinalCapital)
	fmt.Printf("Total Return:       $%.2f (%.2f%%)\n", result.TotalReturn, result.TotalReturnPercent)
	fmt.Println()
	fmt.Printf("Total Trades:       %d\n", result.TotalTrades)
	fmt.Printf("Winning Trades:     %d (%.2f%%)\n", result.WinningTrades, result.WinRate)
	fmt.Printf("Losing Trades:      %d\n", result.LosingTrades)
	fmt.Println()
	fmt.Printf("Average Win:        $%.2f\n", result.AvgWin)
	fmt.Printf("Average Loss:       $%.2f\n", result.AvgLoss)
	fmt.Printf("Profit Factor:      %.2f\n", result.ProfitFactor)
	fmt.Printf("Max Drawdown:       %.2f%%\n", result.MaxDrawdown)
	fmt.Println(line)
}
