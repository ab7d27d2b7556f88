package types

import "time"

// trade exit reasons
const (
	ExitStopLoss   = "stop_loss"
	ExitTakeProfit = "take_profit"
)

// Trade is a closed simulated trade produced by a backtest run.
type Trade struct {
	Symbol       string    `json:"symbol"`
	Direction    string    `json:"direction"`
	EntryPrice   float64   `json:"entry_price"`
	ExitPrice    float64   `json:"exit_price"`
	EntryTime    time.Time `json:"entry_time"`
	ExitTime     time.Time `json:"exit_time"`
	ExitReason   string    `json:"exit_reason"`
	PositionSize float64   `json:"position_size"`
	PnL          float64   `json:"pnl"`
	PnLPercent   float64   `json:"pnl_percent"`
}

// EquityPoint records account equity after a closed trade.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Equity    float64   `json:"equity"`
}

// BacktestResult is the aggregate outcome of one backtest run.
type BacktestResult struct {
	RunID              string        `json:"run_id"`
	Status             string        `json:"status"`
	InitialCapital     float64       `json:"initial_capital"`
	FinalCapital       float64       `json:"final_capital"`
	TotalReturn        float64       `json:"total_return"`
	TotalReturnPercent float64       `json:"total_return_percent"`
	TotalTrades        int           `json:"total_trades"`
	WinningTrades      int           `json:"winning_trades"`
	LosingTrades       int           `json:"losing_trades"`
	WinRate            float64       `json:"win_rate"`
	AvgWin             float64       `json:"avg_win"`
	AvgLoss            float64       `json:"avg_loss"`
	ProfitFactor       float64       `json:"profit_factor"`
	MaxDrawdown        float64       `json:"max_drawdown"`
	Trades             []Trade       `json:"trades"`
	EquityCurve        []EquityPoint `json:"equity_curve"`
}
