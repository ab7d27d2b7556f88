package types

import "time"

// signal directions
const (
	DirectionLong  = "long"
	DirectionShort = "short"
)

// signal lifecycle states
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusFilled    = "filled"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

// Signal is a risk-bounded trade proposal built from a detected pattern.
// StopLoss sits on the losing side of EntryPrice for the direction, and
// RiskRewardRatio is at least the configured minimum.
type Signal struct {
	ID              int64     `json:"id,omitempty"`
	PatternID       int64     `json:"pattern_id,omitempty"`
	Symbol          string    `json:"symbol"`
	Timeframe       string    `json:"timeframe"`
	Direction       string    `json:"direction"`
	EntryPrice      float64   `json:"entry_price"`
	StopLoss        float64   `json:"stop_loss"`
	TakeProfit1     float64   `json:"take_profit_1"`
	TakeProfit2     *float64  `json:"take_profit_2,omitempty"`
	TakeProfit3     *float64  `json:"take_profit_3,omitempty"`
	RiskRewardRatio float64   `json:"risk_reward_ratio"`
	RiskAmount      float64   `json:"risk_amount"`
	PositionSize    float64   `json:"position_size"`
	Status          string    `json:"status"`
	ValidUntil      time.Time `json:"valid_until"`
	GeneratedAt     time.Time `json:"generated_at"`
	Notes           string    `json:"notes,omitempty"`
}

// SignalSummary aggregates a batch of signals for reporting.
type SignalSummary struct {
	Total     int      `json:"total"`
	Long      int      `json:"long"`
	Short     int      `json:"short"`
	TotalRisk float64  `json:"total_risk"`
	Symbols   []string `json:"symbols"`
}

// SummarizeSignals counts directions, sums risked capital and collects
// the distinct symbols in input order.
func SummarizeSignals(signals []Signal) SignalSummary {
	summary := SignalSummary{}
	seen := make(map[string]bool)

	for _, s := range signals {
		summary.Total++
		if s.Direction == DirectionLong {
			summary.Long++
		} else if s.Direction == DirectionShort {
			summary.Short++
		}
		summary.TotalRisk += s.RiskAmount

		if !seen[s.Symbol] {
			seen[s.Symbol] = true
			summary.Symbols = append(summary.Symbols, s.Symbol)
		}
	}

	return summary
}
