package signals

import (
	"fmt"

	"github.com/tradelab/fvgscanner/Internal/types"
)

// QualityFilter rejects weak proposals before they are persisted or
// notified.
type QualityFilter struct {
	MinConfidence   float64 // pattern confidence, 0..1
	MinRiskReward   float64
	MaxPositionSize float64 // 0 disables the cap
}

// FilterResult carries the verdict for one signal.
type FilterResult struct {
	Signal types.Signal
	Passed bool
	Reason string
}

func NewQualityFilter() *QualityFilter {
	return &QualityFilter{
		MinConfidence: 0.5,
		MinRiskReward: 2.0,
	}
}

// Apply checks one signal against its source pattern.
func (f *QualityFilter) Apply(pattern types.Pattern, signal types.Signal) FilterResult {
	result := FilterResult{Signal: signal}

	if pattern.Confidence < f.MinConfidence {
		result.Reason = fmt.Sprintf("pattern confidence %.2f below minimum %.2f",
			pattern.Confidence, f.MinConfidence)
		return result
	}

	if signal.RiskRewardRatio < f.MinRiskReward {
		result.Reason = fmt.Sprintf("risk/reward %.2f below minimum %.2f",
			signal.RiskRewardRatio, f.MinRiskReward)
		return result
	}

	// stop must sit on the losing side of entry
	if signal.Direction == types.DirectionLong && signal.StopLoss >= signal.EntryPrice {
		result.Reason = "stop loss not below long entry"
		return result
	}
	if signal.Direction == types.DirectionShort && signal.StopLoss <= signal.EntryPrice {
		result.Reason = "stop loss not above short entry"
		return result
	}

	if f.MaxPositionSize > 0 && signal.PositionSize > f.MaxPositionSize {
		result.Reason = fmt.Sprintf("position size %.4f exceeds cap %.4f",
			signal.PositionSize, f.MaxPositionSize)
		return result
	}

	result.Passed = true
	return result
}
