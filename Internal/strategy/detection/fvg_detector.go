package detection

import (
	"sort"

	"github.com/tradelab/fvgscanner/Internal/types"
)

// detects Fair Value Gaps (imbalances) in price action.
//
// A Fair Value Gap spans three consecutive candles:
//   - Bullish FVG: gap between candle[0].High and candle[2].Low with a
//     strong bullish candle[1] (impulse move up)
//   - Bearish FVG: gap between candle[0].Low and candle[2].High with a
//     strong bearish candle[1] (impulse move down)
//
// These gaps mark areas where price moved too fast with minimal trading,
// leaving an imbalance price often returns to fill.
type FVGDetector struct {
	MinGapPercentage float64 // Minimum gap size as % of impulse close
	LookbackCandles  int     // Trailing window of candles to scan
}

// creates a new detector with default settings
func NewFVGDetector() *FVGDetector {
	return &FVGDetector{
		MinGapPercentage: 0.1,
		LookbackCandles:  100,
	}
}

// Detect scans the trailing lookback window for Fair Value Gaps.
// Requires at least 3 candles; returns a pairwise non-overlapping set.
func (d *FVGDetector) Detect(candles []types.Candle) []types.Pattern {
	if len(candles) < 3 {
		return nil
	}

	start := len(candles) - d.LookbackCandles
	if start < 0 {
		start = 0
	}

	var candidates []types.Pattern

	for i := start; i < len(candles)-2; i++ {
		c0, c1, c2 := candles[i], candles[i+1], candles[i+2]

		if p, ok := d.detectBullishFVG(c0, c1, c2); ok {
			candidates = append(candidates, p)
		}
		if p, ok := d.detectBearishFVG(c0, c1, c2); ok {
			candidates = append(candidates, p)
		}
	}

	return FilterOverlapping(candidates)
}

func (d *FVGDetector) detectBullishFVG(c0, c1, c2 types.Candle) (types.Pattern, bool) {
	gapBottom := c0.High
	gapTop := c2.Low

	if gapTop <= gapBottom {
		return types.Pattern{}, false
	}

	gapSize := gapTop - gapBottom
	gapPercentage := gapSize / c1.Close * 100
	if gapPercentage < d.MinGapPercentage {
		return types.Pattern{}, false
	}

	// Impulse candle must be bullish with a dominant body
	impulseStrength := c1.BodyRangeRatio()
	if !c1.IsBullish() || impulseStrength <= 0.5 {
		return types.Pattern{}, false
	}

	return types.Pattern{
		PatternType:    types.PatternFairValueGap,
		Direction:      types.DirectionBullish,
		StartTimestamp: c0.Timestamp,
		EndTimestamp:   c2.Timestamp,
		PriceHigh:      gapTop,
		PriceLow:       gapBottom,
		GapSize:        gapSize,
		GapPercentage:  gapPercentage,
		Confidence:     calculateConfidence(gapPercentage, impulseStrength),
	}, true
}

func (d *FVGDetector) detectBearishFVG(c0, c1, c2 types.Candle) (types.Pattern, bool) {
	gapTop := c0.Low
	gapBottom := c2.High

	if gapTop <= gapBottom {
		return types.Pattern{}, false
	}

	gapSize := gapTop - gapBottom
	gapPercentage := gapSize / c1.Close * 100
	if gapPercentage < d.MinGapPercentage {
		return types.Pattern{}, false
	}

	impulseStrength := c1.BodyRangeRatio()
	if c1.IsBullish() || impulseStrength <= 0.5 {
		return types.Pattern{}, false
	}

	return types.Pattern{
		PatternType:    types.PatternFairValueGap,
		Direction:      types.DirectionBearish,
		StartTimestamp: c0.Timestamp,
		EndTimestamp:   c2.Timestamp,
		PriceHigh:      gapTop,
		PriceLow:       gapBottom,
		GapSize:        gapSize,
		GapPercentage:  gapPercentage,
		Confidence:     calculateConfidence(gapPercentage, impulseStrength),
	}, true
}

// scores a gap between 0 and 1: larger gaps and stronger impulse
// candles are more reliable
func calculateConfidence(gapPercentage, impulseStrength float64) float64 {
	confidence := 0.5

	if gapPercentage > 0.5 {
		confidence += 0.2
	}
	if gapPercentage > 1.0 {
		confidence += 0.1
	}

	if impulseStrength > 0.7 {
		confidence += 0.1
	}
	if impulseStrength > 0.9 {
		confidence += 0.1
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// FilterOverlapping keeps the strongest patterns whose candle intervals
// do not intersect. Candidates are ranked by confidence, gap size
// breaking ties, then kept greedily.
func FilterOverlapping(patterns []types.Pattern) []types.Pattern {
	if len(patterns) == 0 {
		return nil
	}

	ranked := make([]types.Pattern, len(patterns))
	copy(ranked, patterns)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Confidence != ranked[j].Confidence {
			return ranked[i].Confidence > ranked[j].Confidence
		}
		return ranked[i].GapSize > ranked[j].GapSize
	})

	var filtered []types.Pattern
	for _, candidate := range ranked {
		overlaps := false
		for _, kept := range filtered {
			if candidate.Overlaps(kept) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			filtered = append(filtered, candidate)
		}
	}

	return filtered
}
