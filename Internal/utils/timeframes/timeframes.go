package timeframes

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tradelab/fvgscanner/Internal/types"
)

// aggregation targets supported from 1-minute source data
var targetDurations = map[string]time.Duration{
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"6h":  6 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
	"1w":  7 * 24 * time.Hour,
}

// ToMinutes converts a timeframe string like "1m", "4h", "1d" or "2w"
// to minutes. An unknown unit suffix is a configuration error.
func ToMinutes(timeframe string) (int, error) {
	if len(timeframe) < 2 {
		return 0, fmt.Errorf("invalid timeframe: %q", timeframe)
	}

	unit := timeframe[len(timeframe)-1]
	value, err := strconv.Atoi(timeframe[:len(timeframe)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid timeframe value in %q: %w", timeframe, err)
	}

	switch unit {
	case 'm':
		return value, nil
	case 'h':
		return value * 60, nil
	case 'd':
		return value * 60 * 24, nil
	case 'w':
		return value * 60 * 24 * 7, nil
	default:
		return 0, fmt.Errorf("unknown timeframe unit %q in %q", string(unit), timeframe)
	}
}

// FromMinutes converts minutes back to the shortest timeframe string.
func FromMinutes(minutes int) string {
	switch {
	case minutes < 60:
		return fmt.Sprintf("%dm", minutes)
	case minutes < 1440:
		return fmt.Sprintf("%dh", minutes/60)
	case minutes < 10080:
		return fmt.Sprintf("%dd", minutes/1440)
	default:
		return fmt.Sprintf("%dw", minutes/10080)
	}
}

// Aggregate rolls 1-minute candles up into the target timeframe.
// Each output bucket keeps the first open, max high, min low, last close
// and summed volume of its constituents. Buckets with no candles are
// omitted. The input must be ordered by timestamp.
func Aggregate(candles []types.Candle, target string) ([]types.Candle, error) {
	duration, ok := targetDurations[target]
	if !ok {
		return nil, fmt.Errorf("unsupported target timeframe: %q", target)
	}

	if len(candles) == 0 {
		return nil, nil
	}

	var aggregated []types.Candle
	var current types.Candle
	var bucketStart time.Time
	open := false

	for _, c := range candles {
		start := c.Timestamp.Truncate(duration)

		if !open || !start.Equal(bucketStart) {
			if open {
				aggregated = append(aggregated, current)
			}
			bucketStart = start
			current = types.Candle{
				Timestamp: start,
				Open:      c.Open,
				High:      c.High,
				Low:       c.Low,
				Close:     c.Close,
				Volume:    c.Volume,
			}
			open = true
			continue
		}

		if c.High > current.High {
			current.High = c.High
		}
		if c.Low < current.Low {
			current.Low = c.Low
		}
		current.Close = c.Close
		current.Volume += c.Volume
	}

	if open {
		aggregated = append(aggregated, current)
	}

	return aggregated, nil
}

// ValidateAggregationTarget reports whether a timeframe can be produced
// by Aggregate. "1m" passes through untouched.
func ValidateAggregationTarget(target string) error {
	if target == "1m" {
		return nil
	}
	if _, ok := targetDurations[target]; !ok {
		return fmt.Errorf("unsupported target timeframe: %q", target)
	}
	return nil
}
