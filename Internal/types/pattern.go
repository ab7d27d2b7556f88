package types

import "time"

// pattern kinds
const (
	PatternFairValueGap = "fair_value_gap"
)

// pattern directions
const (
	DirectionBullish = "bullish"
	DirectionBearish = "bearish"
)

// Pattern is a detected price-action pattern spanning a candle interval.
// For a Fair Value Gap the interval covers exactly three consecutive
// candles and PriceHigh > PriceLow always holds.
type Pattern struct {
	ID             int64     `json:"id,omitempty"`
	Symbol         string    `json:"symbol"`
	Timeframe      string    `json:"timeframe"`
	PatternType    string    `json:"pattern_type"`
	Direction      string    `json:"direction"`
	StartTimestamp time.Time `json:"start_timestamp"`
	EndTimestamp   time.Time `json:"end_timestamp"`
	PriceHigh      float64   `json:"price_high"`
	PriceLow       float64   `json:"price_low"`
	GapSize        float64   `json:"gap_size"`
	GapPercentage  float64   `json:"gap_percentage"`
	Confidence     float64   `json:"confidence_score"`
	IsFilled       bool      `json:"is_filled"`
	DetectedAt     time.Time `json:"detected_at,omitempty"`
}

// Overlaps reports whether the two patterns' candle intervals intersect.
// Intervals intersect unless one ends strictly before the other starts.
func (p Pattern) Overlaps(other Pattern) bool {
	return !(p.EndTimestamp.Before(other.StartTimestamp) || other.EndTimestamp.Before(p.StartTimestamp))
}

// CheckFilled reports whether price has traded back into the gap zone.
func (p Pattern) CheckFilled(currentPrice float64) bool {
	return currentPrice >= p.PriceLow && currentPrice <= p.PriceHigh
}

// EntryZone is the preferred fill region of a gap for trade entry.
type EntryZone struct {
	EntryLow     float64 `json:"entry_low"`
	EntryHigh    float64 `json:"entry_high"`
	OptimalEntry float64 `json:"optimal_entry"`
}

// GetEntryZone returns the half of the gap nearer the fill direction,
// with the optimal entry 25% into the gap.
func (p Pattern) GetEntryZone() EntryZone {
	width := p.PriceHigh - p.PriceLow

	if p.Direction == DirectionBullish {
		return EntryZone{
			EntryLow:     p.PriceLow,
			EntryHigh:    p.PriceLow + width*0.5,
			OptimalEntry: p.PriceLow + width*0.25,
		}
	}
	return EntryZone{
		EntryLow:     p.PriceHigh - width*0.5,
		EntryHigh:    p.PriceHigh,
		OptimalEntry: p.PriceHigh - width*0.25,
	}
}
