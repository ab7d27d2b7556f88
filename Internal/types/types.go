package types

import "time"

// Candle is a single OHLCV bar. Sequences are ordered by strictly
// increasing timestamp.
type Candle struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
}

// IsBullish reports whether the candle closed above its open.
func (c Candle) IsBullish() bool {
	return c.Close > c.Open
}

// BodyRangeRatio returns body size relative to the full high-low range.
// A candle with zero range returns 0.
func (c Candle) BodyRangeRatio() float64 {
	candleRange := c.High - c.Low
	if candleRange == 0 {
		return 0
	}
	body := c.Close - c.Open
	if body < 0 {
		body = -body
	}
	return body / candleRange
}

// MidPrice returns the midpoint of the candle's high/low range.
func (c Candle) MidPrice() float64 {
	return (c.High + c.Low) / 2
}

// kinds of swing point
const (
	SwingHigh = "swing_high"
	SwingLow  = "swing_low"
)

// SwingPoint is a local price extremum relative to a symmetric lookback
// window.
type SwingPoint struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Kind      string    `json:"type"`
}

// EqualLevel is a liquidity pool: a price zone touched by two or more
// swing points within tolerance.
type EqualLevel struct {
	Price    float64 `json:"price"`
	Count    int     `json:"count"`
	Kind     string  `json:"type"`
	Strength int     `json:"strength"`
}

// RoundNumberLevel is a psychological level near the current price.
type RoundNumberLevel struct {
	Price       float64 `json:"price"`
	Magnitude   float64 `json:"magnitude"`
	DistancePct float64 `json:"distance_pct"`
}

// VolumeCluster is a price zone where an outsized share of volume traded.
type VolumeCluster struct {
	PriceLow    float64 `json:"price_low"`
	PriceHigh   float64 `json:"price_high"`
	PriceMid    float64 `json:"price_mid"`
	TotalVolume float64 `json:"total_volume"`
}

// take profit target sources
const (
	TargetSwing         = "swing"
	TargetEqualLevel    = "equal_level"
	TargetRoundNumber   = "round_number"
	TargetVolumeCluster = "volume_cluster"
	TargetFallback      = "fallback"
)

// TakeProfitTarget is a candidate exit level annotated with its
// reward/risk multiple and the structure it came from.
type TakeProfitTarget struct {
	Price    float64 `json:"price"`
	RRRatio  float64 `json:"rr_ratio"`
	Source   string  `json:"source"`
	Strength int     `json:"strength"`
}
