package timeframes

import (
	"testing"
	"time"

	"github.com/tradelab/fvgscanner/Internal/types"
)

func TestToMinutes(t *testing.T) {
	tests := []struct {
		name      string
		timeframe string
		want      int
		wantErr   bool
	}{
		{name: "one minute", timeframe: "1m", want: 1},
		{name: "five minutes", timeframe: "5m", want: 5},
		{name: "four hours", timeframe: "4h", want: 240},
		{name: "one day", timeframe: "1d", want: 1440},
		{name: "two weeks", timeframe: "2w", want: 20160},
		{name: "unknown unit", timeframe: "3x", wantErr: true},
		{name: "missing value", timeframe: "m", wantErr: true},
		{name: "empty string", timeframe: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToMinutes(tt.timeframe)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ToMinutes(%q) error = %v, wantErr %v", tt.timeframe, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ToMinutes(%q) = %d, want %d", tt.timeframe, got, tt.want)
			}
		})
	}
}

func TestFromMinutes(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{5, "5m"},
		{60, "1h"},
		{240, "4h"},
		{1440, "1d"},
		{10080, "1w"},
	}

	for _, tt := range tests {
		if got := FromMinutes(tt.minutes); got != tt.want {
			t.Errorf("FromMinutes(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestAggregatePreservesOHLCV(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	// ten 1-minute candles spanning two 5-minute buckets
	var candles []types.Candle
	for i := 0; i < 10; i++ {
		candles = append(candles, types.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      100 + float64(i),
			High:      105 + float64(i),
			Low:       95 + float64(i),
			Close:     101 + float64(i),
			Volume:    10,
		})
	}

	aggregated, err := Aggregate(candles, "5m")
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	if len(aggregated) != 2 {
		t.Fatalf("expected 2 aggregated candles, got %d", len(aggregated))
	}

	first := aggregated[0]
	if first.Open != candles[0].Open {
		t.Errorf("open = %v, want first constituent open %v", first.Open, candles[0].Open)
	}
	if first.High != candles[4].High {
		t.Errorf("high = %v, want max constituent high %v", first.High, candles[4].High)
	}
	if first.Low != candles[0].Low {
		t.Errorf("low = %v, want min constituent low %v", first.Low, candles[0].Low)
	}
	if first.Close != candles[4].Close {
		t.Errorf("close = %v, want last constituent close %v", first.Close, candles[4].Close)
	}
	if first.Volume != 50 {
		t.Errorf("volume = %v, want summed volume 50", first.Volume)
	}
}

func TestAggregateUnsupportedTarget(t *testing.T) {
	_, err := Aggregate([]types.Candle{{Timestamp: time.Now()}}, "7m")
	if err == nil {
		t.Fatal("expected error for unsupported target timeframe")
	}
}

func TestAggregateSkipsEmptyBuckets(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	candles := []types.Candle{
		{Timestamp: base, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 3},
		// 20-minute gap, two empty 5m buckets in between
		{Timestamp: base.Add(20 * time.Minute), Open: 2, High: 3, Low: 1.5, Close: 2.5, Volume: 4},
	}

	aggregated, err := Aggregate(candles, "5m")
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if len(aggregated) != 2 {
		t.Fatalf("expected gaps to be omitted, got %d buckets", len(aggregated))
	}
}
