package chart

import (
	"math"
	"testing"
	"time"

	"github.com/tradelab/fvgscanner/Internal/types"
)

func flatSeries(n int, peakIdx int) []types.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]types.Candle, n)
	for i := range candles {
		candles[i] = types.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      99.8,
			High:      100.5,
			Low:       99.5,
			Close:     100.2,
			Volume:    100,
		}
	}
	if peakIdx >= 0 && peakIdx < n {
		candles[peakIdx] = types.Candle{
			Timestamp: base.Add(time.Duration(peakIdx) * time.Hour),
			Open:      100,
			High:      110,
			Low:       99.5,
			Close:     105,
			Volume:    500,
		}
	}
	return candles
}

func TestFindSwingPoints(t *testing.T) {
	candles := flatSeries(41, 20)

	points := FindSwingPoints(candles, 15, 0)

	if len(points.Highs) != 1 {
		t.Fatalf("expected 1 swing high, got %d", len(points.Highs))
	}
	if points.Highs[0].Index != 20 || points.Highs[0].Price != 110 {
		t.Errorf("swing high = index %d price %v, want index 20 price 110", points.Highs[0].Index, points.Highs[0].Price)
	}
	if points.Highs[0].Kind != types.SwingHigh {
		t.Errorf("swing high kind = %q", points.Highs[0].Kind)
	}

	// every classifiable candle shares the series low, so all qualify
	if len(points.Lows) != 11 {
		t.Errorf("expected 11 swing lows (indices 15..25), got %d", len(points.Lows))
	}
	for _, p := range points.Lows {
		if p.Index < 15 || p.Index > 25 {
			t.Errorf("swing low at edge index %d, edges must stay unclassified", p.Index)
		}
	}
}

func TestFindSwingPoints_InsufficientContext(t *testing.T) {
	candles := flatSeries(20, 10)
	points := FindSwingPoints(candles, 15, 0)
	if len(points.Highs) != 0 || len(points.Lows) != 0 {
		t.Errorf("expected no swing points with fewer than 2*lookback+1 candles")
	}
}

func TestFindEqualLevels(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	point := func(idx int, price float64) types.SwingPoint {
		return types.SwingPoint{Index: idx, Timestamp: ts, Price: price, Kind: types.SwingHigh}
	}

	points := []types.SwingPoint{
		point(1, 100.0),
		point(5, 100.1), // within 0.2% of 100
		point(9, 105.0), // alone, no cluster
		point(13, 99.9), // also within tolerance of 100
	}

	levels := FindEqualLevels(points, 0.002)

	if len(levels) != 1 {
		t.Fatalf("expected 1 equal level, got %d", len(levels))
	}

	level := levels[0]
	if level.Count != 3 || level.Strength != 3 {
		t.Errorf("count/strength = %d/%d, want 3/3", level.Count, level.Strength)
	}
	wantPrice := (100.0 + 100.1 + 99.9) / 3
	if math.Abs(level.Price-wantPrice) > 1e-9 {
		t.Errorf("price = %v, want cluster mean %v", level.Price, wantPrice)
	}
	if level.Kind != types.SwingHigh {
		t.Errorf("kind = %q, want %q", level.Kind, types.SwingHigh)
	}
}

func TestFindEqualLevels_TooFewPoints(t *testing.T) {
	points := []types.SwingPoint{{Price: 100}}
	if levels := FindEqualLevels(points, 0.002); levels != nil {
		t.Errorf("expected nil for fewer than 2 points, got %v", levels)
	}
}

func TestFindRoundNumbers(t *testing.T) {
	levels := FindRoundNumbers(123.45, 5.0)

	if len(levels) == 0 {
		t.Fatal("expected round number levels near 123.45")
	}

	seen := make(map[float64]bool)
	for _, level := range levels {
		if level.DistancePct > 5.0 {
			t.Errorf("level %v at %.2f%% exceeds max distance", level.Price, level.DistancePct)
		}
		if seen[level.Price] {
			t.Errorf("duplicate level %v", level.Price)
		}
		seen[level.Price] = true
	}

	for i := 1; i < len(levels); i++ {
		if levels[i].DistancePct < levels[i-1].DistancePct {
			t.Errorf("levels not sorted by distance: %v before %v", levels[i-1].DistancePct, levels[i].DistancePct)
		}
	}

	// 120 and 123 come from the 10x and 1x scales
	if !seen[120] || !seen[123] {
		t.Errorf("expected 120 and 123 among levels, got %v", levels)
	}
}

func TestFindVolumeClusters(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var candles []types.Candle
	for i := 0; i < 40; i++ {
		price := 100 + float64(i)
		volume := 10.0
		if i%2 == 0 {
			volume = 1000 // every other candle carries the volume
		}
		candles = append(candles, types.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    volume,
		})
	}

	clusters := FindVolumeClusters(candles, 5, 70)

	if len(clusters) == 0 {
		t.Fatal("expected volume clusters")
	}
	if len(clusters) > 5 {
		t.Fatalf("expected at most 5 clusters, got %d", len(clusters))
	}

	for i := 1; i < len(clusters); i++ {
		if clusters[i].TotalVolume > clusters[i-1].TotalVolume {
			t.Errorf("clusters not sorted by volume descending")
		}
	}

	for _, cluster := range clusters {
		if cluster.PriceLow > cluster.PriceMid || cluster.PriceMid > cluster.PriceHigh {
			t.Errorf("cluster bounds inconsistent: low %v mid %v high %v", cluster.PriceLow, cluster.PriceMid, cluster.PriceHigh)
		}
	}
}

func TestFindVolumeClusters_TooFewHighVolumeCandles(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := []types.Candle{
		{Timestamp: base, Open: 100, High: 101, Low: 99, Close: 100, Volume: 10},
		{Timestamp: base.Add(time.Hour), Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000},
	}

	if clusters := FindVolumeClusters(candles, 5, 70); clusters != nil {
		t.Errorf("expected nil when high-volume candles < numClusters, got %v", clusters)
	}
}
