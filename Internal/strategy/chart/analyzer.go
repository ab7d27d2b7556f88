package chart

import (
	"math"
	"sort"

	"github.com/tradelab/fvgscanner/Internal/types"
)

// SwingPoints holds the swing highs and swing lows located in a candle
// sequence.
type SwingPoints struct {
	Highs []types.SwingPoint
	Lows  []types.SwingPoint
}

// FindSwingPoints locates local extrema validated against a symmetric
// lookback window on both sides. A candle is a swing high when no candle
// within lookback on either side has a strictly greater high; swing lows
// mirror that. Candles within lookback of either edge are never
// classified. threshold is accepted for compatibility with callers that
// pass a minimum move but is not currently applied.
func FindSwingPoints(candles []types.Candle, lookback int, threshold float64) SwingPoints {
	var points SwingPoints

	for i := lookback; i < len(candles)-lookback; i++ {
		currentHigh := candles[i].High
		isSwingHigh := true

		for j := i - lookback; j <= i+lookback; j++ {
			if j != i && candles[j].High > currentHigh {
				isSwingHigh = false
				break
			}
		}

		if isSwingHigh {
			points.Highs = append(points.Highs, types.SwingPoint{
				Index:     i,
				Timestamp: candles[i].Timestamp,
				Price:     currentHigh,
				Kind:      types.SwingHigh,
			})
		}

		currentLow := candles[i].Low
		isSwingLow := true

		for j := i - lookback; j <= i+lookback; j++ {
			if j != i && candles[j].Low < currentLow {
				isSwingLow = false
				break
			}
		}

		if isSwingLow {
			points.Lows = append(points.Lows, types.SwingPoint{
				Index:     i,
				Timestamp: candles[i].Timestamp,
				Price:     currentLow,
				Kind:      types.SwingLow,
			})
		}
	}

	return points
}

// FindEqualLevels clusters swing points into equal highs/lows (liquidity
// pools). Clustering is greedy over input order: each unclustered point
// absorbs every later unclustered point within the relative tolerance.
// Only clusters with 2+ members qualify; level price is the cluster mean
// and strength equals the touch count.
func FindEqualLevels(points []types.SwingPoint, tolerance float64) []types.EqualLevel {
	if len(points) < 2 {
		return nil
	}

	var levels []types.EqualLevel
	used := make(map[int]bool)

	for i, point1 := range points {
		if used[i] {
			continue
		}

		cluster := []types.SwingPoint{point1}

		for j := i + 1; j < len(points); j++ {
			if used[j] {
				continue
			}

			priceDiff := math.Abs(point1.Price-points[j].Price) / point1.Price
			if priceDiff <= tolerance {
				cluster = append(cluster, points[j])
				used[j] = true
			}
		}

		if len(cluster) >= 2 {
			sum := 0.0
			for _, p := range cluster {
				sum += p.Price
			}
			levels = append(levels, types.EqualLevel{
				Price:    sum / float64(len(cluster)),
				Count:    len(cluster),
				Kind:     cluster[0].Kind,
				Strength: len(cluster),
			})
		}
	}

	return levels
}

// FindRoundNumbers returns psychological levels near the given price,
// derived from its order of magnitude at three scales. Levels beyond
// maxDistancePct are dropped, exact duplicates removed, and the result
// sorted by distance ascending.
func FindRoundNumbers(price, maxDistancePct float64) []types.RoundNumberLevel {
	if price <= 0 {
		return nil
	}

	magnitude := math.Pow(10, math.Trunc(math.Log10(price)))

	var levels []types.RoundNumberLevel

	for _, scale := range []float64{magnitude, magnitude / 10, magnitude / 100} {
		lower := math.Trunc(price/scale) * scale
		upper := lower + scale

		for _, level := range []float64{lower, upper} {
			if level == 0 {
				continue
			}

			distancePct := math.Abs(level-price) / price * 100
			if distancePct <= maxDistancePct {
				levels = append(levels, types.RoundNumberLevel{
					Price:       level,
					Magnitude:   scale,
					DistancePct: distancePct,
				})
			}
		}
	}

	seen := make(map[float64]bool)
	unique := levels[:0]
	for _, level := range levels {
		if !seen[level.Price] {
			seen[level.Price] = true
			unique = append(unique, level)
		}
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].DistancePct < unique[j].DistancePct
	})

	return unique
}

// FindVolumeClusters groups high-volume candles into price zones that
// may act as support/resistance. Candles at or above the volume
// percentile are sorted by mid price and partitioned into contiguous
// chunks; the chunks come back sorted by total volume descending,
// truncated to numClusters.
func FindVolumeClusters(candles []types.Candle, numClusters int, minVolumePercentile float64) []types.VolumeCluster {
	if len(candles) == 0 || numClusters <= 0 {
		return nil
	}

	volumes := make([]float64, len(candles))
	for i, c := range candles {
		volumes[i] = c.Volume
	}
	threshold := percentile(volumes, minVolumePercentile)

	var highVol []types.Candle
	for _, c := range candles {
		if c.Volume >= threshold {
			highVol = append(highVol, c)
		}
	}

	if len(highVol) < numClusters {
		return nil
	}

	sort.SliceStable(highVol, func(i, j int) bool {
		return highVol[i].MidPrice() < highVol[j].MidPrice()
	})

	chunkSize := len(highVol) / numClusters

	var clusters []types.VolumeCluster
	for i := 0; i < len(highVol); i += chunkSize {
		end := i + chunkSize
		if end > len(highVol) {
			end = len(highVol)
		}
		chunk := highVol[i:end]
		if len(chunk) == 0 {
			continue
		}

		cluster := types.VolumeCluster{
			PriceLow:  chunk[0].Low,
			PriceHigh: chunk[0].High,
		}
		midSum := 0.0
		for _, c := range chunk {
			if c.Low < cluster.PriceLow {
				cluster.PriceLow = c.Low
			}
			if c.High > cluster.PriceHigh {
				cluster.PriceHigh = c.High
			}
			midSum += c.MidPrice()
			cluster.TotalVolume += c.Volume
		}
		cluster.PriceMid = midSum / float64(len(chunk))

		clusters = append(clusters, cluster)
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].TotalVolume > clusters[j].TotalVolume
	})

	if len(clusters) > numClusters {
		clusters = clusters[:numClusters]
	}
	return clusters
}

// linearly interpolated percentile, p in [0, 100]
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*frac
}
