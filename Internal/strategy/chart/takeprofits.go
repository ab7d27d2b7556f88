package chart

import (
	"math"
	"sort"

	"github.com/tradelab/fvgscanner/Internal/types"
)

const (
	// targets below this reward/risk multiple are never proposed
	minTargetRR = 1.5

	// candidates within this relative distance of each other collapse
	// into the stronger one
	duplicateTolerance = 0.005

	swingLookback       = 15
	roundNumberDistance = 10.0
	volumeClusterCount  = 5
	volumePercentile    = 70.0
)

// per-source base strength; equal levels add their touch count on top
const (
	strengthSwing         = 2
	strengthEqualLevelAdd = 2
	strengthRoundNumber   = 1
	strengthVolumeCluster = 1
)

// reward/risk buckets used to diversify the selected targets
var rrBuckets = []struct {
	min, max float64
}{
	{1.5, 2.5},
	{2.5, 4.0},
	{4.0, math.Inf(1)},
}

// CalculateDynamicTakeProfits derives take profit levels from chart
// structure: swing points, equal levels, round numbers and volume
// clusters on the profitable side of entry. Candidates under 1.5R are
// discarded, near-duplicates collapse into the stronger candidate
// (first seen wins a tie), and one strongest target is drawn from each
// reward/risk bucket (near, mid, far) before falling back to remaining
// candidates. With no structure at all, fixed multiples of risk are
// returned instead. Output is sorted ascending by reward/risk and
// truncated to maxLevels.
func CalculateDynamicTakeProfits(entryPrice, stopLoss float64, direction string, candles []types.Candle, maxLevels int, fallbackMultiples []float64) []types.TakeProfitTarget {
	risk := math.Abs(entryPrice - stopLoss)
	if risk == 0 || maxLevels <= 0 {
		return nil
	}

	candidates := gatherTargets(entryPrice, risk, direction, candles)

	unique := dedupeTargets(candidates, entryPrice)

	// ascending by reward/risk, strength breaking ties
	sort.SliceStable(unique, func(i, j int) bool {
		if unique[i].RRRatio != unique[j].RRRatio {
			return unique[i].RRRatio < unique[j].RRRatio
		}
		return unique[i].Strength < unique[j].Strength
	})

	if len(unique) == 0 {
		return fallbackTargets(entryPrice, risk, direction, maxLevels, fallbackMultiples)
	}

	selected := selectByBucket(unique, maxLevels)

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].RRRatio < selected[j].RRRatio
	})

	if len(selected) > maxLevels {
		selected = selected[:maxLevels]
	}
	return selected
}

func gatherTargets(entryPrice, risk float64, direction string, candles []types.Candle) []types.TakeProfitTarget {
	swings := FindSwingPoints(candles, swingLookback, 0)

	var candidates []types.TakeProfitTarget

	add := func(price float64, source string, strength int) {
		var rr float64
		if direction == types.DirectionLong {
			if price <= entryPrice {
				return
			}
			rr = (price - entryPrice) / risk
		} else {
			if price >= entryPrice {
				return
			}
			rr = (entryPrice - price) / risk
		}
		if rr < minTargetRR {
			return
		}
		candidates = append(candidates, types.TakeProfitTarget{
			Price:    price,
			RRRatio:  rr,
			Source:   source,
			Strength: strength,
		})
	}

	swingPoints := swings.Highs
	if direction == types.DirectionShort {
		swingPoints = swings.Lows
	}

	for _, point := range swingPoints {
		add(point.Price, types.TargetSwing, strengthSwing)
	}

	for _, level := range FindEqualLevels(swingPoints, 0.002) {
		add(level.Price, types.TargetEqualLevel, level.Strength+strengthEqualLevelAdd)
	}

	for _, level := range FindRoundNumbers(entryPrice, roundNumberDistance) {
		add(level.Price, types.TargetRoundNumber, strengthRoundNumber)
	}

	for _, cluster := range FindVolumeClusters(candles, volumeClusterCount, volumePercentile) {
		add(cluster.PriceMid, types.TargetVolumeCluster, strengthVolumeCluster)
	}

	return candidates
}

// collapses candidates within duplicateTolerance of each other relative
// to entry, keeping the higher strength one; the earlier-seen candidate
// wins a strength tie
func dedupeTargets(candidates []types.TakeProfitTarget, entryPrice float64) []types.TakeProfitTarget {
	var unique []types.TakeProfitTarget

	for _, target := range candidates {
		duplicate := false
		for i, existing := range unique {
			if math.Abs(target.Price-existing.Price)/entryPrice < duplicateTolerance {
				if target.Strength > existing.Strength {
					unique = append(unique[:i], unique[i+1:]...)
				} else {
					duplicate = true
				}
				break
			}
		}
		if !duplicate {
			unique = append(unique, target)
		}
	}

	return unique
}

// picks the strongest candidate from each reward/risk bucket in order,
// then tops up from the remaining candidates in sorted order
func selectByBucket(unique []types.TakeProfitTarget, maxLevels int) []types.TakeProfitTarget {
	var selected []types.TakeProfitTarget
	taken := make(map[int]bool)

	for _, bucket := range rrBuckets {
		best := -1
		for i, target := range unique {
			if target.RRRatio < bucket.min || target.RRRatio >= bucket.max {
				continue
			}
			if best == -1 || target.Strength > unique[best].Strength {
				best = i
			}
		}
		if best != -1 && !taken[best] {
			taken[best] = true
			selected = append(selected, unique[best])
		}
		if len(selected) >= maxLevels {
			break
		}
	}

	for len(selected) < maxLevels && len(selected) < len(unique) {
		for i, target := range unique {
			if !taken[i] {
				taken[i] = true
				selected = append(selected, target)
				break
			}
		}
	}

	return selected
}

func fallbackTargets(entryPrice, risk float64, direction string, maxLevels int, multiples []float64) []types.TakeProfitTarget {
	if len(multiples) == 0 {
		multiples = []float64{2, 3, 4}
	}

	var valid []float64
	for _, m := range multiples {
		if m < minTargetRR {
			continue
		}
		valid = append(valid, m)
	}
	sort.Float64s(valid)

	var targets []types.TakeProfitTarget
	for _, m := range valid {
		price := entryPrice + risk*m
		if direction == types.DirectionShort {
			price = entryPrice - risk*m
		}
		targets = append(targets, types.TakeProfitTarget{
			Price:    price,
			RRRatio:  m,
			Source:   types.TargetFallback,
			Strength: 0,
		})
		if len(targets) >= maxLevels {
			break
		}
	}
	return targets
}
