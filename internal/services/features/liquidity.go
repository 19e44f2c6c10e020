package features

import (
	"math"

	"TunPulse/internal/domain/models"
)

const (
	// rangeEpsilon substitutes a zero trailing average range so the log
	// stays defined.
	rangeEpsilon = 1e-6

	// rangeWindow is the trailing window for the average intraday range.
	rangeWindow = 5
)

// Liquidity computes the liquidity score ln(volume*close / avgRange).
// Returns -Inf when volume*close <= 0: a no-trade day ranks below every
// observed value.
func Liquidity(volume, close, avgRange float64) float64 {
	numerator := volume * close
	if numerator <= 0 {
		return math.Inf(-1)
	}
	denom := avgRange
	if denom <= 0 {
		denom = rangeEpsilon
	}
	return math.Log(numerator / denom)
}

// BuildDistribution builds a ticker's historical liquidity distribution from
// its time-ordered history. Every finite liquidity value is kept, then one
// sentinel floor value (min - 1) is appended so zero-volume days always rank
// at the bottom. A ticker that never traded yields an empty distribution.
func BuildDistribution(days []models.SessionRow) models.LiquidityDist {
	ranges := make([]float64, len(days))
	for i := range days {
		ranges[i] = days[i].PlusHaut - days[i].PlusBas
	}
	avgRange := rollingMean(ranges, rangeWindow)

	dist := make(models.LiquidityDist, 0, len(days)+1)
	for i := range days {
		v := Liquidity(days[i].QuantiteNegociee, days[i].Cloture, avgRange[i])
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			dist = append(dist, v)
		}
	}
	if len(dist) > 0 {
		floor := dist[0]
		for _, v := range dist[1:] {
			if v < floor {
				floor = v
			}
		}
		dist = append(dist, floor-1)
	}
	return dist
}

// PercentileRank returns the percentile rank of v within dist, scaled to
// [0, 1]. Ties average the rank positions of the matching values. An empty
// distribution or a non-finite v ranks 0.
func PercentileRank(dist models.LiquidityDist, v float64) float64 {
	n := len(dist)
	if n == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	var left, right int
	for _, d := range dist {
		if d < v {
			left++
		}
		if d <= v {
			right++
		}
	}
	present := 0
	if right > left {
		present = 1
	}
	return float64(left+right+present) * 0.5 / float64(n)
}
