package features

import (
	"math"
	"testing"

	"TunPulse/internal/domain/models"
)

func TestLiquidityMonotonicInVolume(t *testing.T) {
	lo := Liquidity(1000, 10, 0.5)
	hi := Liquidity(5000, 10, 0.5)
	if !(hi > lo) {
		t.Fatalf("expected liquidity to grow with volume, got %v then %v", lo, hi)
	}
}

func TestLiquidityZeroVolume(t *testing.T) {
	got := Liquidity(0, 10, 0.5)
	if !math.IsInf(got, -1) {
		t.Fatalf("expected -Inf for zero volume, got %v", got)
	}
}

func TestLiquidityZeroRange(t *testing.T) {
	got := Liquidity(1000, 10, 0)
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Fatalf("expected finite value with epsilon range, got %v", got)
	}
	// epsilon denominator must make a flat day rank very liquid, not error
	if got <= Liquidity(1000, 10, 0.5) {
		t.Fatalf("zero range should rank above a normal range")
	}
}

func TestBuildDistributionSentinel(t *testing.T) {
	days := []models.SessionRow{
		{Cloture: 10, PlusHaut: 11, PlusBas: 9, QuantiteNegociee: 1000},
		{Cloture: 10, PlusHaut: 10.5, PlusBas: 9.5, QuantiteNegociee: 2000},
		{Cloture: 10, PlusHaut: 11, PlusBas: 10, QuantiteNegociee: 500},
	}
	dist := BuildDistribution(days)
	if len(dist) != 4 {
		t.Fatalf("expected 3 values plus sentinel, got %d", len(dist))
	}
	min := dist[0]
	for _, v := range dist[:3] {
		if v < min {
			min = v
		}
	}
	if dist[3] != min-1 {
		t.Fatalf("expected sentinel %v, got %v", min-1, dist[3])
	}
}

func TestBuildDistributionNeverTraded(t *testing.T) {
	days := []models.SessionRow{
		{Cloture: 10, PlusHaut: 10, PlusBas: 10, QuantiteNegociee: 0},
		{Cloture: 10, PlusHaut: 10, PlusBas: 10, QuantiteNegociee: 0},
	}
	if dist := BuildDistribution(days); len(dist) != 0 {
		t.Fatalf("expected empty distribution, got %d values", len(dist))
	}
}

func TestPercentileRank(t *testing.T) {
	dist := models.LiquidityDist{1, 2, 3, 4}
	cases := []struct {
		v    float64
		want float64
	}{
		{3, 0.75},
		{5, 1.0},
		{0, 0.0},
		{2.5, 0.5},
	}
	for _, c := range cases {
		if got := PercentileRank(dist, c.v); math.Abs(got-c.want) > 1e-12 {
			t.Fatalf("rank(%v): expected %v, got %v", c.v, c.want, got)
		}
	}
}

func TestPercentileRankEdgeCases(t *testing.T) {
	if got := PercentileRank(nil, 1); got != 0 {
		t.Fatalf("empty distribution should rank 0, got %v", got)
	}
	if got := PercentileRank(models.LiquidityDist{1, 2}, math.Inf(-1)); got != 0 {
		t.Fatalf("-Inf should rank 0, got %v", got)
	}
	if got := PercentileRank(models.LiquidityDist{1, 2}, math.NaN()); got != 0 {
		t.Fatalf("NaN should rank 0, got %v", got)
	}
}

func TestRollingMean(t *testing.T) {
	got := rollingMean([]float64{1, 2, 3, 4}, 3)
	want := []float64{1, 1.5, 2, 3}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("position %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}
