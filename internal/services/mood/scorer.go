package mood

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"TunPulse/internal/domain/models"
	domsvc "TunPulse/internal/domain/service"
	"TunPulse/pkg/logger"
)

// Composite weights. Fixed, not configurable.
const (
	weightDirection = 0.30
	weightBreadth   = 0.20
	weightLiquidity = 0.20
	weightIntensity = 0.15
	weightNews      = 0.15
)

// Scorer aggregates one date's cross-section into the five mood sub-scores,
// normalized against frozen parameters fit offline over history.
type Scorer struct {
	params models.ScoreParams
	log    *logger.Logger
}

func NewScorer(params models.ScoreParams, log *logger.Logger) *Scorer {
	if log == nil {
		log = logger.Nop()
	}
	return &Scorer{params: params, log: log}
}

// daily is one date's cross-sectional aggregate.
type daily struct {
	seance     time.Time
	tunindex   float64
	tunindex20 float64
	breadth    float64 // % of tickers with positive variation
	intensity  float64 // mean absolute variation
	liquidity  float64 // mean liquidity probability
	sentiment  float64 // mean weighted sentiment
	count      int
}

func (s *Scorer) Score(ctx context.Context, combined []models.SessionRow) (models.MoodScore, error) {
	if len(combined) == 0 {
		return models.MoodScore{}, fmt.Errorf("mood: empty combined table")
	}

	days := aggregateByDate(combined)
	latest := days[len(days)-1]

	// Index day-over-day returns need the previous session's aggregate.
	var retTunindex, retTunindex20 float64
	if len(days) >= 2 {
		prev := days[len(days)-2]
		retTunindex = pctChange(prev.tunindex, latest.tunindex)
		retTunindex20 = pctChange(prev.tunindex20, latest.tunindex20)
	}

	direction := clip(50+
		25*zscore(retTunindex, s.params.TunindexRetMean, s.params.TunindexRetStd)+
		25*zscore(retTunindex20, s.params.Tunindex20RetMean, s.params.Tunindex20RetStd),
		0, 100)

	breadth := latest.breadth

	denom := s.params.IntensityP90 - s.params.IntensityP10
	if denom <= 0 {
		denom = 1
	}
	intensity := clip(100*(latest.intensity-s.params.IntensityP10)/denom, 0, 100)

	liquidity := 50.0
	if latest.count > 0 {
		liquidity = latest.liquidity * 100
	}

	news := 50.0
	if latest.count > 0 {
		news = clip(50+50*zscore(latest.sentiment, s.params.SentimentMean, s.params.SentimentStd), 0, 100)
	}

	score := models.MoodScore{
		Seance:    latest.seance,
		Direction: direction,
		Breadth:   breadth,
		Liquidity: liquidity,
		Intensity: intensity,
		News:      news,
	}
	score.Composite = weightDirection*score.Direction +
		weightBreadth*score.Breadth +
		weightLiquidity*score.Liquidity +
		weightIntensity*score.Intensity +
		weightNews*score.News

	s.log.Info("market mood scored",
		logger.Time("seance", score.Seance),
		logger.Float64("direction", score.Direction),
		logger.Float64("breadth", score.Breadth),
		logger.Float64("liquidity", score.Liquidity),
		logger.Float64("intensity", score.Intensity),
		logger.Float64("news", score.News),
		logger.Float64("composite", score.Composite),
	)
	return score, nil
}

// aggregateByDate reduces ticker rows into one aggregate per session date,
// sorted by date. Index levels take the first row of each date (they repeat
// across tickers).
func aggregateByDate(rows []models.SessionRow) []daily {
	byDate := make(map[time.Time]*daily)
	var order []time.Time
	for i := range rows {
		d := byDate[rows[i].Seance]
		if d == nil {
			d = &daily{
				seance:     rows[i].Seance,
				tunindex:   rows[i].IndiceJour[models.IdxTUNINDEX],
				tunindex20: rows[i].IndiceJour[models.IdxTUNINDEX20],
			}
			byDate[rows[i].Seance] = d
			order = append(order, rows[i].Seance)
		}
		if rows[i].Variation > 0 {
			d.breadth++
		}
		d.intensity += math.Abs(rows[i].Variation)
		d.liquidity += rows[i].ProbLiquidity
		d.sentiment += rows[i].MeanWeightedSentiment
		d.count++
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	out := make([]daily, 0, len(order))
	for _, seance := range order {
		d := byDate[seance]
		n := float64(d.count)
		d.breadth = d.breadth / n * 100
		d.intensity /= n
		d.liquidity /= n
		d.sentiment /= n
		out = append(out, *d)
	}
	return out
}

func pctChange(prev, cur float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev
}

func zscore(v, mean, std float64) float64 {
	if std <= 0 {
		return 0
	}
	return (v - mean) / std
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var _ domsvc.MoodScorer = (*Scorer)(nil)
