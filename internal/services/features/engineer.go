package features

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"TunPulse/internal/domain/models"
	domsvc "TunPulse/internal/domain/service"
	"TunPulse/pkg/logger"
	"TunPulse/pkg/util"
)

// Engineer merges one new trading day with the full history and populates
// every derived column. The per-ticker liquidity distributions are built
// from history only, before the new day is appended, so the new day can
// never leak into its own reference distribution.
type Engineer struct {
	log *logger.Logger
}

func NewEngineer(log *logger.Logger) *Engineer {
	if log == nil {
		log = logger.Nop()
	}
	return &Engineer{log: log}
}

func (e *Engineer) Engineer(ctx context.Context, market []models.SessionRow, sentiment []models.SentimentRow, indices []models.IndexRow, history []models.SessionRow) (*models.FeatureSet, error) {
	if len(market) == 0 {
		return nil, fmt.Errorf("engineer: no market rows for the new day")
	}
	newDate := util.Normalize(market[0].Seance)
	for _, r := range market {
		if d := util.Normalize(r.Seance); d.After(newDate) {
			newDate = d
		}
	}

	// Attach the new day's sentiment aggregates; missing sentiment stays 0.
	sentByKey := make(map[string]models.SentimentRow, len(sentiment))
	for _, s := range sentiment {
		sentByKey[s.Valeur+"|"+util.FormatSeance(s.Seance)] = s
	}
	newRows := make([]models.SessionRow, len(market))
	for i, r := range market {
		r.Seance = util.Normalize(r.Seance)
		if s, ok := sentByKey[r.Valeur+"|"+util.FormatSeance(r.Seance)]; ok {
			r.MeanWeightedSentiment = s.MeanWeightedSentiment
			r.ArticleCount = s.ArticleCount
			r.SentimentIntensity = s.SentimentIntensity
		}
		newRows[i] = r
	}

	// Attach historical index levels by session date.
	idxByDate := make(map[time.Time]models.IndexRow, len(indices))
	for _, ir := range indices {
		idxByDate[util.Normalize(ir.Seance)] = ir
	}
	hist := make([]models.SessionRow, len(history))
	for i, r := range history {
		r.Seance = util.Normalize(r.Seance)
		if ir, ok := idxByDate[r.Seance]; ok {
			r.IndiceJour = ir.IndiceJour
		}
		hist[i] = r
	}
	sortByCodeSeance(hist)

	// Historical liquidity distributions, strictly before the new day.
	liquidity := make(map[string]models.LiquidityDist)
	for code, days := range groupByCode(hist) {
		liquidity[code] = BuildDistribution(days)
	}

	combined := make([]models.SessionRow, 0, len(hist)+len(newRows))
	combined = append(combined, hist...)
	combined = append(combined, newRows...)
	sortByCodeSeance(combined)

	for _, span := range codeSpans(combined) {
		rows := combined[span.start:span.end]
		computeIndexDeltas(rows)
		computeRatios(rows)
		computeSentimentRollups(rows)
		computeLiquidityProb(rows, liquidity[rows[0].Code])
	}

	newIdx := extractIndexRow(combined, newDate)

	e.log.Info("feature engineering done",
		logger.Time("seance", newDate),
		logger.Int("new_rows", len(newRows)),
		logger.Int("combined_rows", len(combined)),
		logger.Int("tickers_with_distribution", len(liquidity)),
	)

	return &models.FeatureSet{Combined: combined, Liquidity: liquidity, NewIndices: newIdx}, nil
}

// computeIndexDeltas fills previous-session index levels and their percentage
// variation within one ticker's time-ordered rows. The previous level is the
// prior row's current level, carried forward across gaps; an undefined or
// zero previous level yields variation 0.
func computeIndexDeltas(rows []models.SessionRow) {
	var last [models.NumIndices]float64
	var seen [models.NumIndices]bool
	for i := range rows {
		for k := 0; k < models.NumIndices; k++ {
			if seen[k] {
				rows[i].IndiceVeille[k] = last[k]
			}
			if seen[k] && last[k] != 0 && rows[i].IndiceJour[k] != 0 {
				rows[i].VariationVeille[k] = (rows[i].IndiceJour[k] - last[k]) / last[k] * 100
			} else {
				rows[i].VariationVeille[k] = 0
			}
			if rows[i].IndiceJour[k] != 0 {
				last[k] = rows[i].IndiceJour[k]
				seen[k] = true
			}
		}
	}
}

// computeRatios fills the OHLC-derived per-row ratios. Every division is
// guarded: magnitude ratios fall back to 0, the position-in-range ratio to
// 0.5, and the shadow/position ratios are clamped to [0, 1].
func computeRatios(rows []models.SessionRow) {
	prevClose := math.NaN()
	for i := range rows {
		r := &rows[i]

		r.IntradayRangePct = 0
		if r.Cloture > 0 {
			r.IntradayRangePct = (r.PlusHaut - r.PlusBas) / r.Cloture * 100
		}

		r.DailyReturnPct = 0
		if r.Ouverture > 0 {
			r.DailyReturnPct = (r.Cloture - r.Ouverture) / r.Ouverture * 100
		}

		rangeDiff := r.PlusHaut - r.PlusBas
		r.PricePosition = 0.5
		if rangeDiff > 0 {
			r.PricePosition = clamp01((r.Cloture - r.PlusBas) / rangeDiff)
		}

		r.AvgTradeSize = 0
		if r.NbTransaction > 0 {
			r.AvgTradeSize = r.QuantiteNegociee / r.NbTransaction
		}

		r.PriceImpact = 0
		if r.QuantiteNegociee > 0 {
			r.PriceImpact = math.Abs(r.Cloture-r.Ouverture) / r.QuantiteNegociee
		}

		upperBody := math.Max(r.Ouverture, r.Cloture)
		lowerBody := math.Min(r.Ouverture, r.Cloture)
		r.UpperShadowRatio = 0
		r.LowerShadowRatio = 0
		if rangeDiff > 0 {
			r.UpperShadowRatio = clamp01((r.PlusHaut - upperBody) / rangeDiff)
			r.LowerShadowRatio = clamp01((lowerBody - r.PlusBas) / rangeDiff)
		}

		r.Variation = 0
		if !math.IsNaN(prevClose) && prevClose != 0 {
			r.Variation = (r.Cloture - prevClose) / prevClose * 100
		}
		prevClose = r.Cloture
	}
}

// computeSentimentRollups fills the trailing 3- and 7-session means of the
// sentiment aggregates within one ticker's rows.
func computeSentimentRollups(rows []models.SessionRow) {
	n := len(rows)
	sent := make([]float64, n)
	intensity := make([]float64, n)
	count := make([]float64, n)
	for i := range rows {
		sent[i] = rows[i].MeanWeightedSentiment
		intensity[i] = rows[i].SentimentIntensity
		count[i] = rows[i].ArticleCount
	}
	s3, i3, c3 := rollingMean(sent, 3), rollingMean(intensity, 3), rollingMean(count, 3)
	s7, i7, c7 := rollingMean(sent, 7), rollingMean(intensity, 7), rollingMean(count, 7)
	for i := range rows {
		rows[i].MeanSentiment3d = s3[i]
		rows[i].Intensity3d = i3[i]
		rows[i].ArticleCount3d = c3[i]
		rows[i].MeanSentiment7d = s7[i]
		rows[i].Intensity7d = i7[i]
		rows[i].ArticleCount7d = c7[i]
	}
}

// computeLiquidityProb fills the liquidity probability for every row of one
// ticker against its historical distribution. Rows with non-finite liquidity
// and tickers without a distribution get probability 0, never NaN.
func computeLiquidityProb(rows []models.SessionRow, dist models.LiquidityDist) {
	ranges := make([]float64, len(rows))
	for i := range rows {
		ranges[i] = rows[i].PlusHaut - rows[i].PlusBas
	}
	avgRange := rollingMean(ranges, rangeWindow)
	for i := range rows {
		v := Liquidity(rows[i].QuantiteNegociee, rows[i].Cloture, avgRange[i])
		rows[i].ProbLiquidity = PercentileRank(dist, v)
	}
}

func extractIndexRow(combined []models.SessionRow, date time.Time) *models.IndexRow {
	for i := range combined {
		if combined[i].Seance.Equal(date) {
			return &models.IndexRow{
				Seance:          date,
				IndiceJour:      combined[i].IndiceJour,
				IndiceVeille:    combined[i].IndiceVeille,
				VariationVeille: combined[i].VariationVeille,
			}
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func sortByCodeSeance(rows []models.SessionRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Code != rows[j].Code {
			return rows[i].Code < rows[j].Code
		}
		return rows[i].Seance.Before(rows[j].Seance)
	})
}

// groupByCode splits time-ordered rows into per-ticker slices (views over
// the input, not copies).
func groupByCode(rows []models.SessionRow) map[string][]models.SessionRow {
	out := make(map[string][]models.SessionRow)
	for _, span := range codeSpans(rows) {
		out[rows[span.start].Code] = rows[span.start:span.end]
	}
	return out
}

type span struct{ start, end int }

// codeSpans returns the [start, end) ranges of each ticker within rows,
// which must already be sorted by code.
func codeSpans(rows []models.SessionRow) []span {
	var spans []span
	start := 0
	for i := 1; i <= len(rows); i++ {
		if i == len(rows) || rows[i].Code != rows[start].Code {
			spans = append(spans, span{start, i})
			start = i
		}
	}
	return spans
}

var _ domsvc.FeatureEngineer = (*Engineer)(nil)
