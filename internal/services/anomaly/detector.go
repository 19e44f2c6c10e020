package anomaly

import (
	"context"
	"fmt"
	"math"
	"sort"

	"TunPulse/internal/domain/models"
	domsvc "TunPulse/internal/domain/service"
	"TunPulse/pkg/logger"
)

// Detector flags volume and variation outliers against frozen per-ticker
// parameters, then attributes each flag to news published before (reaction)
// or after (possible leakage) the anomaly. Parameters are fit offline and
// never updated here.
type Detector struct {
	params models.AnomalyParams
	window int
	log    *logger.Logger
}

func NewDetector(params models.AnomalyParams, window int, log *logger.Logger) *Detector {
	if log == nil {
		log = logger.Nop()
	}
	return &Detector{params: params, window: window, log: log}
}

// Detect scans the combined table (sorted by ticker then date), computes
// z-scores and flags over each ticker's full series, runs the windowed news
// joins, and returns only the newest date's rows, enriched.
func (d *Detector) Detect(ctx context.Context, combined []models.SessionRow) ([]models.SessionRow, error) {
	if len(combined) == 0 {
		return nil, fmt.Errorf("anomaly: empty combined table")
	}

	rows := make([]models.SessionRow, len(combined))
	copy(rows, combined)

	latest := rows[0].Seance
	for i := range rows {
		if rows[i].Seance.After(latest) {
			latest = rows[i].Seance
		}
	}

	start := 0
	for i := 1; i <= len(rows); i++ {
		if i < len(rows) && rows[i].Code == rows[start].Code {
			continue
		}
		ticker := rows[start:i]
		start = i

		d.scoreTicker(ticker)
		d.attributeNews(ticker)
	}

	var out []models.SessionRow
	flagged := 0
	for i := range rows {
		if !rows[i].Seance.Equal(latest) {
			continue
		}
		if rows[i].VolumeAnomaly == 1 || rows[i].VariationAnomaly == 1 {
			flagged++
		}
		out = append(out, rows[i])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })

	d.log.Info("anomaly detection done",
		logger.Time("seance", latest),
		logger.Int("rows", len(out)),
		logger.Int("flagged", flagged),
	)
	return out, nil
}

// scoreTicker fills z-scores and raw flags for one ticker's time-ordered
// rows. A ticker absent from the frozen parameters, or one with zero
// standard deviation, passes through unflagged.
func (d *Detector) scoreTicker(rows []models.SessionRow) {
	params, ok := d.params[rows[0].Code]
	if !ok {
		return
	}
	for i := range rows {
		r := &rows[i]
		if params.VolumeStd > 0 {
			r.VolumeZScore = (r.QuantiteNegociee - params.VolumeMean) / params.VolumeStd
		}
		if r.VolumeZScore > params.VolumeThreshold {
			r.VolumeAnomaly = 1
		}
		if params.VariationStd > 0 {
			r.VariationZScore = (r.Variation - params.VariationMean) / params.VariationStd
		}
		if math.Abs(r.VariationZScore) > params.VariationThreshold {
			r.VariationAnomaly = 1
		}
	}
}

// attributeNews reclassifies each flagged row as a post-news reaction or a
// pre-news leakage candidate. Variation anomalies must match the news
// sentiment direction; volume anomalies only need news presence. PRE_NEWS
// is evaluated only when POST_NEWS did not already trigger, so a flag is
// never both.
func (d *Detector) attributeNews(rows []models.SessionRow) {
	n := len(rows)
	hasNews := make([]int, n)
	posNews := make([]int, n)
	negNews := make([]int, n)
	for i := range rows {
		if rows[i].ArticleCount > 0 {
			hasNews[i] = 1
			if rows[i].MeanWeightedSentiment > 0 {
				posNews[i] = 1
			}
			if rows[i].MeanWeightedSentiment < 0 {
				negNews[i] = 1
			}
		}
	}

	priorAny := priorWindowAny(hasNews, d.window)
	priorPos := priorWindowAny(posNews, d.window)
	priorNeg := priorWindowAny(negNews, d.window)
	futureAny := futureWindowAny(hasNews, d.window)
	futurePos := futureWindowAny(posNews, d.window)
	futureNeg := futureWindowAny(negNews, d.window)

	for i := range rows {
		r := &rows[i]

		if r.VariationAnomaly == 1 {
			switch {
			case r.VariationZScore > 0 && priorPos[i], r.VariationZScore < 0 && priorNeg[i]:
				r.VariationAnomalyPostNews = 1
			case r.VariationZScore > 0 && futurePos[i], r.VariationZScore < 0 && futureNeg[i]:
				r.VariationAnomalyPreNews = 1
			}
		}

		if r.VolumeAnomaly == 1 {
			switch {
			case priorAny[i]:
				r.VolumeAnomalyPostNews = 1
			case futureAny[i]:
				r.VolumeAnomalyPreNews = 1
			}
		}
	}
}

var _ domsvc.AnomalyDetector = (*Detector)(nil)
