package usecase

import (
	"context"
	"fmt"
	"time"

	"TunPulse/internal/domain/models"
	domrepo "TunPulse/internal/domain/repository"
	domsvc "TunPulse/internal/domain/service"
	"TunPulse/internal/services/sentiment"
	"TunPulse/pkg/logger"
	"TunPulse/pkg/util"
)

// Refresher runs the daily pipeline end to end: engineer features for the
// new session, replace the forecast table, score market mood, detect
// anomalies, and append the enriched day to the persisted histories.
// Appends are idempotent per date, so re-running a day is safe.
type Refresher struct {
	store      domrepo.HistoryStore
	engineer   domsvc.FeatureEngineer
	forecaster domsvc.Forecaster
	scorer     domsvc.MoodScorer
	detector   domsvc.AnomalyDetector
	publisher  domrepo.Publisher
	mirror     domrepo.Mirror
	metrics    domrepo.Metrics
	log        *logger.Logger
}

// NewRefresher wires the pipeline. publisher, mirror and metrics may be nil
// when the corresponding backends are disabled.
func NewRefresher(
	store domrepo.HistoryStore,
	engineer domsvc.FeatureEngineer,
	forecaster domsvc.Forecaster,
	scorer domsvc.MoodScorer,
	detector domsvc.AnomalyDetector,
	publisher domrepo.Publisher,
	mirror domrepo.Mirror,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *Refresher {
	if log == nil {
		log = logger.Nop()
	}
	return &Refresher{
		store:      store,
		engineer:   engineer,
		forecaster: forecaster,
		scorer:     scorer,
		detector:   detector,
		publisher:  publisher,
		mirror:     mirror,
		metrics:    metrics,
		log:        log,
	}
}

// Report summarizes one pipeline run.
type Report struct {
	Seance          time.Time
	HistoryAppended bool
	HistoryRows     int
	ForecastRows    int
	Flagged         int
}

// Run executes the pipeline for one new trading session.
func (u *Refresher) Run(ctx context.Context, market []models.SessionRow, articles []models.Article) (*Report, error) {
	if len(market) == 0 {
		return nil, fmt.Errorf("refresh: no market rows for the new session")
	}
	seance := util.Normalize(market[0].Seance)
	for i := range market {
		market[i].Seance = util.Normalize(market[i].Seance)
		if market[i].Seance.After(seance) {
			seance = market[i].Seance
		}
	}
	u.log.Info("pipeline run started",
		logger.Time("seance", seance),
		logger.Int("market_rows", len(market)),
		logger.Int("articles", len(articles)),
	)

	sentimentRows := sentiment.Aggregate(articles, seance)

	history, err := u.store.LoadHistory(ctx)
	if err != nil {
		return nil, u.fail("load_history", err)
	}
	indices, err := u.store.LoadIndices(ctx)
	if err != nil {
		return nil, u.fail("load_indices", err)
	}

	fs, err := runStage(u, ctx, "features", func(ctx context.Context) (*models.FeatureSet, error) {
		return u.engineer.Engineer(ctx, market, sentimentRows, indices, history)
	})
	if err != nil {
		return nil, err
	}

	forecastRows, err := runStage(u, ctx, "forecast", func(ctx context.Context) ([]models.ForecastRow, error) {
		return u.forecaster.Forecast(ctx, fs)
	})
	if err != nil {
		return nil, err
	}

	mood, err := runStage(u, ctx, "mood", func(ctx context.Context) (models.MoodScore, error) {
		return u.scorer.Score(ctx, fs.Combined)
	})
	if err != nil {
		return nil, err
	}
	stampMood(fs.Combined, mood)

	newRows, err := runStage(u, ctx, "anomaly", func(ctx context.Context) ([]models.SessionRow, error) {
		return u.detector.Detect(ctx, fs.Combined)
	})
	if err != nil {
		return nil, err
	}

	// The forecast table is fully recomputed every run.
	if err := u.store.ReplaceForecast(ctx, forecastRows); err != nil {
		return nil, u.fail("replace_forecast", err)
	}
	u.recordRows("forecast", len(forecastRows))
	if u.metrics != nil {
		u.metrics.RecordForecastRows(len(forecastRows))
	}

	appended, err := u.store.AppendHistory(ctx, newRows)
	if err != nil {
		return nil, u.fail("append_history", err)
	}
	if appended {
		u.recordRows("history", len(newRows))
	}
	if fs.NewIndices != nil {
		if _, err := u.store.AppendIndices(ctx, []models.IndexRow{*fs.NewIndices}); err != nil {
			return nil, u.fail("append_indices", err)
		}
	}
	if len(sentimentRows) > 0 {
		if _, err := u.store.AppendSentiment(ctx, sentimentRows); err != nil {
			return nil, u.fail("append_sentiment", err)
		}
	}

	flagged := u.recordAnomalies(newRows)

	// Downstream fan-out is best-effort: the CSV tables already hold the
	// run's output.
	if u.publisher != nil {
		if err := u.publisher.PublishAnomalies(ctx, newRows); err != nil {
			u.log.Error("anomaly publish failed", logger.Error(err))
			if u.metrics != nil {
				u.metrics.RecordError("publish")
			}
		}
	}
	if u.mirror != nil {
		if err := u.mirror.MirrorHistory(ctx, newRows, mood); err != nil {
			u.log.Error("history mirror failed", logger.Error(err))
			if u.metrics != nil {
				u.metrics.RecordError("mirror")
			}
		}
	}

	report := &Report{
		Seance:          seance,
		HistoryAppended: appended,
		HistoryRows:     len(newRows),
		ForecastRows:    len(forecastRows),
		Flagged:         flagged,
	}
	u.log.Info("pipeline run finished",
		logger.Time("seance", report.Seance),
		logger.Bool("history_appended", report.HistoryAppended),
		logger.Int("history_rows", report.HistoryRows),
		logger.Int("forecast_rows", report.ForecastRows),
		logger.Int("flagged", report.Flagged),
		logger.Float64("market_mood", mood.Composite),
	)
	return report, nil
}

// runStage times one pipeline stage and records its latency and failures.
func runStage[T any](u *Refresher, ctx context.Context, name string, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	out, err := fn(ctx)
	if u.metrics != nil {
		u.metrics.RecordStageLatency(name, time.Since(start).Seconds())
	}
	if err != nil {
		var zero T
		return zero, u.fail(name, err)
	}
	return out, nil
}

func (u *Refresher) fail(stage string, err error) error {
	if u.metrics != nil {
		u.metrics.RecordError(stage)
	}
	return fmt.Errorf("%s: %w", stage, err)
}

func (u *Refresher) recordRows(table string, n int) {
	if u.metrics != nil {
		u.metrics.RecordRows(table, n)
	}
}

func (u *Refresher) recordAnomalies(rows []models.SessionRow) int {
	flagged := 0
	for i := range rows {
		hit := false
		if rows[i].VolumeAnomaly == 1 {
			hit = true
			if u.metrics != nil {
				u.metrics.RecordAnomaly("volume")
			}
		}
		if rows[i].VariationAnomaly == 1 {
			hit = true
			if u.metrics != nil {
				u.metrics.RecordAnomaly("variation")
			}
		}
		if hit {
			flagged++
		}
	}
	return flagged
}

// stampMood writes the day's mood score onto every row of that date, so the
// persisted history carries the score alongside the raw observation.
func stampMood(rows []models.SessionRow, mood models.MoodScore) {
	for i := range rows {
		if !util.SameDay(rows[i].Seance, mood.Seance) {
			continue
		}
		rows[i].DirectionScore = mood.Direction
		rows[i].BreadthScore = mood.Breadth
		rows[i].LiquidityScore = mood.Liquidity
		rows[i].IntensityScore = mood.Intensity
		rows[i].NewsScore = mood.News
		rows[i].MarketMood = mood.Composite
	}
}
