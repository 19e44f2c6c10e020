package app

import (
	"context"
	"fmt"

	domrepo "TunPulse/internal/domain/repository"
	internalrepo "TunPulse/internal/repository"
	"TunPulse/internal/usecase"
	"TunPulse/pkg/config"
	"TunPulse/pkg/logger"
	"TunPulse/pkg/metrics"
)

// App is the one-shot batch entrypoint: it loads the new session's input
// files, runs the refresh pipeline, pushes metrics and releases backends.
type App struct {
	cfg       *config.Config
	refresher *usecase.Refresher
	recorder  *metrics.Recorder
	publisher domrepo.Publisher
	mirror    domrepo.Mirror
	log       *logger.Logger
}

func New(
	cfg *config.Config,
	refresher *usecase.Refresher,
	recorder *metrics.Recorder,
	publisher domrepo.Publisher,
	mirror domrepo.Mirror,
	log *logger.Logger,
) *App {
	return &App{
		cfg:       cfg,
		refresher: refresher,
		recorder:  recorder,
		publisher: publisher,
		mirror:    mirror,
		log:       log,
	}
}

// Run executes one pipeline run for the configured input files.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	market, err := internalrepo.ReadMarketCSV(a.cfg.Data.NewDayFile)
	if err != nil {
		return fmt.Errorf("market input: %w", err)
	}

	// The news feed is allowed to be missing: the pipeline runs with zero
	// sentiment rather than failing the day's refresh.
	articles, err := internalrepo.ReadSentimentExport(a.cfg.Data.SentimentExport)
	if err != nil {
		a.log.Warn("sentiment export unavailable, continuing without news",
			logger.String("path", a.cfg.Data.SentimentExport),
			logger.Error(err),
		)
		articles = nil
	}

	report, err := a.refresher.Run(ctx, market, articles)
	a.pushMetrics()
	if err != nil {
		return err
	}

	a.log.Info("refresh complete",
		logger.Time("seance", report.Seance),
		logger.Bool("history_appended", report.HistoryAppended),
		logger.Int("forecast_rows", report.ForecastRows),
		logger.Int("flagged", report.Flagged),
	)
	return nil
}

func (a *App) pushMetrics() {
	if !a.cfg.Metrics.Enabled {
		return
	}
	if err := a.recorder.Push(a.cfg.Metrics.PushGateway, a.cfg.Metrics.Job); err != nil {
		a.log.Warn("metrics push failed", logger.Error(err))
	}
}

func (a *App) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close failed", logger.Error(err))
		}
	}
	if a.mirror != nil {
		if err := a.mirror.Close(); err != nil {
			a.log.Warn("mirror close failed", logger.Error(err))
		}
	}
}
