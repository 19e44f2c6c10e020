package di

import (
	"context"
	"fmt"
	"time"

	"TunPulse/internal/app"
	"TunPulse/internal/domain/models"
	domrepo "TunPulse/internal/domain/repository"
	domsvc "TunPulse/internal/domain/service"
	internalrepo "TunPulse/internal/repository"
	"TunPulse/internal/services/anomaly"
	"TunPulse/internal/services/features"
	"TunPulse/internal/services/forecast"
	"TunPulse/internal/services/mood"
	"TunPulse/internal/usecase"
	"TunPulse/pkg/cache"
	pkgch "TunPulse/pkg/clickhouse"
	"TunPulse/pkg/config"
	pkgkafka "TunPulse/pkg/kafka"
	"TunPulse/pkg/logger"
	"TunPulse/pkg/metrics"
)

// ProvideLogger creates the structured logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideCache creates the model-artifact cache backend.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Cache.Backend == "redis" {
		c, err := cache.NewRedisCache(cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, nil
	}
	return cache.NewMemoryCache(), nil
}

// ProvideHistoryStore creates the CSV table store.
func ProvideHistoryStore(cfg *config.Config, log *logger.Logger) (domrepo.HistoryStore, error) {
	return internalrepo.NewCSVStore(cfg.Data.Dir, log)
}

// ProvideModelStore creates the fitted-model loader.
func ProvideModelStore(cfg *config.Config, c cache.Service, log *logger.Logger) domrepo.ModelStore {
	return forecast.NewStore(cfg.Models.Dir, c, log)
}

// ProvideAnomalyParams loads the frozen anomaly parameters.
func ProvideAnomalyParams(cfg *config.Config) (models.AnomalyParams, error) {
	return internalrepo.LoadAnomalyParams(cfg.Models.AnomalyParams)
}

// ProvideScoreParams loads the frozen mood normalization parameters.
func ProvideScoreParams(cfg *config.Config) (models.ScoreParams, error) {
	return internalrepo.LoadScoreParams(cfg.Models.ScoreParams)
}

// ProvideFeatureEngineer creates the feature engineering service.
func ProvideFeatureEngineer(log *logger.Logger) domsvc.FeatureEngineer {
	return features.NewEngineer(log)
}

// ProvideForecaster creates the hybrid forecaster.
func ProvideForecaster(store domrepo.ModelStore, cfg *config.Config, log *logger.Logger) domsvc.Forecaster {
	return forecast.NewForecaster(store, cfg.Pipeline.Horizon, cfg.Pipeline.MinHistory, log)
}

// ProvideMoodScorer creates the market mood scorer.
func ProvideMoodScorer(params models.ScoreParams, log *logger.Logger) domsvc.MoodScorer {
	return mood.NewScorer(params, log)
}

// ProvideAnomalyDetector creates the anomaly detector.
func ProvideAnomalyDetector(params models.AnomalyParams, cfg *config.Config, log *logger.Logger) domsvc.AnomalyDetector {
	return anomaly.NewDetector(params, cfg.Pipeline.NewsWindow, log)
}

// ProvideMetricsRecorder creates the Prometheus recorder.
func ProvideMetricsRecorder() *metrics.Recorder {
	return metrics.New()
}

// ProvideMetrics exposes the recorder as the domain metrics interface.
func ProvideMetrics(r *metrics.Recorder) domrepo.Metrics {
	return r
}

// ProvidePublisher creates the Kafka anomaly publisher, or nil when Kafka is
// disabled.
func ProvidePublisher(cfg *config.Config, log *logger.Logger) (domrepo.Publisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewAnomalyPublisher(producer, cfg.Kafka.Topic, log), nil
}

// ProvideMirror creates the ClickHouse mirror, or nil when it is disabled.
func ProvideMirror(cfg *config.Config, log *logger.Logger) (domrepo.Mirror, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mirror, err := internalrepo.NewCHMirror(ctx, client, log)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse mirror: %w", err)
	}
	return mirror, nil
}

// ProvideRefresher creates the pipeline use case.
func ProvideRefresher(
	store domrepo.HistoryStore,
	engineer domsvc.FeatureEngineer,
	forecaster domsvc.Forecaster,
	scorer domsvc.MoodScorer,
	detector domsvc.AnomalyDetector,
	publisher domrepo.Publisher,
	mirror domrepo.Mirror,
	m domrepo.Metrics,
	log *logger.Logger,
) *usecase.Refresher {
	return usecase.NewRefresher(store, engineer, forecaster, scorer, detector, publisher, mirror, m, log)
}

// ProvideApp creates the batch application.
func ProvideApp(
	cfg *config.Config,
	refresher *usecase.Refresher,
	recorder *metrics.Recorder,
	publisher domrepo.Publisher,
	mirror domrepo.Mirror,
	log *logger.Logger,
) *app.App {
	return app.New(cfg, refresher, recorder, publisher, mirror, log)
}
