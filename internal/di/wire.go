//go:build wireinject
// +build wireinject

package di

import (
	"TunPulse/internal/app"
	"TunPulse/pkg/config"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*app.App, error) {
	wire.Build(
		ProvideLogger,

		// Frozen parameters and infrastructure
		ProvideAnomalyParams,
		ProvideScoreParams,
		ProvideCache,
		ProvideHistoryStore,
		ProvideModelStore,
		ProvideMetricsRecorder,
		ProvideMetrics,
		ProvidePublisher,
		ProvideMirror,

		// Pipeline services
		ProvideFeatureEngineer,
		ProvideForecaster,
		ProvideMoodScorer,
		ProvideAnomalyDetector,

		// Use case
		ProvideRefresher,

		// Application
		ProvideApp,
	)
	return &app.App{}, nil
}
