package repository

import (
	"context"

	"TunPulse/internal/domain/models"
)

// HistoryStore owns the persisted tables: enriched history, index history,
// sentiment-feature history and the forecast table. Appends are idempotent
// per date: when every new date is already present the write is skipped and
// the call reports appended=false.
type HistoryStore interface {
	LoadHistory(ctx context.Context) ([]models.SessionRow, error)
	LoadIndices(ctx context.Context) ([]models.IndexRow, error)
	AppendHistory(ctx context.Context, rows []models.SessionRow) (appended bool, err error)
	AppendIndices(ctx context.Context, rows []models.IndexRow) (appended bool, err error)
	AppendSentiment(ctx context.Context, rows []models.SentimentRow) (appended bool, err error)
	ReplaceForecast(ctx context.Context, rows []models.ForecastRow) error
}

// Signal names the series a forecast model pair was fitted for.
type Signal string

const (
	SignalClose  Signal = "close"
	SignalVolume Signal = "volume"
)

// ForecastModel is one fitted per-ticker model pair. Predict re-applies the
// autoregressive component over the full observed series, projects horizon
// steps forward, and adds the residual correction computed from the latest
// feature row.
type ForecastModel interface {
	Predict(series []float64, latestFeatures []float64, horizon int) ([]float64, error)
}

// ModelStore resolves the fitted model pair for a ticker and signal. A
// lookup error means "no model yet": callers degrade to a flat forecast.
type ModelStore interface {
	Model(ctx context.Context, code string, signal Signal) (ForecastModel, error)
}

// Publisher emits anomaly events for flagged ticker-days.
type Publisher interface {
	PublishAnomalies(ctx context.Context, rows []models.SessionRow) error
	Close() error
}

// Mirror copies a run's enriched output to a secondary analytical store.
// Mirroring is best-effort: the CSV tables remain the source of truth.
type Mirror interface {
	MirrorHistory(ctx context.Context, rows []models.SessionRow, mood models.MoodScore) error
	Close() error
}

// Metrics records pipeline observability counters.
type Metrics interface {
	RecordRows(table string, n int)
	RecordAnomaly(kind string)
	RecordForecastRows(n int)
	RecordStageLatency(stage string, seconds float64)
	RecordError(kind string)
}
