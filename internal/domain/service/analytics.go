package service

import (
	"context"

	"TunPulse/internal/domain/models"
)

// FeatureEngineer merges one new trading day with the full history and
// populates every derived column, plus the per-ticker liquidity
// distributions built from history only.
type FeatureEngineer interface {
	Engineer(ctx context.Context, market []models.SessionRow, sentiment []models.SentimentRow, indices []models.IndexRow, history []models.SessionRow) (*models.FeatureSet, error)
}

// Forecaster produces the next-days forecast table from the engineered
// feature set, one row per eligible ticker per forecast date.
type Forecaster interface {
	Forecast(ctx context.Context, fs *models.FeatureSet) ([]models.ForecastRow, error)
}

// MoodScorer aggregates the newest date's cross-section into the five mood
// sub-scores and their composite, against frozen normalization parameters.
type MoodScorer interface {
	Score(ctx context.Context, combined []models.SessionRow) (models.MoodScore, error)
}

// AnomalyDetector flags volume and variation outliers against frozen
// per-ticker parameters and attributes each flag to prior or future news.
// It scans the full per-ticker series (the news join needs trailing and
// leading context) and returns only the newest date's rows, enriched.
type AnomalyDetector interface {
	Detect(ctx context.Context, combined []models.SessionRow) ([]models.SessionRow, error)
}
