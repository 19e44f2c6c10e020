package sentiment

import (
	"math"
	"testing"
	"time"

	"TunPulse/internal/domain/models"
)

func TestAggregateWeightedMean(t *testing.T) {
	date := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	articles := []models.Article{
		{Date: date, Tickers: []string{"SFBT"}, SentimentScore: 0.8, Confidence: 0.5},  // 0.4
		{Date: date, Tickers: []string{"SFBT"}, SentimentScore: -0.4, Confidence: 0.5}, // -0.2
	}
	rows := Aggregate(articles, date)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := rows[0]
	if math.Abs(r.MeanWeightedSentiment-0.1) > 1e-12 {
		t.Fatalf("expected mean 0.1, got %v", r.MeanWeightedSentiment)
	}
	if r.ArticleCount != 2 {
		t.Fatalf("expected 2 articles, got %v", r.ArticleCount)
	}
	if math.Abs(r.SentimentIntensity-0.6) > 1e-12 {
		t.Fatalf("expected intensity 0.6, got %v", r.SentimentIntensity)
	}
}

func TestAggregateMultiTickerArticle(t *testing.T) {
	date := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	articles := []models.Article{
		{Date: date, Tickers: []string{"BIAT", "SFBT"}, SentimentScore: 0.5, Confidence: 1},
	}
	rows := Aggregate(articles, date)
	if len(rows) != 2 {
		t.Fatalf("expected a row per ticker, got %d", len(rows))
	}
	if rows[0].Valeur != "BIAT" || rows[1].Valeur != "SFBT" {
		t.Fatalf("expected rows sorted by ticker, got %s then %s", rows[0].Valeur, rows[1].Valeur)
	}
}

func TestAggregateFiltersOtherDates(t *testing.T) {
	date := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	articles := []models.Article{
		{Date: date.AddDate(0, 0, -1), Tickers: []string{"SFBT"}, SentimentScore: 1, Confidence: 1},
	}
	if rows := Aggregate(articles, date); len(rows) != 0 {
		t.Fatalf("articles from other dates must be excluded, got %d rows", len(rows))
	}
}

func TestAggregateSkipsEmptyTicker(t *testing.T) {
	date := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	articles := []models.Article{
		{Date: date, Tickers: []string{""}, SentimentScore: 1, Confidence: 1},
	}
	if rows := Aggregate(articles, date); len(rows) != 0 {
		t.Fatalf("empty ticker names must be skipped, got %d rows", len(rows))
	}
}
