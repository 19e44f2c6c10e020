package mood

import (
	"context"
	"math"
	"testing"
	"time"

	"TunPulse/internal/domain/models"
)

func day(offset int) time.Time {
	return time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func testParams() models.ScoreParams {
	return models.ScoreParams{
		TunindexRetMean:   0,
		TunindexRetStd:    0.01,
		Tunindex20RetMean: 0,
		Tunindex20RetStd:  0.01,
		IntensityP10:      0.5,
		IntensityP90:      2.5,
		SentimentMean:     0,
		SentimentStd:      0.5,
	}
}

func row(offset int, code string, variation, prob, sent float64, tunindex, tunindex20 float64) models.SessionRow {
	r := models.SessionRow{
		Seance:                day(offset),
		Code:                  code,
		Variation:             variation,
		ProbLiquidity:         prob,
		MeanWeightedSentiment: sent,
	}
	r.IndiceJour[models.IdxTUNINDEX] = tunindex
	r.IndiceJour[models.IdxTUNINDEX20] = tunindex20
	return r
}

func TestScoreCompositeWeights(t *testing.T) {
	rows := []models.SessionRow{
		row(0, "AA", 1, 0.5, 0, 10000, 5000),
		row(0, "BB", -1, 0.5, 0, 10000, 5000),
		row(1, "AA", 2, 0.6, 0.2, 10100, 5050),
		row(1, "BB", 1, 0.4, 0.2, 10100, 5050),
	}
	score, err := NewScorer(testParams(), nil).Score(context.Background(), rows)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	want := 0.30*score.Direction + 0.20*score.Breadth + 0.20*score.Liquidity +
		0.15*score.Intensity + 0.15*score.News
	if math.Abs(score.Composite-want) > 1e-9 {
		t.Fatalf("composite %v does not match weighted sub-scores %v", score.Composite, want)
	}
	if !score.Seance.Equal(day(1)) {
		t.Fatalf("score should target the latest date, got %v", score.Seance)
	}
	if score.Breadth != 100 {
		t.Fatalf("both tickers rose, expected breadth 100, got %v", score.Breadth)
	}
	if math.Abs(score.Liquidity-50) > 1e-9 {
		t.Fatalf("mean probability 0.5 should give liquidity 50, got %v", score.Liquidity)
	}
}

func TestScoreDirectionClipped(t *testing.T) {
	// A 10% jump against std 1% saturates both index z-scores.
	rows := []models.SessionRow{
		row(0, "AA", 0, 0, 0, 10000, 5000),
		row(1, "AA", 0, 0, 0, 11000, 5500),
	}
	score, err := NewScorer(testParams(), nil).Score(context.Background(), rows)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score.Direction != 100 {
		t.Fatalf("expected direction clipped at 100, got %v", score.Direction)
	}

	rows[1].IndiceJour[models.IdxTUNINDEX] = 9000
	rows[1].IndiceJour[models.IdxTUNINDEX20] = 4500
	score, err = NewScorer(testParams(), nil).Score(context.Background(), rows)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score.Direction != 0 {
		t.Fatalf("expected direction clipped at 0, got %v", score.Direction)
	}
}

func TestScoreIntensityNormalization(t *testing.T) {
	// Mean absolute variation 1.5 sits midway between P10 0.5 and P90 2.5.
	rows := []models.SessionRow{
		row(0, "AA", 1.5, 0, 0, 10000, 5000),
		row(0, "BB", -1.5, 0, 0, 10000, 5000),
	}
	score, err := NewScorer(testParams(), nil).Score(context.Background(), rows)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if math.Abs(score.Intensity-50) > 1e-9 {
		t.Fatalf("expected intensity 50, got %v", score.Intensity)
	}
}

func TestScoreIntensityDegenerateBand(t *testing.T) {
	params := testParams()
	params.IntensityP10 = 1
	params.IntensityP90 = 1
	rows := []models.SessionRow{row(0, "AA", 3, 0, 0, 10000, 5000)}
	score, err := NewScorer(params, nil).Score(context.Background(), rows)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if math.IsNaN(score.Intensity) || math.IsInf(score.Intensity, 0) {
		t.Fatalf("degenerate band must not produce a non-finite score, got %v", score.Intensity)
	}
}

func TestScoreSingleDayDirectionNeutral(t *testing.T) {
	// With no previous session the index returns are 0.
	rows := []models.SessionRow{row(0, "AA", 0, 0, 0, 10000, 5000)}
	score, err := NewScorer(testParams(), nil).Score(context.Background(), rows)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score.Direction != 50 {
		t.Fatalf("expected neutral direction 50, got %v", score.Direction)
	}
}

func TestScoreNewsFromSentiment(t *testing.T) {
	rows := []models.SessionRow{
		row(0, "AA", 0, 0, 0.25, 10000, 5000),
	}
	score, err := NewScorer(testParams(), nil).Score(context.Background(), rows)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	// z = 0.25 / 0.5 = 0.5 -> 50 + 25
	if math.Abs(score.News-75) > 1e-9 {
		t.Fatalf("expected news 75, got %v", score.News)
	}
}

func TestScoreEmptyInput(t *testing.T) {
	if _, err := NewScorer(testParams(), nil).Score(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty input")
	}
}
