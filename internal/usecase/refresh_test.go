package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"TunPulse/internal/domain/models"
	domrepo "TunPulse/internal/domain/repository"
	internalrepo "TunPulse/internal/repository"
	"TunPulse/internal/services/anomaly"
	"TunPulse/internal/services/features"
	"TunPulse/internal/services/forecast"
	"TunPulse/internal/services/mood"
)

type emptyModelStore struct{}

func (emptyModelStore) Model(context.Context, string, domrepo.Signal) (domrepo.ForecastModel, error) {
	return nil, fmt.Errorf("no fitted models")
}

func marketDay(code string, date time.Time, close, volume float64) models.SessionRow {
	r := models.SessionRow{
		Seance:           date,
		Groupe:           "11",
		Code:             code,
		Valeur:           code,
		Ouverture:        close,
		Cloture:          close,
		PlusBas:          close - 0.2,
		PlusHaut:         close + 0.2,
		QuantiteNegociee: volume,
		NbTransaction:    10,
		Capitaux:         close * volume,
	}
	r.IndiceJour[models.IdxTUNINDEX] = 10000
	r.IndiceJour[models.IdxTUNINDEX20] = 5000
	return r
}

func newTestRefresher(t *testing.T, dir string) (*Refresher, *internalrepo.CSVStore) {
	t.Helper()
	store, err := internalrepo.NewCSVStore(dir, nil)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	params := models.AnomalyParams{
		"SFBT": {VolumeMean: 1000, VolumeStd: 500, VolumeThreshold: 2, VariationStd: 1, VariationThreshold: 2},
	}
	return NewRefresher(
		store,
		features.NewEngineer(nil),
		forecast.NewForecaster(emptyModelStore{}, 5, 20, nil),
		mood.NewScorer(models.ScoreParams{TunindexRetStd: 0.01, Tunindex20RetStd: 0.01, IntensityP10: 0.5, IntensityP90: 2.5, SentimentStd: 0.5}, nil),
		anomaly.NewDetector(params, 3, nil),
		nil, nil, nil, nil,
	), store
}

func TestRunAppendsAndStampsMood(t *testing.T) {
	dir := t.TempDir()
	refresher, store := newTestRefresher(t, dir)
	ctx := context.Background()
	date := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)

	market := []models.SessionRow{
		marketDay("SFBT", date, 10, 1500),
		marketDay("BIAT", date, 95, 200),
	}
	report, err := refresher.Run(ctx, market, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.HistoryAppended {
		t.Fatalf("first run must append the day")
	}
	if report.HistoryRows != 2 {
		t.Fatalf("expected 2 appended rows, got %d", report.HistoryRows)
	}

	rows, err := store.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 persisted rows, got %d", len(rows))
	}
	for _, r := range rows {
		if r.MarketMood == 0 {
			t.Fatalf("mood score must be stamped on persisted rows: %+v", r)
		}
	}

	indices, err := store.LoadIndices(ctx)
	if err != nil {
		t.Fatalf("load indices: %v", err)
	}
	if len(indices) != 1 || indices[0].IndiceJour[models.IdxTUNINDEX] != 10000 {
		t.Fatalf("index extract not persisted: %+v", indices)
	}
}

func TestRunIdempotentPerDate(t *testing.T) {
	dir := t.TempDir()
	refresher, _ := newTestRefresher(t, dir)
	ctx := context.Background()
	date := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
	market := []models.SessionRow{marketDay("SFBT", date, 10, 1500)}

	if _, err := refresher.Run(ctx, market, nil); err != nil {
		t.Fatalf("first run: %v", err)
	}
	historyPath := filepath.Join(dir, "historical_data.csv")
	before, err := os.ReadFile(historyPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	report, err := refresher.Run(ctx, market, nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.HistoryAppended {
		t.Fatalf("re-running the same date must skip the append")
	}
	after, err := os.ReadFile(historyPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("history must stay byte-identical on re-run")
	}
}

func TestRunReplacesForecastTable(t *testing.T) {
	dir := t.TempDir()
	refresher, store := newTestRefresher(t, dir)
	ctx := context.Background()
	base := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)

	// Build 25 sessions so the ticker clears the minimum history.
	var offset int
	for d := 0; offset < 25; d++ {
		candidate := base.AddDate(0, 0, d)
		if !forecast.IsTradingDay(candidate) {
			continue
		}
		market := []models.SessionRow{marketDay("SFBT", candidate, 10, 1500)}
		if _, err := refresher.Run(ctx, market, nil); err != nil {
			t.Fatalf("run %d: %v", offset, err)
		}
		offset++
	}

	rows, err := store.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 25 {
		t.Fatalf("expected 25 history rows, got %d", len(rows))
	}

	records, err := os.ReadFile(filepath.Join(dir, "forecast_next_5_days.csv"))
	if err != nil {
		t.Fatalf("read forecast: %v", err)
	}
	if len(records) == 0 {
		t.Fatalf("forecast table must exist after a run")
	}
}

func TestRunRejectsEmptyMarket(t *testing.T) {
	refresher, _ := newTestRefresher(t, t.TempDir())
	if _, err := refresher.Run(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for empty market input")
	}
}
