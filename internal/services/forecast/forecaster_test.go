package forecast

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"TunPulse/internal/domain/models"
	domrepo "TunPulse/internal/domain/repository"
	"TunPulse/pkg/cache"
)

type fakeModelStore struct {
	models map[string]domrepo.ForecastModel
}

func (s *fakeModelStore) Model(_ context.Context, code string, signal domrepo.Signal) (domrepo.ForecastModel, error) {
	m, ok := s.models[code+"/"+string(signal)]
	if !ok {
		return nil, fmt.Errorf("no model for %s %s", code, signal)
	}
	return m, nil
}

type fixedModel struct {
	preds []float64
}

func (m *fixedModel) Predict(_ []float64, _ []float64, horizon int) ([]float64, error) {
	if len(m.preds) != horizon {
		return nil, fmt.Errorf("expected horizon %d", len(m.preds))
	}
	return m.preds, nil
}

func tickerRows(code string, n int, close, volume float64) []models.SessionRow {
	rows := make([]models.SessionRow, n)
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := range rows {
		rows[i] = models.SessionRow{
			Seance:           base.AddDate(0, 0, i),
			Code:             code,
			Valeur:           code,
			Cloture:          close,
			Ouverture:        close,
			PlusBas:          close - 0.1,
			PlusHaut:         close + 0.1,
			QuantiteNegociee: volume,
		}
	}
	return rows
}

func TestForecastFlatFallback(t *testing.T) {
	fs := &models.FeatureSet{Combined: tickerRows("AB", 25, 12.345, 1000)}
	f := NewForecaster(&fakeModelStore{}, 5, 20, nil)

	out, err := f.Forecast(context.Background(), fs)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(out))
	}
	for _, r := range out {
		if r.Cloture != 12.345 {
			t.Fatalf("flat fallback should repeat last close, got %v", r.Cloture)
		}
		if r.Volume != 1000 {
			t.Fatalf("flat fallback should repeat last volume, got %v", r.Volume)
		}
		if r.VarCloture != 0 || r.VarVolume != 0 {
			t.Fatalf("flat forecast should have zero variation, got %+v", r)
		}
	}
}

func TestForecastSkipsThinHistory(t *testing.T) {
	fs := &models.FeatureSet{Combined: tickerRows("AB", 10, 12, 1000)}
	f := NewForecaster(&fakeModelStore{}, 5, 20, nil)

	out, err := f.Forecast(context.Background(), fs)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no rows for a thin-history ticker, got %d", len(out))
	}
}

func TestForecastChainedVariation(t *testing.T) {
	store := &fakeModelStore{models: map[string]domrepo.ForecastModel{
		"AB/close":  &fixedModel{preds: []float64{11, 12.1}},
		"AB/volume": &fixedModel{preds: []float64{2000, 1000}},
	}}
	fs := &models.FeatureSet{Combined: tickerRows("AB", 25, 10, 1000)}
	f := NewForecaster(store, 2, 20, nil)

	out, err := f.Forecast(context.Background(), fs)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	// First step varies vs the last observation, later steps chain.
	if math.Abs(out[0].VarCloture-0.1) > 1e-9 {
		t.Fatalf("step 1 var_cloture: expected 0.1, got %v", out[0].VarCloture)
	}
	if math.Abs(out[1].VarCloture-0.1) > 1e-9 {
		t.Fatalf("step 2 var_cloture: expected 0.1, got %v", out[1].VarCloture)
	}
	if math.Abs(out[0].VarVolume-1.0) > 1e-9 {
		t.Fatalf("step 1 var_volume: expected 1.0, got %v", out[0].VarVolume)
	}
	if math.Abs(out[1].VarVolume-(-0.5)) > 1e-9 {
		t.Fatalf("step 2 var_volume: expected -0.5, got %v", out[1].VarVolume)
	}
}

func TestForecastVolumeFloor(t *testing.T) {
	store := &fakeModelStore{models: map[string]domrepo.ForecastModel{
		"AB/close":  &fixedModel{preds: []float64{10}},
		"AB/volume": &fixedModel{preds: []float64{-500}},
	}}
	fs := &models.FeatureSet{Combined: tickerRows("AB", 25, 10, 1000)}
	f := NewForecaster(store, 1, 20, nil)

	out, err := f.Forecast(context.Background(), fs)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if out[0].Volume != 0 {
		t.Fatalf("negative volume prediction must floor at 0, got %v", out[0].Volume)
	}
}

func TestForecastDatesAreFutureTradingDays(t *testing.T) {
	fs := &models.FeatureSet{Combined: tickerRows("AB", 25, 10, 1000)}
	last := fs.Combined[len(fs.Combined)-1].Seance
	f := NewForecaster(&fakeModelStore{}, 5, 20, nil)

	out, err := f.Forecast(context.Background(), fs)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	prev := last
	for _, r := range out {
		if !r.Seance.After(prev) {
			t.Fatalf("forecast dates must be strictly increasing after %v, got %v", prev, r.Seance)
		}
		if !IsTradingDay(r.Seance) {
			t.Fatalf("%v is not a trading day", r.Seance)
		}
		prev = r.Seance
	}
}

func TestStoreLoadsHybridModel(t *testing.T) {
	dir := t.TempDir()
	arJSON := `{"p":1,"d":0,"phi":[0.5],"const":0}`
	resJSON := `{"base_score":1,"num_features":0,"trees":[]}`
	if err := os.WriteFile(filepath.Join(dir, "ar_close_AB.json"), []byte(arJSON), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "residual_close_AB.json"), []byte(resJSON), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := NewStore(dir, cache.NewMemoryCache(), nil)
	model, err := store.Model(context.Background(), "AB", domrepo.SignalClose)
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	got, err := model.Predict([]float64{8, 4, 2}, nil, 2)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	// AR projection plus the constant residual correction on every step.
	want := []float64{2, 1.5}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("step %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestStoreMissingArtifact(t *testing.T) {
	store := NewStore(t.TempDir(), nil, nil)
	if _, err := store.Model(context.Background(), "XX", domrepo.SignalVolume); err == nil {
		t.Fatalf("expected error for missing artifacts")
	}
}
