package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	domrepo "TunPulse/internal/domain/repository"
	"TunPulse/pkg/cache"
	"TunPulse/pkg/logger"
)

// Store resolves fitted per-ticker model pairs from JSON artifacts on disk,
// by filename convention ar_<signal>_<code>.json / residual_<signal>_<code>.json.
// Artifacts are read-only; raw bytes are cached so repeated lookups within a
// run (or across tools sharing a Redis) skip the filesystem.
type Store struct {
	dir   string
	cache cache.Service
	log   *logger.Logger
}

func NewStore(dir string, c cache.Service, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{dir: dir, cache: c, log: log}
}

func (s *Store) Model(ctx context.Context, code string, signal domrepo.Signal) (domrepo.ForecastModel, error) {
	arRaw, err := s.artifact(ctx, fmt.Sprintf("ar_%s_%s.json", signal, code))
	if err != nil {
		return nil, fmt.Errorf("load ar artifact: %w", err)
	}
	resRaw, err := s.artifact(ctx, fmt.Sprintf("residual_%s_%s.json", signal, code))
	if err != nil {
		return nil, fmt.Errorf("load residual artifact: %w", err)
	}

	var ar ARModel
	if err := json.Unmarshal(arRaw, &ar); err != nil {
		return nil, fmt.Errorf("parse ar artifact: %w", err)
	}
	var res ResidualModel
	if err := json.Unmarshal(resRaw, &res); err != nil {
		return nil, fmt.Errorf("parse residual artifact: %w", err)
	}
	if err := ar.validate(); err != nil {
		return nil, err
	}
	return &hybridModel{ar: &ar, residual: &res}, nil
}

func (s *Store) artifact(ctx context.Context, name string) ([]byte, error) {
	key := "tunpulse:artifact:" + name
	if s.cache != nil {
		var cached []byte
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, b, time.Hour); err != nil {
			s.log.Warn("artifact cache set failed", logger.String("name", name), logger.Error(err))
		}
	}
	return b, nil
}

// hybridModel pairs the autoregressive component with its residual
// correction: the AR state is rebuilt over the full series and projected
// forward, then the residual prediction from the latest feature row is
// added to every step.
type hybridModel struct {
	ar       *ARModel
	residual *ResidualModel
}

func (m *hybridModel) Predict(series []float64, latestFeatures []float64, horizon int) ([]float64, error) {
	base, err := m.ar.ExtendAndForecast(series, horizon)
	if err != nil {
		return nil, err
	}
	correction, err := m.residual.Predict(latestFeatures)
	if err != nil {
		return nil, err
	}
	out := make([]float64, horizon)
	for i := range base {
		out[i] = base[i] + correction
	}
	return out, nil
}

var _ domrepo.ModelStore = (*Store)(nil)
