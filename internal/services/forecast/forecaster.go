package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"TunPulse/internal/domain/models"
	domrepo "TunPulse/internal/domain/repository"
	domsvc "TunPulse/internal/domain/service"
	"TunPulse/internal/services/features"
	"TunPulse/pkg/logger"
)

// Forecaster projects price and volume per ticker over the next trading
// days using persisted hybrid model pairs. Tickers with thin history are
// skipped; a missing or broken model pair degrades to a flat forecast.
type Forecaster struct {
	store      domrepo.ModelStore
	horizon    int
	minHistory int
	log        *logger.Logger
}

func NewForecaster(store domrepo.ModelStore, horizon, minHistory int, log *logger.Logger) *Forecaster {
	if log == nil {
		log = logger.Nop()
	}
	return &Forecaster{store: store, horizon: horizon, minHistory: minHistory, log: log}
}

func (f *Forecaster) Forecast(ctx context.Context, fs *models.FeatureSet) ([]models.ForecastRow, error) {
	if len(fs.Combined) == 0 {
		return nil, fmt.Errorf("forecast: empty combined table")
	}

	lastDate := fs.Combined[0].Seance
	for i := range fs.Combined {
		if fs.Combined[i].Seance.After(lastDate) {
			lastDate = fs.Combined[i].Seance
		}
	}
	dates := NextTradingDays(lastDate, f.horizon)

	var out []models.ForecastRow
	skipped := 0
	fallbacks := 0

	// fs.Combined is sorted by (code, seance); walk ticker spans in order.
	start := 0
	for i := 1; i <= len(fs.Combined); i++ {
		if i < len(fs.Combined) && fs.Combined[i].Code == fs.Combined[start].Code {
			continue
		}
		rows := fs.Combined[start:i]
		start = i

		if len(rows) < f.minHistory {
			skipped++
			continue
		}
		tickerRows, flat := f.forecastTicker(ctx, rows, dates, fs.Liquidity[rows[0].Code])
		if flat {
			fallbacks++
		}
		out = append(out, tickerRows...)
	}

	f.log.Info("forecast done",
		logger.Time("last_seance", lastDate),
		logger.Int("rows", len(out)),
		logger.Int("skipped_thin_history", skipped),
		logger.Int("tickers_with_fallback", fallbacks),
	)
	return out, nil
}

// forecastTicker emits one row per forecast date for a single ticker. The
// returned flag reports whether any signal fell back to a flat forecast.
func (f *Forecaster) forecastTicker(ctx context.Context, rows []models.SessionRow, dates []time.Time, dist models.LiquidityDist) ([]models.ForecastRow, bool) {
	code := rows[0].Code
	origin := rows[len(rows)-1]
	latest := origin.FeatureVector()

	closeSeries := make([]float64, len(rows))
	volumeSeries := make([]float64, len(rows))
	for i := range rows {
		closeSeries[i] = rows[i].Cloture
		volumeSeries[i] = rows[i].QuantiteNegociee
	}

	flat := false
	fcClose, ok := f.predict(ctx, code, domrepo.SignalClose, closeSeries, latest)
	if !ok {
		fcClose = repeat(origin.Cloture, f.horizon)
		flat = true
	}
	fcVolume, ok := f.predict(ctx, code, domrepo.SignalVolume, volumeSeries, latest)
	if !ok {
		fcVolume = repeat(origin.QuantiteNegociee, f.horizon)
		flat = true
	}
	for i := range fcVolume {
		if fcVolume[i] < 0 {
			fcVolume[i] = 0
		}
	}

	// Trailing average range from the last real observations, held constant
	// across the forecast days.
	tail := rows
	if len(tail) > rangeTail {
		tail = tail[len(tail)-rangeTail:]
	}
	avgRange := 0.0
	for i := range tail {
		avgRange += tail[i].PlusHaut - tail[i].PlusBas
	}
	avgRange /= float64(len(tail))

	out := make([]models.ForecastRow, 0, f.horizon)
	prevClose := origin.Cloture
	prevVolume := origin.QuantiteNegociee
	for h := 0; h < f.horizon; h++ {
		varClose := 0.0
		if prevClose != 0 {
			varClose = (fcClose[h] - prevClose) / prevClose
		}
		varVolume := 0.0
		if prevVolume != 0 {
			varVolume = (fcVolume[h] - prevVolume) / prevVolume
		}

		prob := 0.0
		if len(dist) > 0 {
			prob = features.PercentileRank(dist, features.Liquidity(fcVolume[h], fcClose[h], avgRange))
		}

		out = append(out, models.ForecastRow{
			Seance:        dates[h],
			Code:          code,
			Valeur:        origin.Valeur,
			Cloture:       round(fcClose[h], 3),
			Volume:        int64(math.Round(fcVolume[h])),
			VarCloture:    round(varClose, 6),
			VarVolume:     round(varVolume, 6),
			ProbLiquidity: round(prob, 4),
		})
		prevClose = fcClose[h]
		prevVolume = fcVolume[h]
	}
	return out, flat
}

func (f *Forecaster) predict(ctx context.Context, code string, signal domrepo.Signal, series, latest []float64) ([]float64, bool) {
	model, err := f.store.Model(ctx, code, signal)
	if err != nil {
		f.log.Debug("no model, flat forecast",
			logger.String("code", code),
			logger.String("signal", string(signal)),
			logger.Error(err),
		)
		return nil, false
	}
	preds, err := model.Predict(series, latest, f.horizon)
	if err != nil {
		f.log.Warn("model prediction failed, flat forecast",
			logger.String("code", code),
			logger.String("signal", string(signal)),
			logger.Error(err),
		)
		return nil, false
	}
	return preds, true
}

// rangeTail is how many trailing real sessions feed the forecast-time
// average range.
const rangeTail = 5

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func round(v float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.Round(v*scale) / scale
}

var _ domsvc.Forecaster = (*Forecaster)(nil)
