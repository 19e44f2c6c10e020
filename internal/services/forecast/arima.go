package forecast

import (
	"fmt"
	"math"
)

// ARModel is a fitted autoregressive model with differencing order 0 or 1.
// The coefficients come from an offline fit; applying the model to a series
// only rebuilds its internal state (the trailing lags), it never refits.
type ARModel struct {
	P     int       `json:"p"`
	D     int       `json:"d"`
	Phi   []float64 `json:"phi"`
	Const float64   `json:"const"`
}

func (m *ARModel) validate() error {
	if m.P <= 0 || len(m.Phi) != m.P {
		return fmt.Errorf("ar model: p=%d with %d coefficients", m.P, len(m.Phi))
	}
	if m.D != 0 && m.D != 1 {
		return fmt.Errorf("ar model: unsupported differencing order %d", m.D)
	}
	return nil
}

// ExtendAndForecast re-applies the fitted coefficients over the full observed
// series, then projects horizon steps forward. The series must contain at
// least p+d observations.
func (m *ARModel) ExtendAndForecast(series []float64, horizon int) ([]float64, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	if len(series) < m.P+m.D {
		return nil, fmt.Errorf("ar model: series of %d too short for p=%d d=%d", len(series), m.P, m.D)
	}

	work := series
	if m.D == 1 {
		work = diff(series)
	}

	// State: the p most recent values, newest first.
	state := make([]float64, m.P)
	for i := 0; i < m.P; i++ {
		state[i] = work[len(work)-1-i]
	}

	level := series[len(series)-1]
	out := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		next := m.Const
		for i := 0; i < m.P; i++ {
			next += m.Phi[i] * state[i]
		}
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return nil, fmt.Errorf("ar model: non-finite forecast at step %d", h)
		}
		copy(state[1:], state[:m.P-1])
		state[0] = next

		if m.D == 1 {
			level += next
			out[h] = level
		} else {
			out[h] = next
		}
	}
	return out, nil
}

func diff(series []float64) []float64 {
	out := make([]float64, len(series)-1)
	for i := 1; i < len(series); i++ {
		out[i-1] = series[i] - series[i-1]
	}
	return out
}
