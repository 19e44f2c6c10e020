package repository

import (
	"encoding/json"
	"fmt"
	"os"

	"TunPulse/internal/domain/models"
)

// LoadAnomalyParams reads the frozen per-ticker anomaly parameters fitted
// offline during training.
func LoadAnomalyParams(path string) (models.AnomalyParams, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read anomaly params: %w", err)
	}
	var params models.AnomalyParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("decode anomaly params: %w", err)
	}
	if len(params) == 0 {
		return nil, fmt.Errorf("anomaly params %s is empty", path)
	}
	return params, nil
}

// LoadScoreParams reads the frozen mood-score normalization parameters.
func LoadScoreParams(path string) (models.ScoreParams, error) {
	var params models.ScoreParams
	raw, err := os.ReadFile(path)
	if err != nil {
		return params, fmt.Errorf("read score params: %w", err)
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return params, fmt.Errorf("decode score params: %w", err)
	}
	return params, nil
}
