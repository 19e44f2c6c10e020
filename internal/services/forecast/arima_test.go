package forecast

import (
	"math"
	"testing"
)

func TestARModelNoDifferencing(t *testing.T) {
	m := &ARModel{P: 1, D: 0, Phi: []float64{0.5}}
	got, err := m.ExtendAndForecast([]float64{8, 4, 2}, 3)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	want := []float64{1, 0.5, 0.25}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("step %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestARModelDifferencedTrend(t *testing.T) {
	// Unit-root AR over diffs extends a linear trend.
	m := &ARModel{P: 1, D: 1, Phi: []float64{1}}
	got, err := m.ExtendAndForecast([]float64{1, 2, 3}, 3)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	want := []float64{4, 5, 6}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("step %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestARModelValidation(t *testing.T) {
	m := &ARModel{P: 2, D: 0, Phi: []float64{0.5}}
	if _, err := m.ExtendAndForecast([]float64{1, 2, 3}, 2); err == nil {
		t.Fatalf("expected coefficient count mismatch error")
	}
	m = &ARModel{P: 1, D: 2, Phi: []float64{0.5}}
	if _, err := m.ExtendAndForecast([]float64{1, 2, 3}, 2); err == nil {
		t.Fatalf("expected unsupported differencing error")
	}
	m = &ARModel{P: 5, D: 1, Phi: []float64{1, 0, 0, 0, 0}}
	if _, err := m.ExtendAndForecast([]float64{1, 2, 3}, 2); err == nil {
		t.Fatalf("expected short series error")
	}
}

func TestResidualModelTree(t *testing.T) {
	m := &ResidualModel{
		BaseScore:   0.1,
		NumFeatures: 2,
		Trees: []regressionTree{{
			Nodes: []treeNode{
				{Feature: 0, Threshold: 0.5, Left: 1, Right: 2},
				{Leaf: true, Value: -1},
				{Leaf: true, Value: 2},
			},
		}},
	}
	got, err := m.Predict([]float64{0.3, 0})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if math.Abs(got-(-0.9)) > 1e-12 {
		t.Fatalf("expected -0.9, got %v", got)
	}
	got, err = m.Predict([]float64{0.7, 0})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if math.Abs(got-2.1) > 1e-12 {
		t.Fatalf("expected 2.1, got %v", got)
	}
}

func TestResidualModelFeatureCount(t *testing.T) {
	m := &ResidualModel{NumFeatures: 3}
	if _, err := m.Predict([]float64{1, 2}); err == nil {
		t.Fatalf("expected feature count mismatch error")
	}
}
