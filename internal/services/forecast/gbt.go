package forecast

import (
	"fmt"
	"math"
)

// treeNode is one node of a fitted regression tree. Internal nodes route on
// feature <= threshold; leaves carry the output value with the learning rate
// already folded in at export time.
type treeNode struct {
	Leaf      bool    `json:"leaf"`
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

type regressionTree struct {
	Nodes []treeNode `json:"nodes"`
}

func (t *regressionTree) evaluate(features []float64) (float64, error) {
	idx := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		if idx < 0 || idx >= len(t.Nodes) {
			return 0, fmt.Errorf("residual model: node index %d out of range", idx)
		}
		node := t.Nodes[idx]
		if node.Leaf {
			return node.Value, nil
		}
		if node.Feature < 0 || node.Feature >= len(features) {
			return 0, fmt.Errorf("residual model: feature index %d out of range", node.Feature)
		}
		if features[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
	return 0, fmt.Errorf("residual model: tree walk did not terminate")
}

// ResidualModel is a fitted gradient-boosted tree ensemble that predicts the
// residual left by the autoregressive component, from the most recent
// feature row in the training-time column order.
type ResidualModel struct {
	BaseScore   float64          `json:"base_score"`
	NumFeatures int              `json:"num_features"`
	Trees       []regressionTree `json:"trees"`
}

// Predict returns the ensemble's point prediction for one feature vector.
func (m *ResidualModel) Predict(features []float64) (float64, error) {
	if m.NumFeatures > 0 && len(features) != m.NumFeatures {
		return 0, fmt.Errorf("residual model: got %d features, trained with %d", len(features), m.NumFeatures)
	}
	sum := m.BaseScore
	for i := range m.Trees {
		v, err := m.Trees[i].evaluate(features)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return 0, fmt.Errorf("residual model: non-finite prediction")
	}
	return sum, nil
}
