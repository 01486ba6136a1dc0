package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Logistic is a logistic regression estimator with optional feature
// standardization baked into the artifact.
type Logistic struct {
	weights   []float64
	intercept float64
	means     []float64
	scales    []float64
}

type logisticArtifact struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
	Means     []float64 `json:"means,omitempty"`
	Scales    []float64 `json:"scales,omitempty"`
}

func loadLogistic(raw []byte) (*Logistic, error) {
	var a logisticArtifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("parse logistic artifact: %w", err)
	}
	if len(a.Weights) == 0 {
		return nil, errors.New("logistic artifact declares no weights")
	}
	if len(a.Means) > 0 && len(a.Means) != len(a.Weights) {
		return nil, fmt.Errorf("logistic artifact has %d means for %d weights", len(a.Means), len(a.Weights))
	}
	if len(a.Scales) > 0 && len(a.Scales) != len(a.Weights) {
		return nil, fmt.Errorf("logistic artifact has %d scales for %d weights", len(a.Scales), len(a.Weights))
	}
	for i, s := range a.Scales {
		if s == 0 {
			return nil, fmt.Errorf("logistic artifact has zero scale at index %d", i)
		}
	}
	return &Logistic{
		weights:   a.Weights,
		intercept: a.Intercept,
		means:     a.Means,
		scales:    a.Scales,
	}, nil
}

// NumFeatures returns the expected feature vector length.
func (l *Logistic) NumFeatures() int {
	return len(l.weights)
}

// PredictProba computes sigmoid(w·x + b) over the (optionally standardized)
// feature vector.
func (l *Logistic) PredictProba(features []float64) (float64, error) {
	if len(features) != len(l.weights) {
		return 0, fmt.Errorf("expected %d features, got %d", len(l.weights), len(features))
	}
	margin := l.intercept
	for i, w := range l.weights {
		x := features[i]
		if len(l.means) > 0 {
			x -= l.means[i]
		}
		if len(l.scales) > 0 {
			x /= l.scales[i]
		}
		margin += w * x
	}
	return clampProbability(sigmoid(margin)), nil
}
