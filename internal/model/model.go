// Package model loads serialized classifiers and runs inference on encoded
// feature vectors. The artifact is a JSON document with a model_type
// discriminator; each supported type deserializes into its own estimator.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Estimator scores a single feature vector. Implementations are immutable
// after load and safe for concurrent use.
type Estimator interface {
	// PredictProba returns the positive-class probability in [0,1].
	PredictProba(features []float64) (float64, error)
	// NumFeatures returns the length of the feature vector the estimator
	// expects.
	NumFeatures() int
}

// header is the envelope every model artifact shares.
type header struct {
	ModelType string `json:"model_type"`
	Version   string `json:"version"`
}

// Load reads a model artifact from disk and constructs the matching
// estimator. Unknown or structurally invalid artifacts are load errors;
// callers treat them as fatal at startup.
func Load(path string) (Estimator, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var h header
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}

	switch h.ModelType {
	case "logistic":
		return loadLogistic(raw)
	case "gradient_boosting":
		return loadGradientBoosting(raw)
	default:
		return nil, fmt.Errorf("unsupported model_type %q", h.ModelType)
	}
}

// sigmoid maps a raw margin to a probability.
func sigmoid(margin float64) float64 {
	return 1 / (1 + math.Exp(-margin))
}

// clampProbability keeps scores inside the closed unit interval in the face
// of floating point drift.
func clampProbability(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
