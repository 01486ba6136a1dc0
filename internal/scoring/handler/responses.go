package handler

import (
	"credrisk/internal/scoring"
)

// PredictResponse is the HTTP response for POST /predict.
type PredictResponse struct {
	ID          string  `json:"id,omitempty"`
	Probability float64 `json:"probability"`
	Label       int     `json:"label"`
	Threshold   float64 `json:"threshold"`
}

// FromPrediction converts a domain prediction to an HTTP response.
func FromPrediction(p *scoring.Prediction) *PredictResponse {
	return &PredictResponse{
		ID:          p.ID,
		Probability: p.Probability,
		Label:       p.Label,
		Threshold:   p.Threshold,
	}
}
