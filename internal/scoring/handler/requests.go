package handler

import (
	"bytes"
	"encoding/json"

	dErrors "credrisk/pkg/domain-errors"
)

// PredictRequest is the HTTP request body for POST /predict: a flat JSON
// object of feature values keyed by field name. The schema is owned by the
// loaded input signature, so the body decodes into a generic record and the
// scoring service validates it field by field.
type PredictRequest struct {
	Record map[string]any
}

// UnmarshalJSON decodes with UseNumber so integer-typed fields can be told
// apart from floats during validation.
func (r *PredictRequest) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(&r.Record)
}

// Validate implements httputil.Validatable.
func (r *PredictRequest) Validate() error {
	if len(r.Record) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "request body must be a non-empty JSON object")
	}
	return nil
}
