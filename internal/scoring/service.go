// Package scoring orchestrates prediction serving: it validates incoming
// records against the input signature, encodes them into the feature vector
// order the model expects, and maps raw scores to probabilities and labels.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"credrisk/internal/artifact"
	"credrisk/internal/model"
	"credrisk/internal/scoring/metrics"
	dErrors "credrisk/pkg/domain-errors"
	"credrisk/pkg/requestcontext"
)

// Prediction is the outcome of scoring a single record. Label is 1 when the
// probability reaches the metadata threshold.
type Prediction struct {
	ID          string
	Probability float64
	Label       int
	Threshold   float64
}

// Service holds the immutable artifact set for the process lifetime. It has
// no mutable state, so a single instance serves concurrent requests without
// locking.
type Service struct {
	sig          *artifact.Signature
	meta         *artifact.Metadata
	est          model.Estimator
	logger       *slog.Logger
	metrics      *metrics.Metrics
	maxBatchRows int
}

// Option configures optional service dependencies.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches scoring metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithMaxBatchRows caps accepted batch sizes.
func WithMaxBatchRows(rows int) Option {
	return func(s *Service) {
		if rows > 0 {
			s.maxBatchRows = rows
		}
	}
}

// New constructs the scoring service around a loaded artifact bundle.
func New(bundle *artifact.Bundle, opts ...Option) *Service {
	s := &Service{
		sig:          bundle.Signature,
		meta:         bundle.Metadata,
		est:          bundle.Estimator,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxBatchRows: 60000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Threshold returns the decision threshold declared by the model metadata.
func (s *Service) Threshold() float64 {
	return s.meta.Threshold
}

// Metadata returns the loaded metadata record, served verbatim.
func (s *Service) Metadata() map[string]any {
	return s.meta.Values
}

// Predict validates and scores a single applicant record. Validation
// failures carry every violating field; inference failures are internal.
func (s *Service) Predict(ctx context.Context, record map[string]any) (*Prediction, error) {
	return s.score(ctx, record, "single", false)
}

func (s *Service) score(ctx context.Context, record map[string]any, mode string, requireID bool) (*Prediction, error) {
	start := time.Now()

	violations := validateRecord(s.sig, record)
	if requireID {
		if _, present := record[s.sig.IDColumn]; !present {
			violations = append(violations, dErrors.FieldError{
				Field:   s.sig.IDColumn,
				Message: "is required",
			})
		}
	}
	if len(violations) > 0 {
		s.metrics.IncrementValidationFailure()
		return nil, dErrors.NewValidation(violations)
	}

	if extras := s.extraColumns(record); len(extras) > 0 {
		s.logger.DebugContext(ctx, "ignoring extra fields",
			"request_id", requestcontext.RequestID(ctx),
			"fields", extras,
		)
	}

	probability, err := s.est.PredictProba(s.vectorize(record))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "model inference failed")
	}

	pred := &Prediction{
		Probability: probability,
		Threshold:   s.meta.Threshold,
	}
	if probability >= s.meta.Threshold {
		pred.Label = 1
	}
	if raw, present := record[s.sig.IDColumn]; present {
		pred.ID = identifierString(raw)
	}

	s.metrics.ObserveScoreLatency(time.Since(start))
	s.metrics.IncrementPrediction(mode, outcomeName(pred.Label))
	return pred, nil
}

// vectorize orders a validated record into the exact feature vector the
// model expects. Category values encode as their numeric form when they have
// one, otherwise as their index in the permitted list.
func (s *Service) vectorize(record map[string]any) []float64 {
	vector := make([]float64, len(s.sig.Fields))
	for i, field := range s.sig.Fields {
		value := record[field.Name]
		if field.Type == artifact.FieldCategory {
			vector[i] = encodeCategory(field, value)
			continue
		}
		f, _ := numericValue(value)
		vector[i] = f
	}
	return vector
}

func encodeCategory(field artifact.FieldSpec, value any) float64 {
	if f, ok := numericValue(value); ok {
		return f
	}
	canonical, _ := artifact.CanonicalValue(value)
	for i, permitted := range field.Categories {
		if canonical == permitted {
			return float64(i)
		}
	}
	return 0
}

// identifierString renders the record identifier verbatim. Identifiers are
// opaque tokens, never numbers: "00042" keeps its zeros and ids beyond
// float64 precision keep every digit.
func identifierString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func (s *Service) extraColumns(record map[string]any) []string {
	var extras []string
	for name := range record {
		if name == s.sig.IDColumn || name == s.sig.LabelColumn {
			continue
		}
		if _, ok := s.sig.Field(name); !ok {
			extras = append(extras, name)
		}
	}
	return extras
}

func outcomeName(label int) string {
	if label == 1 {
		return "default"
	}
	return "no_default"
}
