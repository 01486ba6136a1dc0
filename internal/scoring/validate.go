package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"credrisk/internal/artifact"
	dErrors "credrisk/pkg/domain-errors"
)

// validateRecord is a pure check of a decoded record against the input
// signature. It enumerates every violation rather than stopping at the first
// so the caller can correct the whole payload in one round trip.
func validateRecord(sig *artifact.Signature, record map[string]any) []dErrors.FieldError {
	var violations []dErrors.FieldError

	for _, field := range sig.Fields {
		value, present := record[field.Name]
		if !present {
			violations = append(violations, dErrors.FieldError{
				Field:   field.Name,
				Message: "is required",
			})
			continue
		}
		if isEmpty(value) {
			violations = append(violations, dErrors.FieldError{
				Field:   field.Name,
				Message: "must not be empty",
			})
			continue
		}
		if msg := checkValue(field, value); msg != "" {
			violations = append(violations, dErrors.FieldError{
				Field:   field.Name,
				Message: msg,
			})
		}
	}

	if _, present := record[sig.LabelColumn]; present {
		violations = append(violations, dErrors.FieldError{
			Field:   sig.LabelColumn,
			Message: "is the training label and must not be sent for prediction",
		})
	}

	return violations
}

func checkValue(field artifact.FieldSpec, value any) string {
	switch field.Type {
	case artifact.FieldInt:
		f, ok := numericValue(value)
		if !ok || f != math.Trunc(f) {
			return "must be an integer"
		}
		return checkRange(field.Range, f)

	case artifact.FieldFloat:
		f, ok := numericValue(value)
		if !ok {
			return "must be a number"
		}
		return checkRange(field.Range, f)

	case artifact.FieldCategory:
		canonical, ok := artifact.CanonicalValue(value)
		if !ok {
			return "must be a scalar value"
		}
		for _, permitted := range field.Categories {
			if canonical == permitted {
				return ""
			}
		}
		return "must be one of: " + strings.Join(field.Categories, ", ")

	default:
		return fmt.Sprintf("has unsupported type %q", field.Type)
	}
}

func checkRange(r *artifact.Range, v float64) string {
	if r == nil {
		return ""
	}
	if r.Min != nil && v < *r.Min {
		return "must be at least " + formatBound(*r.Min)
	}
	if r.Max != nil && v > *r.Max {
		return "must be at most " + formatBound(*r.Max)
	}
	return ""
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// numericValue coerces the scalar forms a record value can arrive in (JSON
// numbers, Go numerics from tests, CSV strings) into a float64.
func numericValue(v any) (float64, bool) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
