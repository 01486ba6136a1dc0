// Package artifact loads and represents the three files handed over by the
// training pipeline: the serialized model, the input-signature descriptor,
// and the metadata descriptor. Everything here is immutable after load.
package artifact

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FieldType enumerates the dtypes the input signature may declare.
type FieldType string

const (
	FieldInt      FieldType = "int64"
	FieldFloat    FieldType = "float64"
	FieldCategory FieldType = "category"
)

// Range bounds a numeric field. Nil ends are unbounded.
type Range struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// FieldSpec describes one feature column: its name, dtype, and constraints.
// Categories hold the canonical forms of the permitted values for category
// fields, in signature order.
type FieldSpec struct {
	Name       string
	Type       FieldType
	Categories []string
	Range      *Range
}

// Signature is the ordered schema a prediction request must satisfy. The
// column order is the exact feature vector order the model expects.
type Signature struct {
	IDColumn    string
	LabelColumn string
	Fields      []FieldSpec

	index map[string]int
}

// NewSignature builds a signature from ordered field specs. Used by the
// loader and by tests that assemble schemas in memory.
func NewSignature(idColumn, labelColumn string, fields []FieldSpec) *Signature {
	sig := &Signature{
		IDColumn:    idColumn,
		LabelColumn: labelColumn,
		Fields:      fields,
		index:       make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		sig.index[f.Name] = i
	}
	return sig
}

// NumFields returns the number of feature columns.
func (s *Signature) NumFields() int {
	return len(s.Fields)
}

// Columns returns the ordered feature column names.
func (s *Signature) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Name
	}
	return cols
}

// Field looks up a column spec by name.
func (s *Signature) Field(name string) (FieldSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.Fields[i], true
}

// Metadata is the descriptive record returned verbatim on request. The
// decision threshold is part of the metadata contract, not a config knob.
type Metadata struct {
	Values    map[string]any
	Threshold float64
}

// CanonicalValue normalizes a scalar to a comparable string form so that a
// category declared as 2 matches a payload value of 2, 2.0, or "2".
// Returns false for values that are not scalars.
func CanonicalValue(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return strconv.FormatFloat(f, 'g', -1, 64), true
		}
		return x, true
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return strconv.FormatFloat(f, 'g', -1, 64), true
		}
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

func canonicalCategories(name string, raw []any) ([]string, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("category column %q declares no permitted values", name)
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		c, ok := CanonicalValue(v)
		if !ok {
			return nil, fmt.Errorf("category column %q has a non-scalar permitted value", name)
		}
		out = append(out, c)
	}
	return out, nil
}
