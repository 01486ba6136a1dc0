package artifact

import (
	"encoding/json"
	"fmt"
	"os"

	"credrisk/internal/model"
)

// Defaults for signature descriptors that omit the identifier or label
// column names, matching the training pipeline's conventions.
const (
	defaultIDColumn    = "id"
	defaultLabelColumn = "default"
)

// Bundle is the complete artifact set a process serves for its lifetime.
type Bundle struct {
	Signature *Signature
	Metadata  *Metadata
	Estimator model.Estimator
}

// Load reads the model, signature, and metadata files and cross-checks them.
// Any absent, unreadable, or malformed artifact is an error; callers must
// treat it as fatal and refuse to serve. No retries: a missing artifact is
// an operator error, not a transient fault.
func Load(modelPath, signaturePath, metadataPath string) (*Bundle, error) {
	sig, err := loadSignature(signaturePath)
	if err != nil {
		return nil, fmt.Errorf("input signature %s: %w", signaturePath, err)
	}

	meta, err := loadMetadata(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("metadata %s: %w", metadataPath, err)
	}

	est, err := model.Load(modelPath)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", modelPath, err)
	}

	if est.NumFeatures() != sig.NumFields() {
		return nil, fmt.Errorf("model expects %d features but signature declares %d columns",
			est.NumFeatures(), sig.NumFields())
	}

	return &Bundle{Signature: sig, Metadata: meta, Estimator: est}, nil
}

// signatureFile mirrors the JSON layout produced by the training pipeline.
type signatureFile struct {
	IDName          string             `json:"id_name"`
	LabelName       string             `json:"label_name"`
	ExpectedColumns []string           `json:"expected_columns"`
	Dtypes          map[string]string  `json:"dtypes"`
	Categories      map[string][]any   `json:"categories"`
	Ranges          map[string]*Range  `json:"ranges"`
}

func loadSignature(path string) (*Signature, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sf signatureFile
	if err := json.Unmarshal(raw, &sf); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if len(sf.ExpectedColumns) == 0 {
		return nil, fmt.Errorf("signature declares no expected columns")
	}

	sig := &Signature{
		IDColumn:    sf.IDName,
		LabelColumn: sf.LabelName,
		Fields:      make([]FieldSpec, 0, len(sf.ExpectedColumns)),
		index:       make(map[string]int, len(sf.ExpectedColumns)),
	}
	if sig.IDColumn == "" {
		sig.IDColumn = defaultIDColumn
	}
	if sig.LabelColumn == "" {
		sig.LabelColumn = defaultLabelColumn
	}

	for _, col := range sf.ExpectedColumns {
		if _, dup := sig.index[col]; dup {
			return nil, fmt.Errorf("column %q listed twice in expected_columns", col)
		}
		dtype, ok := sf.Dtypes[col]
		if !ok {
			return nil, fmt.Errorf("column %q has no declared dtype", col)
		}

		spec := FieldSpec{Name: col, Range: sf.Ranges[col]}
		switch FieldType(dtype) {
		case FieldInt, FieldFloat:
			spec.Type = FieldType(dtype)
		case FieldCategory:
			spec.Type = FieldCategory
			cats, err := canonicalCategories(col, sf.Categories[col])
			if err != nil {
				return nil, err
			}
			spec.Categories = cats
		default:
			return nil, fmt.Errorf("unsupported dtype %q for column %q", dtype, col)
		}

		sig.index[col] = len(sig.Fields)
		sig.Fields = append(sig.Fields, spec)
	}
	return sig, nil
}

func loadMetadata(path string) (*Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	threshold, ok := values["threshold"].(float64)
	if !ok {
		return nil, fmt.Errorf("metadata does not declare a numeric probability threshold")
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold %v is outside [0,1]", threshold)
	}

	return &Metadata{Values: values, Threshold: threshold}, nil
}
