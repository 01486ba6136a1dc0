package scoring

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	dErrors "credrisk/pkg/domain-errors"
)

// BatchResult is one scored row of a batch request, in input order.
type BatchResult struct {
	ID          string
	Probability float64
	Label       int
}

// ScoreCSV parses a CSV batch (header row names the columns), scores every
// row, and returns results in input order. Rows are scored concurrently; the
// model is read-only so no locking is needed. Any invalid row fails the
// whole batch so callers never receive partial results.
func (s *Service) ScoreCSV(ctx context.Context, r io.Reader) ([]BatchResult, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "batch file must be CSV with a header row")
	}
	if !slices.Contains(header, s.sig.IDColumn) {
		return nil, dErrors.NewValidation([]dErrors.FieldError{
			{Field: s.sig.IDColumn, Message: "column is required in batch files"},
		})
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "batch file is not well-formed CSV")
	}
	if len(rows) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "batch file contains no data rows")
	}
	if len(rows) > s.maxBatchRows {
		return nil, dErrors.Newf(dErrors.CodeValidation,
			"batch size %d exceeds limit of %d rows", len(rows), s.maxBatchRows)
	}

	results := make([]BatchResult, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, row := range rows {
		i, row := i, row
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pred, err := s.score(gctx, recordFromRow(header, row), "batch", true)
			if err != nil {
				return rowError(i+2, err) // +2: 1-based, after the header row
			}
			results[i] = BatchResult{
				ID:          pred.ID,
				Probability: pred.Probability,
				Label:       pred.Label,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.metrics.ObserveBatchRows(len(rows))
	return results, nil
}

func recordFromRow(header []string, row []string) map[string]any {
	record := make(map[string]any, len(header))
	for i, col := range header {
		if i < len(row) {
			record[col] = row[i]
		}
	}
	return record
}

// rowError re-frames a per-row failure with the row's position in the file
// while preserving the error code and field details.
func rowError(line int, err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) && de.Code == dErrors.CodeValidation {
		rowErr := dErrors.NewValidation(de.Fields)
		rowErr.Description = fmt.Sprintf("row at line %d does not satisfy the model input signature", line)
		return rowErr
	}
	return err
}
