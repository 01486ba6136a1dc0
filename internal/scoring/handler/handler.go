package handler

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"credrisk/internal/scoring"
	dErrors "credrisk/pkg/domain-errors"
	"credrisk/pkg/platform/httputil"
	"credrisk/pkg/requestcontext"
)

// Service defines the interface for scoring operations.
type Service interface {
	Predict(ctx context.Context, record map[string]any) (*scoring.Prediction, error)
	ScoreCSV(ctx context.Context, r io.Reader) ([]scoring.BatchResult, error)
	Metadata() map[string]any
}

// Handler wires prediction endpoints to the scoring service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a scoring handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts scoring endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/metadata", h.HandleMetadata)
	r.Post("/predict", h.HandlePredict)
	r.Post("/predict/batch", h.HandlePredictBatch)
}

// HandleMetadata handles GET /metadata. The loaded metadata record is served
// verbatim and never changes within a process lifetime.
func (h *Handler) HandleMetadata(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.Metadata())
}

// HandlePredict handles POST /predict requests.
func (h *Handler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[PredictRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	pred, err := h.service.Predict(ctx, req.Record)
	if err != nil {
		h.logError(ctx, "prediction failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "prediction served",
		"request_id", requestID,
		"probability", pred.Probability,
		"label", pred.Label,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromPrediction(pred))
}

// HandlePredictBatch handles POST /predict/batch requests. Accepts either a
// multipart upload under the "file" field or a raw CSV body, and streams the
// scored rows back as a CSV attachment.
func (h *Handler) HandlePredictBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	body, err := batchBody(r)
	if err != nil {
		h.logError(ctx, "batch upload rejected", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	defer body.Close()

	results, err := h.service.ScoreCSV(ctx, body)
	if err != nil {
		h.logError(ctx, "batch scoring failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "batch scored",
		"request_id", requestID,
		"rows", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	h.writeBatchCSV(ctx, w, requestID, requestcontext.Now(ctx), results)
}

// batchBody selects the CSV stream from the request: the "file" part of a
// multipart upload, or the raw body otherwise.
func batchBody(r *http.Request) (io.ReadCloser, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err == nil && mediaType == "multipart/form-data" {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, dErrors.New(dErrors.CodeBadRequest, `multipart upload must carry a "file" field`)
		}
		return file, nil
	}
	return r.Body, nil
}

func (h *Handler) writeBatchCSV(ctx context.Context, w http.ResponseWriter, requestID string, now time.Time, results []scoring.BatchResult) {
	filename := "predictions_" + now.UTC().Format("20060102T150405") + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	// Write errors are sticky on the csv.Writer, so one check after Flush
	// covers the whole download.
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "probability", "label"})
	for _, res := range results {
		_ = cw.Write([]string{
			res.ID,
			strconv.FormatFloat(res.Probability, 'g', -1, 64),
			strconv.Itoa(res.Label),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.ErrorContext(ctx, "batch response truncated",
			"request_id", requestID,
			"rows", len(results),
			"error", err,
		)
	}
}

func (h *Handler) logError(ctx context.Context, msg, requestID string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err)
		return
	}
	h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err)
}
