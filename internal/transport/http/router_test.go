package httptransport

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"credrisk/internal/artifact"
	"credrisk/internal/scoring"
	scoringhandler "credrisk/internal/scoring/handler"
	"credrisk/internal/system"
	"credrisk/pkg/testutil"
)

func newTestRouter(t *testing.T, health *system.Health) http.Handler {
	t.Helper()

	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}
	modelPath := write("model.json", `{"model_type":"logistic","weights":[0.1],"intercept":-3}`)
	sigPath := write("signature.json", `{"expected_columns":["age"],"dtypes":{"age":"int64"}}`)
	metaPath := write("metadata.json", `{"threshold":0.5,"version":"1.0.0"}`)

	bundle, err := artifact.Load(modelPath, sigPath, metaPath)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := scoring.New(bundle, scoring.WithLogger(logger))
	return NewRouter(scoringhandler.New(svc, logger), system.NewHandler(health), health, logger)
}

func TestRouterLifecycle(t *testing.T) {
	health := system.NewHealth()
	router := newTestRouter(t, health)

	t.Run("predict is gated until ready", func(t *testing.T) {
		health.Set(system.StateLoading)
		rr := testutil.DoRequest(router,
			testutil.NewJSONRequest(t, http.MethodPost, "/predict", map[string]any{"age": 40}))
		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	})

	t.Run("metrics stays scrapeable while loading", func(t *testing.T) {
		health.Set(system.StateLoading)
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/metrics", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("full surface serves once ready", func(t *testing.T) {
		health.Set(system.StateReady)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/health", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)

		rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/metadata", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)

		rr = testutil.DoRequest(router,
			testutil.NewJSONRequest(t, http.MethodPost, "/predict", map[string]any{"age": 40}))
		testutil.AssertStatus(t, rr, http.StatusOK)

		rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/metrics", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("responses carry a request ID", func(t *testing.T) {
		health.Set(system.StateReady)
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/health", nil))
		require.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})
}
