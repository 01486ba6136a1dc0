package system

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"credrisk/pkg/testutil"
)

func TestHandleHealth(t *testing.T) {
	health := NewHealth()
	handler := NewHandler(health)

	t.Run("503 before artifacts are loaded", func(t *testing.T) {
		health.Set(StateLoading)
		rr := testutil.DoRequest(http.HandlerFunc(handler.HandleHealth),
			httptest.NewRequest(http.MethodGet, "/health", nil))

		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
		body := testutil.UnmarshalResponse[map[string]string](t, rr)
		assert.Equal(t, "loading", (*body)["status"])
	})

	t.Run("200 once ready", func(t *testing.T) {
		health.Set(StateReady)
		rr := testutil.DoRequest(http.HandlerFunc(handler.HandleHealth),
			httptest.NewRequest(http.MethodGet, "/health", nil))

		testutil.AssertStatus(t, rr, http.StatusOK)
		body := testutil.UnmarshalResponse[map[string]string](t, rr)
		assert.Equal(t, "ok", (*body)["status"])
	})

	t.Run("503 while shutting down", func(t *testing.T) {
		health.Set(StateShuttingDown)
		rr := testutil.DoRequest(http.HandlerFunc(handler.HandleHealth),
			httptest.NewRequest(http.MethodGet, "/health", nil))

		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	})
}

func TestGate(t *testing.T) {
	health := NewHealth()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	gated := Gate(health)(next)

	t.Run("blocks requests before ready", func(t *testing.T) {
		health.Set(StateLoading)
		rr := testutil.DoRequest(gated, httptest.NewRequest(http.MethodPost, "/predict", nil))

		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
		testutil.AssertErrorCode(t, rr, "unavailable")
	})

	t.Run("passes requests when ready", func(t *testing.T) {
		health.Set(StateReady)
		rr := testutil.DoRequest(gated, httptest.NewRequest(http.MethodPost, "/predict", nil))

		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("health endpoint bypasses the gate", func(t *testing.T) {
		health.Set(StateShuttingDown)
		rr := testutil.DoRequest(gated, httptest.NewRequest(http.MethodGet, "/health", nil))

		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("metrics endpoint bypasses the gate", func(t *testing.T) {
		health.Set(StateLoading)
		rr := testutil.DoRequest(gated, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		testutil.AssertStatus(t, rr, http.StatusOK)
	})
}
