package requestmeta

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credrisk/pkg/requestcontext"
)

func TestMiddleware(t *testing.T) {
	t.Run("assigns request ID and client metadata", func(t *testing.T) {
		var gotID, gotIP, gotUA string
		h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotID = requestcontext.RequestID(r.Context())
			gotIP = requestcontext.ClientIP(r.Context())
			gotUA = requestcontext.UserAgent(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("User-Agent", "test-agent")
		req.RemoteAddr = "203.0.113.9:4431"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		require.NotEmpty(t, gotID)
		assert.Equal(t, gotID, rr.Header().Get("X-Request-ID"))
		assert.Equal(t, "203.0.113.9", gotIP)
		assert.Equal(t, "test-agent", gotUA)
	})

	t.Run("honors caller-supplied request ID", func(t *testing.T) {
		var gotID string
		h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotID = requestcontext.RequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "caller-id-7")
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "caller-id-7", gotID)
	})

	t.Run("prefers X-Forwarded-For over RemoteAddr", func(t *testing.T) {
		var gotIP string
		h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotIP = requestcontext.ClientIP(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Forwarded-For", "198.51.100.2, 10.0.0.1")
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "198.51.100.2", gotIP)
	})
}
