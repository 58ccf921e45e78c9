package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloo-solutions/molpanel/internal/logging"
	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestAccessLog_LogsRouteAndPanel(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := logging.NewFromCore(core)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog(logger))
	r.Get("/api/panels/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("nope"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/panels/p-1", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, zap.WarnLevel, entry.Level)
	ctx := entry.ContextMap()
	assert.Equal(t, "GET", ctx["method"])
	assert.Equal(t, int64(http.StatusNotFound), ctx["status"])
	assert.Equal(t, int64(4), ctx["bytes"])
	assert.Equal(t, "/api/panels/{id}", ctx["route"])
	assert.Equal(t, "p-1", ctx["panel_id"])
	assert.NotEmpty(t, ctx["request_id"])
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:4321"
	assert.Equal(t, "10.0.0.5", clientIP(req))

	req.Header.Set("X-Real-IP", "192.168.1.1")
	assert.Equal(t, "192.168.1.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req))
}

func TestMaxBodyBytes(t *testing.T) {
	h := MaxBodyBytes(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("CCO")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("CC(=O)OC1=CC=CC=C1C(=O)O")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "exceeds 8 bytes")

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("CC(=O)OC1=CC=CC=C1C(=O)O"))
	req.ContentLength = -1
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestSentryMiddleware_PassesThroughWithoutClient(t *testing.T) {
	var hub *sentry.Hub
	r := chi.NewRouter()
	r.Use(SentryMiddleware)
	r.Post("/api/panels/{id}/retrieve", func(w http.ResponseWriter, r *http.Request) {
		hub = sentry.GetHubFromContext(r.Context())
		w.WriteHeader(http.StatusConflict)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/panels/p-1/retrieve", nil))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NotNil(t, hub)
}

func TestSentryMiddleware_RepanicsForRecoverer(t *testing.T) {
	h := SentryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	assert.Panics(t, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestHTTPStatusToSpanStatus(t *testing.T) {
	tests := []struct {
		status int
		want   sentry.SpanStatus
	}{
		{http.StatusOK, sentry.SpanStatusOK},
		{http.StatusCreated, sentry.SpanStatusOK},
		{http.StatusBadRequest, sentry.SpanStatusInvalidArgument},
		{http.StatusNotFound, sentry.SpanStatusNotFound},
		{http.StatusConflict, sentry.SpanStatusAlreadyExists},
		{http.StatusGone, sentry.SpanStatusFailedPrecondition},
		{http.StatusBadGateway, sentry.SpanStatusUnavailable},
		{http.StatusGatewayTimeout, sentry.SpanStatusDeadlineExceeded},
		{http.StatusInternalServerError, sentry.SpanStatusInternalError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, httpStatusToSpanStatus(tt.status), "status %d", tt.status)
	}
}
