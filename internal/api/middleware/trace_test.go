package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskr-api/internal/api/shared"
	"github.com/phrazzld/taskr-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
)

func TestTraceMiddleware(t *testing.T) {
	t.Parallel()
	base, logBuf := logger.GetTestLogger(t)

	var traceID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusNoContent)
	})

	recorder := httptest.NewRecorder()
	NewTraceMiddleware(base)(next).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Len(t, traceID, shared.TraceIDLength*2)

	entries := logger.FindLogEntries(t, logBuf, map[string]interface{}{"msg": "inside handler"})
	if assert.Len(t, entries, 1) {
		assert.Equal(t, traceID, entries[0]["trace_id"])
		assert.NotContains(t, entries[0], "request_id")
	}
}

func TestTraceMiddleware_TagsRequestID(t *testing.T) {
	t.Parallel()
	base, logBuf := logger.GetTestLogger(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Info("inside handler")
	})
	handler := chimw.RequestID(NewTraceMiddleware(base)(next))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(chimw.RequestIDHeader, "req-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	logger.AssertLogContains(t, logBuf, `"request_id":"req-123"`)
}
