package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/cizu-api/internal/api/shared"
	"github.com/phrazzld/cizu-api/internal/platform/logger"
)

func TestTraceMiddleware(t *testing.T) {
	t.Parallel()

	base, buf := logger.NewCaptureLogger()

	var seenTrace string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTrace = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).InfoContext(r.Context(), "handled")
		w.WriteHeader(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	NewTraceMiddleware(base)(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.NotEmpty(t, seenTrace)
	assert.Equal(t, seenTrace, w.Header().Get(TraceHeader))

	entries, err := buf.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, seenTrace, e["trace_id"])
	}
	assert.Equal(t, "request started", entries[0]["msg"])
	assert.Equal(t, "handled", entries[1]["msg"])
}

func TestTraceMiddleware_DistinctIDs(t *testing.T) {
	t.Parallel()

	handler := NewTraceMiddleware(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	first, second := httptest.NewRecorder(), httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEqual(t, first.Header().Get(TraceHeader), second.Header().Get(TraceHeader))
}
