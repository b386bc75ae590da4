package request

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reseller/pkg/requestcontext"
)

func TestContext(t *testing.T) {
	var (
		gotRequestID string
		gotRunID     string
		gotNow       time.Time
	)
	h := Context(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = requestcontext.RequestID(r.Context())
		gotRunID = requestcontext.RunID(r.Context())
		gotNow = requestcontext.Now(r.Context())
	}))

	t.Run("generates a request id and pins the time", func(t *testing.T) {
		before := time.Now().UTC()
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, gotRequestID)
		assert.Equal(t, gotRequestID, w.Header().Get(HeaderRequestID))
		assert.Empty(t, gotRunID)
		assert.False(t, gotNow.Before(before))
	})

	t.Run("propagates caller ids", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "req-1")
		req.Header.Set(HeaderRunID, "run-1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, "req-1", gotRequestID)
		assert.Equal(t, "run-1", gotRunID)
		assert.Equal(t, "run-1", w.Header().Get(HeaderRunID))
	})
}

func TestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))

	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"path":"/brew"`)
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:5123"
	assert.Equal(t, "10.0.0.9", ClientIP(req))

	req.Header.Set("X-Real-IP", "192.0.2.4")
	assert.Equal(t, "192.0.2.4", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
	assert.Equal(t, "198.51.100.1", ClientIP(req))
}
