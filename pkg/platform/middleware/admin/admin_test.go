package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireAdminToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	cases := []struct {
		name     string
		expected string
		sent     string
		want     int
	}{
		{"matching token", "t0k", "t0k", http.StatusNoContent},
		{"wrong token", "t0k", "nope", http.StatusUnauthorized},
		{"missing token", "t0k", "", http.StatusUnauthorized},
		{"unconfigured token rejects everything", "", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/jobs/renew", nil)
			if tc.sent != "" {
				req.Header.Set(HeaderToken, tc.sent)
			}
			w := httptest.NewRecorder()
			RequireAdminToken(tc.expected, logger)(ok).ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
			if tc.want == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"unauthorized","error_description":"admin token required"}`, w.Body.String())
			}
		})
	}
}
