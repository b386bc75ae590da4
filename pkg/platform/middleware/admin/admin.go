// Package admin guards operator-only routes with a shared static token.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "reseller/pkg/domain-errors"
	"reseller/pkg/platform/httputil"
	"reseller/pkg/requestcontext"
)

const HeaderToken = "X-Admin-Token"

var errTokenRequired = dErrors.New(dErrors.CodeUnauthorized, "admin token required")

// RequireAdminToken lets a request through only when its token header equals
// want. With an empty want nothing gets through.
func RequireAdminToken(want string, logger *slog.Logger) func(http.Handler) http.Handler {
	expected := []byte(want)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !tokenMatches(expected, r.Header.Get(HeaderToken)) {
				ctx := r.Context()
				logger.WarnContext(ctx, "rejected job trigger without valid admin token",
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, errTokenRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tokenMatches(expected []byte, got string) bool {
	if len(expected) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(expected, []byte(got)) == 1
}
