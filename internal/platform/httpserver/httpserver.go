// Package httpserver builds the ops listener of reseller-server.
package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"reseller/internal/platform/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	idleTimeout       = 2 * time.Minute
	// Job triggers run a full batch inside the request.
	writeTimeout = 30 * time.Minute
)

// New returns an unstarted server. Connection-level errors from net/http are
// routed into the structured logger at warn level.
func New(cfg config.Server, handler http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
}
