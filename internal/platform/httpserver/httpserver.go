package httpserver

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"nftmarket/internal/platform/config"
)

const readHeaderTimeout = 5 * time.Second

// New builds the API server. Requests inherit base, so cancelling it aborts
// in-flight ledger calls once Shutdown's grace period has passed.
func New(base context.Context, cfg config.Server, handler http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return base },
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
}
