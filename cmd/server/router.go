package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nftmarket/internal/marketplace/handler"
	"nftmarket/internal/platform/config"
	"nftmarket/internal/platform/idempotency"
	httpmetrics "nftmarket/internal/platform/metrics"
	"nftmarket/internal/ratelimit"
	ratelimitmw "nftmarket/internal/ratelimit/middleware"
	"nftmarket/pkg/platform/httputil"
	authmw "nftmarket/pkg/platform/middleware/auth"
	"nftmarket/pkg/platform/middleware/metadata"
	"nftmarket/pkg/platform/middleware/request"
	"nftmarket/pkg/platform/middleware/requesttime"
)

type routerDeps struct {
	logger      *slog.Logger
	handler     *handler.Handler
	validator   authmw.JWTValidator
	limiter     ratelimit.Limiter
	rateLimit   config.RateLimit
	idempotency idempotency.Store
	idemTTL     time.Duration
	httpMetrics *httpmetrics.Metrics
	health      map[string]func(context.Context) error
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recover(d.logger))
	r.Use(d.httpMetrics.Middleware)
	r.Use(request.Logger(d.logger))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", healthHandler(d.health))
	r.Handle("/metrics", promhttp.Handler())

	limiter := ratelimitmw.New(d.limiter, d.logger, ratelimitmw.WithDisabled(!d.rateLimit.Enabled))
	idem := idempotency.Middleware(d.idempotency, d.idemTTL, d.logger)

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(d.validator, d.logger))
		d.handler.Register(r, func(r chi.Router) chi.Router {
			return r.With(limiter.RateLimitCaller, idem)
		})
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: map[string]string{}}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
