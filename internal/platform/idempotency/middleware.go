package idempotency

import (
	"log/slog"
	"net/http"
	"time"

	"nftmarket/pkg/platform/httputil"
	"nftmarket/pkg/requestcontext"
)

// HeaderKey is the request header carrying the client's idempotency key.
const HeaderKey = "Idempotency-Key"

const maxKeyLength = 255

// Middleware rejects a repeated (caller, method, path, key) with 409 while the
// first request's claim is live. Claims of failed requests (status >= 400)
// are released so the client can retry. Requests without the header pass
// through; store errors fail open.
func Middleware(store Store, ttl time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(HeaderKey)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxKeyLength {
				httputil.WriteErrorCode(w, http.StatusBadRequest, "bad_request", "Idempotency-Key is too long")
				return
			}

			ctx := r.Context()
			scoped := requestcontext.Caller(ctx) + "|" + r.Method + "|" + r.URL.Path + "|" + key
			claimed, err := store.Claim(ctx, scoped, ttl)
			if err != nil {
				logger.ErrorContext(ctx, "idempotency claim failed",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}
			if !claimed {
				logger.InfoContext(ctx, "duplicate request rejected",
					"idempotency_key", key,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteErrorCode(w, http.StatusConflict, "idempotency_key_reused",
					"A request with this Idempotency-Key was already processed")
				return
			}

			rec := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			if rec.status >= http.StatusBadRequest {
				if err := store.Release(ctx, scoped); err != nil {
					logger.ErrorContext(ctx, "idempotency release failed",
						"error", err,
						"request_id", requestcontext.RequestID(ctx),
					)
				}
			}
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}
