package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"nftmarket/internal/ratelimit"
	"nftmarket/pkg/requestcontext"
)

type fakeLimiter struct {
	result  ratelimit.Result
	err     error
	lastKey string
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (ratelimit.Result, error) {
	f.lastKey = key
	return f.result, f.err
}

func TestRateLimitCaller(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	newRequest := func(caller string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/v1/listings", nil)
		ctx := requestcontext.WithClientIP(req.Context(), "192.0.2.1")
		if caller != "" {
			ctx = requestcontext.WithCaller(ctx, caller)
		}
		return req.WithContext(ctx)
	}

	t.Run("allowed request passes with headers", func(t *testing.T) {
		limiter := &fakeLimiter{result: ratelimit.Result{Allowed: true, Limit: 10, Remaining: 9}}
		rr := httptest.NewRecorder()

		New(limiter, logger).RateLimitCaller(ok).ServeHTTP(rr, newRequest("0xseller"))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "0xseller", limiter.lastKey)
		assert.Equal(t, "10", rr.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "9", rr.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("refused request gets 429 and retry-after", func(t *testing.T) {
		limiter := &fakeLimiter{result: ratelimit.Result{Limit: 10, RetryAfter: 1500 * time.Millisecond}}
		rr := httptest.NewRecorder()

		New(limiter, logger).RateLimitCaller(ok).ServeHTTP(rr, newRequest("0xseller"))

		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.Equal(t, "2", rr.Header().Get("Retry-After"))
		assert.Contains(t, rr.Body.String(), "rate_limit_exceeded")
	})

	t.Run("anonymous requests are keyed by ip", func(t *testing.T) {
		limiter := &fakeLimiter{result: ratelimit.Result{Allowed: true}}

		New(limiter, logger).RateLimitCaller(ok).ServeHTTP(httptest.NewRecorder(), newRequest(""))

		assert.Equal(t, "ip:192.0.2.1", limiter.lastKey)
	})

	t.Run("limiter failure fails open", func(t *testing.T) {
		limiter := &fakeLimiter{err: errors.New("boom")}
		rr := httptest.NewRecorder()

		New(limiter, logger).RateLimitCaller(ok).ServeHTTP(rr, newRequest("0xseller"))

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("degraded answers are flagged", func(t *testing.T) {
		limiter := &fakeLimiter{result: ratelimit.Result{Allowed: true, Degraded: true}}
		rr := httptest.NewRecorder()

		New(limiter, logger).RateLimitCaller(ok).ServeHTTP(rr, newRequest("0xseller"))

		assert.Equal(t, "degraded", rr.Header().Get("X-RateLimit-Status"))
	})

	t.Run("disabled middleware skips the limiter", func(t *testing.T) {
		limiter := &fakeLimiter{result: ratelimit.Result{}}
		rr := httptest.NewRecorder()

		New(limiter, logger, WithDisabled(true)).RateLimitCaller(ok).ServeHTTP(rr, newRequest("0xseller"))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, limiter.lastKey)
	})
}
