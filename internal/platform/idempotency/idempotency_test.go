package idempotency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nftmarket/pkg/requestcontext"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }

	ok, err := store.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = store.Claim(ctx, "k", time.Minute)
	assert.False(t, ok, "live claim must not be re-claimed")

	now = now.Add(time.Minute)
	ok, _ = store.Claim(ctx, "k", time.Minute)
	assert.True(t, ok, "expired claim is free again")

	require.NoError(t, store.Release(ctx, "k"))
	ok, _ = store.Claim(ctx, "k", time.Minute)
	assert.True(t, ok, "released claim is free again")
}

type failingStore struct{}

func (failingStore) Claim(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}
func (failingStore) Release(context.Context, string) error { return nil }

func TestMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	calls := 0
	status := http.StatusCreated
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	})

	send := func(h http.Handler, caller, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/listings", nil)
		req = req.WithContext(requestcontext.WithCaller(req.Context(), caller))
		if key != "" {
			req.Header.Set(HeaderKey, key)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	t.Run("duplicate key is rejected", func(t *testing.T) {
		calls, status = 0, http.StatusCreated
		h := Middleware(NewMemoryStore(), time.Hour, logger)(handler)

		assert.Equal(t, http.StatusCreated, send(h, "0xa", "k1").Code)
		rr := send(h, "0xa", "k1")
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Contains(t, rr.Body.String(), "idempotency_key_reused")
		assert.Equal(t, 1, calls)
	})

	t.Run("keys are scoped per caller", func(t *testing.T) {
		calls, status = 0, http.StatusCreated
		h := Middleware(NewMemoryStore(), time.Hour, logger)(handler)

		send(h, "0xa", "k1")
		assert.Equal(t, http.StatusCreated, send(h, "0xb", "k1").Code)
		assert.Equal(t, 2, calls)
	})

	t.Run("failed request releases its claim", func(t *testing.T) {
		calls, status = 0, http.StatusPaymentRequired
		h := Middleware(NewMemoryStore(), time.Hour, logger)(handler)

		send(h, "0xa", "k1")
		send(h, "0xa", "k1")
		assert.Equal(t, 2, calls)
	})

	t.Run("requests without key pass through", func(t *testing.T) {
		calls, status = 0, http.StatusCreated
		h := Middleware(NewMemoryStore(), time.Hour, logger)(handler)

		send(h, "0xa", "")
		send(h, "0xa", "")
		assert.Equal(t, 2, calls)
	})

	t.Run("oversized key is a bad request", func(t *testing.T) {
		calls = 0
		h := Middleware(NewMemoryStore(), time.Hour, logger)(handler)

		rr := send(h, "0xa", strings.Repeat("k", maxKeyLength+1))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Zero(t, calls)
	})

	t.Run("store failure fails open", func(t *testing.T) {
		calls, status = 0, http.StatusCreated
		h := Middleware(failingStore{}, time.Hour, logger)(handler)

		assert.Equal(t, http.StatusCreated, send(h, "0xa", "k1").Code)
		assert.Equal(t, 1, calls)
	})
}
