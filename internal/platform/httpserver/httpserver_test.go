package httpserver

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"nftmarket/internal/platform/config"
)

type ctxKey struct{}

func TestNew(t *testing.T) {
	base := context.WithValue(context.Background(), ctxKey{}, "base")
	cfg := config.Server{Addr: ":0", ReadTimeout: time.Second, WriteTimeout: 2 * time.Second, IdleTimeout: 3 * time.Second}

	srv := New(base, cfg, http.NotFoundHandler(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, ":0", srv.Addr)
	assert.Equal(t, readHeaderTimeout, srv.ReadHeaderTimeout)
	assert.Equal(t, time.Second, srv.ReadTimeout)
	assert.Equal(t, 2*time.Second, srv.WriteTimeout)
	assert.Equal(t, 3*time.Second, srv.IdleTimeout)
	assert.Equal(t, "base", srv.BaseContext(nil).Value(ctxKey{}))
	assert.NotNil(t, srv.ErrorLog)
}
