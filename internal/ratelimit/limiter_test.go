package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nftmarket/pkg/platform/circuit"
)

func TestMapLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid settings yield nil", func(t *testing.T) {
		assert.Nil(t, NewMapLimiter(0, 1, 0))
		assert.Nil(t, NewMapLimiter(1, 0, 0))
	})

	t.Run("burst is admitted then requests are refused", func(t *testing.T) {
		l := NewMapLimiter(1, 2, time.Minute)
		frozen := time.Unix(1_700_000_000, 0)
		l.now = func() time.Time { return frozen }

		for range 2 {
			res, err := l.Allow(ctx, "0xseller")
			require.NoError(t, err)
			assert.True(t, res.Allowed)
		}
		res, err := l.Allow(ctx, "0xseller")
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, 2, res.Limit)
		assert.Equal(t, time.Second, res.RetryAfter)
	})

	t.Run("keys are independent", func(t *testing.T) {
		l := NewMapLimiter(1, 1, time.Minute)
		frozen := time.Unix(1_700_000_000, 0)
		l.now = func() time.Time { return frozen }

		first, _ := l.Allow(ctx, "a")
		second, _ := l.Allow(ctx, "b")
		assert.True(t, first.Allowed)
		assert.True(t, second.Allowed)
	})

	t.Run("tokens refill over time", func(t *testing.T) {
		l := NewMapLimiter(1, 1, time.Minute)
		now := time.Unix(1_700_000_000, 0)
		l.now = func() time.Time { return now }

		res, _ := l.Allow(ctx, "a")
		assert.True(t, res.Allowed)
		res, _ = l.Allow(ctx, "a")
		assert.False(t, res.Allowed)

		now = now.Add(time.Second)
		res, _ = l.Allow(ctx, "a")
		assert.True(t, res.Allowed)
	})
}

type scriptedLimiter struct {
	errs  []error
	calls int
}

func (s *scriptedLimiter) Allow(context.Context, string) (Result, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return Result{}, s.errs[i]
	}
	return Result{Allowed: true, Limit: 99}, nil
}

type constLimiter struct{ res Result }

func (c constLimiter) Allow(context.Context, string) (Result, error) { return c.res, nil }

func TestFailoverLimiter(t *testing.T) {
	ctx := context.Background()
	down := errors.New("redis down")
	fallback := constLimiter{res: Result{Allowed: false, Limit: 1}}

	t.Run("primary answers while healthy", func(t *testing.T) {
		l := NewFailoverLimiter(&scriptedLimiter{}, fallback, circuit.New("test"), nil)
		res, err := l.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.False(t, res.Degraded)
	})

	t.Run("errors surface until the circuit opens", func(t *testing.T) {
		primary := &scriptedLimiter{errs: []error{down, down}}
		l := NewFailoverLimiter(primary, fallback, circuit.New("test", circuit.WithFailureThreshold(2)), nil)

		_, err := l.Allow(ctx, "k")
		require.ErrorIs(t, err, down)

		res, err := l.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, res.Degraded)
		assert.False(t, res.Allowed)
	})

	t.Run("fallback is used until primary recovers", func(t *testing.T) {
		primary := &scriptedLimiter{errs: []error{down}}
		l := NewFailoverLimiter(primary, fallback, circuit.New("test",
			circuit.WithFailureThreshold(1), circuit.WithSuccessThreshold(2)), nil)

		res, _ := l.Allow(ctx, "k")
		assert.True(t, res.Degraded)
		res, _ = l.Allow(ctx, "k")
		assert.True(t, res.Degraded)
		res, _ = l.Allow(ctx, "k")
		assert.False(t, res.Degraded)
		assert.True(t, res.Allowed)
	})
}
