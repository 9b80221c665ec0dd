package service

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"nftmarket/internal/marketplace/models"
	dErrors "nftmarket/pkg/domain-errors"
)

const defaultGuardWait = 10 * time.Second

// callGuard serializes mutating calls on one ledger and rejects calls nested
// inside an in-flight one.
//
// A call is nested when its context descends from the context the guard
// handed to the outer call, or when it arrives while the outer call is inside
// a value-moving capability call (asset transfer or payout). The second rule
// catches callbacks that do not carry the outer context; it also turns away
// unrelated callers during that window. Everyone else waits for the holder,
// but no longer than wait or their own context allows.
type callGuard struct {
	sem     *semaphore.Weighted
	wait    time.Duration
	calling atomic.Bool
}

func newCallGuard(wait time.Duration) *callGuard {
	return &callGuard{sem: semaphore.NewWeighted(1), wait: wait}
}

type inFlightKey struct {
	g *callGuard
}

// enter acquires the guard. The returned release must be called on every
// exit path; it is nil when err is non-nil.
func (g *callGuard) enter(ctx context.Context) (context.Context, func(), error) {
	if ctx.Value(inFlightKey{g: g}) != nil || g.calling.Load() {
		return ctx, nil, models.ErrReentrant
	}

	acquireCtx := ctx
	if g.wait > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, g.wait)
		defer cancel()
	}
	if err := g.sem.Acquire(acquireCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx, nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "gave up waiting for the ledger")
		}
		return ctx, nil, dErrors.New(dErrors.CodeUnavailable, "ledger busy")
	}
	return context.WithValue(ctx, inFlightKey{g: g}, struct{}{}), func() { g.sem.Release(1) }, nil
}

// external runs a value-moving capability call while the guard is held.
func (g *callGuard) external(fn func() error) error {
	g.calling.Store(true)
	defer g.calling.Store(false)
	return fn()
}
