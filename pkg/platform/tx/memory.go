package tx

import (
	"context"
	"fmt"
	"time"

	dErrors "nftmarket/pkg/domain-errors"
)

// defaultTxTimeout bounds a unit of work when the caller has no deadline.
const defaultTxTimeout = 5 * time.Second

// MemoryRunner runs units of work against in-memory stores. Writes are applied
// immediately and undone from the journal if fn fails, so nested reads during
// the unit of work observe in-flight state.
type MemoryRunner struct {
	timeout time.Duration
}

// NewMemoryRunner constructs a MemoryRunner. A zero timeout uses the default.
func NewMemoryRunner(timeout time.Duration) *MemoryRunner {
	return &MemoryRunner{timeout: timeout}
}

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	// Nested units of work join the outer journal.
	if _, ok := JournalFrom(ctx); ok {
		return fn(ctx)
	}

	timeout := r.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	j := &Journal{}
	defer func() {
		if p := recover(); p != nil {
			j.Rollback()
			err = dErrors.Wrap(fmt.Errorf("%v", p), dErrors.CodeInternal, "transaction panicked")
		}
	}()

	if err := fn(WithJournal(ctx, j)); err != nil {
		j.Rollback()
		return err
	}
	j.Commit()
	return nil
}
