package tx

import (
	"context"
	"database/sql"
	"sync"
)

type ctxKey struct{}
type journalKey struct{}

var (
	txKey      = ctxKey{}
	journalCtx = journalKey{}
)

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Journal collects undo steps for in-memory stores participating in a unit of
// work. Steps are replayed in reverse order on rollback.
type Journal struct {
	mu    sync.Mutex
	undos []func()
}

// WithJournal stores a journal in context.
func WithJournal(ctx context.Context, j *Journal) context.Context {
	if j == nil {
		return ctx
	}
	return context.WithValue(ctx, journalCtx, j)
}

// JournalFrom extracts the active journal from context if present.
func JournalFrom(ctx context.Context) (*Journal, bool) {
	j, ok := ctx.Value(journalCtx).(*Journal)
	return j, ok
}

// RecordUndo registers undo on the journal carried by ctx. Outside a unit of
// work it is a no-op and the write is final.
func RecordUndo(ctx context.Context, undo func()) {
	if j, ok := JournalFrom(ctx); ok {
		j.Record(undo)
	}
}

// Record appends an undo step.
func (j *Journal) Record(undo func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.undos = append(j.undos, undo)
}

// Rollback replays recorded undo steps newest first and clears the journal.
func (j *Journal) Rollback() {
	j.mu.Lock()
	undos := j.undos
	j.undos = nil
	j.mu.Unlock()

	for i := len(undos) - 1; i >= 0; i-- {
		undos[i]()
	}
}

// Commit discards recorded undo steps.
func (j *Journal) Commit() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.undos = nil
}

// Len reports how many undo steps are pending.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.undos)
}
