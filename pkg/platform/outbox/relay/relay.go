package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"nftmarket/pkg/platform/outbox"
)

const (
	defaultBatchSize    = 100
	defaultPollInterval = time.Second
)

// TxRunner scopes a relay pass so fetched rows stay locked until marked.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics receives relay outcomes. Implementations must be safe for concurrent use.
type Metrics interface {
	ObservePublished(n int)
	ObservePublishFailure()
}

// Relay moves unpublished outbox entries to a Publisher. A failed publish
// leaves entries in place for the next pass, so delivery is at-least-once.
type Relay struct {
	store     outbox.Store
	publisher outbox.Publisher
	tx        TxRunner
	logger    *slog.Logger
	metrics   Metrics
	batchSize int
	interval  time.Duration
	now       func() time.Time
}

type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

func WithMetrics(m Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

func WithTxRunner(tx TxRunner) Option {
	return func(r *Relay) { r.tx = tx }
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Relay) {
		if now != nil {
			r.now = now
		}
	}
}

// New constructs a Relay.
func New(store outbox.Store, publisher outbox.Publisher, opts ...Option) *Relay {
	r := &Relay{
		store:     store,
		publisher: publisher,
		batchSize: defaultBatchSize,
		interval:  defaultPollInterval,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil && r.logger != nil {
				r.logger.WarnContext(ctx, "outbox relay pass failed", "error", err)
			}
		}
	}
}

// RunOnce publishes at most one batch and returns how many entries were delivered.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	var published int
	pass := func(ctx context.Context) error {
		entries, err := r.store.FetchUnpublished(ctx, r.batchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		if err := r.publisher.Publish(ctx, entries); err != nil {
			if r.metrics != nil {
				r.metrics.ObservePublishFailure()
			}
			return err
		}

		ids := make([]uuid.UUID, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		if err := r.store.MarkPublished(ctx, ids, r.now()); err != nil {
			return err
		}
		published = len(entries)
		return nil
	}

	var err error
	if r.tx != nil {
		err = r.tx.RunInTx(ctx, pass)
	} else {
		err = pass(ctx)
	}
	if err != nil {
		return 0, err
	}
	if published > 0 {
		if r.metrics != nil {
			r.metrics.ObservePublished(published)
		}
		if r.logger != nil {
			r.logger.DebugContext(ctx, "outbox entries published", "count", published)
		}
	}
	return published, nil
}
