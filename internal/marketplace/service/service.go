package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nftmarket/internal/marketplace/metrics"
	"nftmarket/internal/marketplace/models"
	"nftmarket/internal/marketplace/ports"
	dErrors "nftmarket/pkg/domain-errors"
	"nftmarket/pkg/platform/outbox"
	"nftmarket/pkg/platform/sentinel"
	"nftmarket/pkg/platform/tx"
	"nftmarket/pkg/requestcontext"
)

const tracerName = "nftmarket/marketplace"

// Operation names used for metrics, spans and audit logs.
const (
	opList             = "list"
	opCancelListing    = "cancel_listing"
	opUpdateListing    = "update_listing"
	opBuyItem          = "buy_item"
	opWithdrawProceeds = "withdraw_proceeds"
)

// Service is the marketplace ledger: the listing registry and the proceeds
// ledger behind one serialized, reentrancy-guarded entry point.
type Service struct {
	operator  models.Address
	listings  ports.ListingStore
	proceeds  ports.ProceedsStore
	directory ports.AssetDirectory
	funds     ports.FundsTransfer
	outbox    ports.Outbox
	tx        ports.TxRunner
	guard     *callGuard
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithOutbox persists notifications in the caller's unit of work.
func WithOutbox(o ports.Outbox) Option {
	return func(s *Service) {
		s.outbox = o
	}
}

// WithTxRunner overrides the default in-memory unit of work.
func WithTxRunner(runner ports.TxRunner) Option {
	return func(s *Service) {
		if runner != nil {
			s.tx = runner
		}
	}
}

// WithGuardWait bounds how long a mutating call waits for the one in flight.
// Zero waits as long as the caller's context allows.
func WithGuardWait(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.guard.wait = d
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// New constructs the ledger. operator is the marketplace's own identity, the
// account owners must approve before listing.
func New(
	operator models.Address,
	listings ports.ListingStore,
	proceeds ports.ProceedsStore,
	directory ports.AssetDirectory,
	funds ports.FundsTransfer,
	opts ...Option,
) *Service {
	s := &Service{
		operator:  operator,
		listings:  listings,
		proceeds:  proceeds,
		directory: directory,
		funds:     funds,
		tx:        tx.NewMemoryRunner(0),
		guard:     newCallGuard(defaultGuardWait),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Operator returns the marketplace identity used for approval checks.
func (s *Service) Operator() models.Address {
	return s.operator
}

// GetListing returns the listing for an item, or the zero-price sentinel
// listing when the item is not listed.
func (s *Service) GetListing(ctx context.Context, collection models.Collection, itemID models.ItemID) (models.Listing, error) {
	key, err := models.NewItemKey(collection, itemID)
	if err != nil {
		return models.Listing{}, err
	}
	l, err := s.listings.Find(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Absent(key), nil
		}
		return models.Listing{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load listing")
	}
	return *l, nil
}

// GetProceeds returns an account's withdrawable balance.
func (s *Service) GetProceeds(ctx context.Context, account models.Address) (models.Amount, error) {
	if account.IsZero() {
		return 0, dErrors.New(dErrors.CodeValidation, "account is required")
	}
	balance, err := s.proceeds.Balance(ctx, account)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proceeds")
	}
	return balance, nil
}

// mutate runs fn as one guarded, atomic ledger operation.
func (s *Service) mutate(ctx context.Context, op string, attrs []attribute.KeyValue, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "marketplace."+op, trace.WithAttributes(attrs...))
	defer span.End()

	guarded, release, err := s.guard.enter(ctx)
	if err != nil {
		if s.metrics != nil && errors.Is(err, models.ErrReentrant) {
			s.metrics.IncrementReentrancyRejections()
		}
		s.finish(ctx, span, op, start, err)
		return err
	}
	defer release()

	err = s.tx.RunInTx(guarded, fn)
	s.finish(ctx, span, op, start, err)
	return err
}

func (s *Service) finish(ctx context.Context, span trace.Span, op string, start time.Time, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		if cond, ok := models.ConditionOf(err); ok {
			outcome = metrics.OutcomeRejected
			span.SetAttributes(attribute.String("marketplace.condition", string(cond)))
		} else {
			outcome = metrics.OutcomeError
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, err.Error())
		if s.logger != nil && outcome == metrics.OutcomeError {
			s.logger.ErrorContext(ctx, "ledger operation failed",
				"operation", op,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, outcome, start)
	}
}

// activeListing loads a listing or fails with NotListed.
func (s *Service) activeListing(ctx context.Context, key models.ItemKey) (*models.Listing, error) {
	l, err := s.listings.Find(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, models.NotListed(key)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load listing")
	}
	if l == nil || !l.IsActive() {
		return nil, models.NotListed(key)
	}
	return l, nil
}

// isListed reports whether an item has an active listing.
func (s *Service) isListed(ctx context.Context, key models.ItemKey) (bool, error) {
	_, err := s.activeListing(ctx, key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, models.ErrNotListed) {
		return false, nil
	}
	return false, err
}

// requireOwner fails with NotOwner unless caller owns the item. Unknown items
// have no owner, so they also fail with NotOwner.
func (s *Service) requireOwner(ctx context.Context, key models.ItemKey, caller models.Address) error {
	owner, err := s.directory.OwnerOf(ctx, key.Collection, key.ItemID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.ErrNotOwner
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "asset directory ownership lookup failed")
	}
	if owner != caller {
		return models.ErrNotOwner
	}
	return nil
}

// emit appends a notification to the outbox of the current unit of work.
func (s *Service) emit(ctx context.Context, event models.Event) error {
	if s.outbox == nil {
		return nil
	}
	event.RequestID = requestcontext.RequestID(ctx)

	aggregateType := "item"
	if event.Collection == "" {
		aggregateType = "account"
	}
	entry, err := outbox.NewEntry(aggregateType, event.PartitionKey(), string(event.Type), event, event.OccurredAt)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode notification")
	}
	if err := s.outbox.Append(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record notification")
	}
	return nil
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

func requireCaller(caller models.Address) error {
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}
	return nil
}

func itemAttrs(key models.ItemKey) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("marketplace.collection", string(key.Collection)),
		attribute.String("marketplace.item_id", string(key.ItemID)),
	}
}
