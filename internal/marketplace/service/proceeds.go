package service

import (
	"context"
	"math"

	"go.opentelemetry.io/otel/attribute"

	"nftmarket/internal/marketplace/models"
	dErrors "nftmarket/pkg/domain-errors"
	"nftmarket/pkg/requestcontext"
)

// WithdrawProceeds pays out the caller's entire balance. The balance is
// cleared before funds are sent; a failed send restores it.
func (s *Service) WithdrawProceeds(ctx context.Context, caller models.Address) (models.Amount, error) {
	if err := requireCaller(caller); err != nil {
		return 0, err
	}

	var paid models.Amount
	attrs := []attribute.KeyValue{attribute.String("marketplace.account", string(caller))}
	err := s.mutate(ctx, opWithdrawProceeds, attrs, func(txCtx context.Context) error {
		balance, err := s.proceeds.Balance(txCtx, caller)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proceeds")
		}
		if balance == 0 {
			return models.ErrNoProceeds
		}
		if err := s.proceeds.SetBalance(txCtx, caller, 0); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear proceeds")
		}
		if err := s.emit(txCtx, models.ProceedsWithdrawn(caller, balance, requestcontext.Now(txCtx))); err != nil {
			return err
		}
		err = s.guard.external(func() error {
			return s.funds.Send(txCtx, caller, balance)
		})
		if err != nil {
			return models.TransferFailed(err)
		}
		paid = balance
		return nil
	})
	if err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.AddProceedsWithdrawn(paid)
	}
	s.logAudit(ctx, "proceeds_withdrawn",
		"seller", caller,
		"amount", paid,
	)
	return paid, nil
}

// credit adds value to an account's proceeds.
func (s *Service) credit(ctx context.Context, account models.Address, value models.Amount) error {
	balance, err := s.proceeds.Balance(ctx, account)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proceeds")
	}
	if value > math.MaxUint64-balance {
		return dErrors.New(dErrors.CodeInvariantViolation, "proceeds balance overflow")
	}
	if err := s.proceeds.SetBalance(ctx, account, balance+value); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit proceeds")
	}
	return nil
}
