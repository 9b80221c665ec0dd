package models

import (
	"errors"
	"fmt"
)

// Condition names a ledger failure. Values are stable and appear on the wire.
type Condition string

const (
	CondAlreadyListed             Condition = "already_listed"
	CondNotListed                 Condition = "not_listed"
	CondNotOwner                  Condition = "not_owner"
	CondPriceMustBeAboveZero      Condition = "price_must_be_above_zero"
	CondNotApprovedForMarketplace Condition = "not_approved_for_marketplace"
	CondPriceNotMet               Condition = "price_not_met"
	CondNoProceeds                Condition = "no_proceeds"
	CondTransferFailed            Condition = "transfer_failed"
	CondReentrant                 Condition = "reentrant_call"
)

// Error is a ledger condition with the context needed to act on it.
// Collection, ItemID and Price are set only for conditions that carry them.
type Error struct {
	Condition  Condition
	Collection Collection
	ItemID     ItemID
	Price      Amount
	Err        error
}

func (e *Error) Error() string {
	var msg string
	switch e.Condition {
	case CondAlreadyListed:
		msg = fmt.Sprintf("item %s/%s is already listed", e.Collection, e.ItemID)
	case CondNotListed:
		msg = fmt.Sprintf("item %s/%s is not listed", e.Collection, e.ItemID)
	case CondPriceNotMet:
		msg = fmt.Sprintf("price not met for %s/%s: requires %d", e.Collection, e.ItemID, e.Price)
	case CondNotOwner:
		msg = "caller is not the owner of the item"
	case CondPriceMustBeAboveZero:
		msg = "price must be above zero"
	case CondNotApprovedForMarketplace:
		msg = "marketplace is not approved to transfer the item"
	case CondNoProceeds:
		msg = "no proceeds to withdraw"
	case CondTransferFailed:
		msg = "transfer failed"
	case CondReentrant:
		msg = "reentrant call rejected"
	default:
		msg = string(e.Condition)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on the condition only, so errors.Is(err, ErrNotListed) holds for
// any NotListed error regardless of the item it names.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Condition == e.Condition
}

// Sentinels for errors.Is.
var (
	ErrAlreadyListed             = &Error{Condition: CondAlreadyListed}
	ErrNotListed                 = &Error{Condition: CondNotListed}
	ErrNotOwner                  = &Error{Condition: CondNotOwner}
	ErrPriceMustBeAboveZero      = &Error{Condition: CondPriceMustBeAboveZero}
	ErrNotApprovedForMarketplace = &Error{Condition: CondNotApprovedForMarketplace}
	ErrPriceNotMet               = &Error{Condition: CondPriceNotMet}
	ErrNoProceeds                = &Error{Condition: CondNoProceeds}
	ErrTransferFailed            = &Error{Condition: CondTransferFailed}
	ErrReentrant                 = &Error{Condition: CondReentrant}
)

func AlreadyListed(key ItemKey) error {
	return &Error{Condition: CondAlreadyListed, Collection: key.Collection, ItemID: key.ItemID}
}

func NotListed(key ItemKey) error {
	return &Error{Condition: CondNotListed, Collection: key.Collection, ItemID: key.ItemID}
}

func PriceNotMet(key ItemKey, price Amount) error {
	return &Error{Condition: CondPriceNotMet, Collection: key.Collection, ItemID: key.ItemID, Price: price}
}

// TransferFailed wraps the capability failure that aborted the operation.
func TransferFailed(cause error) error {
	return &Error{Condition: CondTransferFailed, Err: cause}
}

// ConditionOf extracts the ledger condition from err, if any.
func ConditionOf(err error) (Condition, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Condition, true
	}
	return "", false
}
