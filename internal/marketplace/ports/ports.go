// Package ports declares the capabilities and stores the marketplace service
// depends on. Implementations live in adapter and store packages.
package ports

import (
	"context"

	"nftmarket/internal/marketplace/models"
	"nftmarket/pkg/platform/outbox"
)

//go:generate mockgen -destination=mocks/ports-mocks.go -package=mocks nftmarket/internal/marketplace/ports AssetDirectory,FundsTransfer

// AssetDirectory is the external authority for item ownership and transfer.
type AssetDirectory interface {
	OwnerOf(ctx context.Context, collection models.Collection, itemID models.ItemID) (models.Address, error)
	IsApprovedForTransfer(ctx context.Context, collection models.Collection, itemID models.ItemID, operator models.Address) (bool, error)
	Transfer(ctx context.Context, collection models.Collection, itemID models.ItemID, from, to models.Address) error
}

// FundsTransfer moves native currency to an account.
type FundsTransfer interface {
	Send(ctx context.Context, to models.Address, amount models.Amount) error
}

// ListingStore owns the (collection, item) -> listing mapping.
// Find returns sentinel.ErrNotFound for items that are not listed and Create
// returns sentinel.ErrConflict for items that already are.
type ListingStore interface {
	Find(ctx context.Context, key models.ItemKey) (*models.Listing, error)
	Create(ctx context.Context, listing *models.Listing) error
	UpdatePrice(ctx context.Context, key models.ItemKey, price models.Amount) error
	Delete(ctx context.Context, key models.ItemKey) error
}

// ProceedsStore owns the account -> balance mapping. Unknown accounts have a
// zero balance; setting a zero balance removes the entry.
type ProceedsStore interface {
	Balance(ctx context.Context, account models.Address) (models.Amount, error)
	SetBalance(ctx context.Context, account models.Address, amount models.Amount) error
}

// Outbox records notifications within the current unit of work.
type Outbox interface {
	Append(ctx context.Context, entry outbox.Entry) error
}

// TxRunner scopes a unit of work. Every store write made through the ctx
// passed to fn commits or rolls back together.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
