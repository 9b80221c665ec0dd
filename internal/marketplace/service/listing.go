package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"nftmarket/internal/marketplace/models"
	dErrors "nftmarket/pkg/domain-errors"
	"nftmarket/pkg/platform/sentinel"
	"nftmarket/pkg/requestcontext"
)

// ListRequest offers an item for sale at a fixed price.
type ListRequest struct {
	Caller     models.Address
	Collection models.Collection
	ItemID     models.ItemID
	Price      models.Amount
}

// UpdateListingRequest changes the price of an active listing.
type UpdateListingRequest struct {
	Caller     models.Address
	Collection models.Collection
	ItemID     models.ItemID
	NewPrice   models.Amount
}

// BuyRequest purchases a listed item. Value is the amount the buyer pays,
// which must be at least the listed price.
type BuyRequest struct {
	Caller     models.Address
	Collection models.Collection
	ItemID     models.ItemID
	Value      models.Amount
}

// Receipt describes a completed purchase.
type Receipt struct {
	Collection models.Collection `json:"collection"`
	ItemID     models.ItemID     `json:"item_id"`
	Seller     models.Address    `json:"seller"`
	Buyer      models.Address    `json:"buyer"`
	Price      models.Amount     `json:"price"`
	Paid       models.Amount     `json:"paid"`
}

// List creates a listing for an item the caller owns and has approved the
// marketplace to transfer. The item stays with its owner until sold.
//
// Checks run in a fixed order: already listed, ownership, price, approval.
func (s *Service) List(ctx context.Context, req ListRequest) (*models.Listing, error) {
	if err := requireCaller(req.Caller); err != nil {
		return nil, err
	}
	key, err := models.NewItemKey(req.Collection, req.ItemID)
	if err != nil {
		return nil, err
	}

	var listing *models.Listing
	attrs := append(itemAttrs(key), attribute.Int64("marketplace.price", int64(req.Price)))
	err = s.mutate(ctx, opList, attrs, func(txCtx context.Context) error {
		listed, err := s.isListed(txCtx, key)
		if err != nil {
			return err
		}
		if listed {
			return models.AlreadyListed(key)
		}
		if err := s.requireOwner(txCtx, key, req.Caller); err != nil {
			return err
		}
		l, err := models.NewListing(key, req.Price, req.Caller)
		if err != nil {
			return err
		}
		approved, err := s.directory.IsApprovedForTransfer(txCtx, key.Collection, key.ItemID, s.operator)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "asset directory approval lookup failed")
		}
		if !approved {
			return models.ErrNotApprovedForMarketplace
		}

		if err := s.listings.Create(txCtx, l); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return models.AlreadyListed(key)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save listing")
		}
		if err := s.emit(txCtx, models.ItemListed(l, requestcontext.Now(txCtx))); err != nil {
			return err
		}
		listing = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, "item_listed",
		"seller", listing.Seller,
		"collection", listing.Collection,
		"item_id", listing.ItemID,
		"price", listing.Price,
	)
	return listing, nil
}

// CancelListing removes the caller's listing for an item.
//
// Checks run in a fixed order: ownership, listed.
func (s *Service) CancelListing(ctx context.Context, caller models.Address, collection models.Collection, itemID models.ItemID) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	key, err := models.NewItemKey(collection, itemID)
	if err != nil {
		return err
	}

	err = s.mutate(ctx, opCancelListing, itemAttrs(key), func(txCtx context.Context) error {
		if err := s.requireOwner(txCtx, key, caller); err != nil {
			return err
		}
		if _, err := s.activeListing(txCtx, key); err != nil {
			return err
		}
		if err := s.listings.Delete(txCtx, key); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete listing")
		}
		// The notification names the caller, who is the current owner.
		return s.emit(txCtx, models.ItemCanceled(caller, key, requestcontext.Now(txCtx)))
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, "item_canceled",
		"seller", caller,
		"collection", key.Collection,
		"item_id", key.ItemID,
	)
	return nil
}

// UpdateListing changes the price of an active listing owned by the caller.
// The stored seller is left unchanged; the ItemListed notification names the
// caller, who has just been verified as the item's owner.
//
// Checks run in a fixed order: listed, ownership, price.
func (s *Service) UpdateListing(ctx context.Context, req UpdateListingRequest) (*models.Listing, error) {
	if err := requireCaller(req.Caller); err != nil {
		return nil, err
	}
	key, err := models.NewItemKey(req.Collection, req.ItemID)
	if err != nil {
		return nil, err
	}

	var updated *models.Listing
	attrs := append(itemAttrs(key), attribute.Int64("marketplace.price", int64(req.NewPrice)))
	err = s.mutate(ctx, opUpdateListing, attrs, func(txCtx context.Context) error {
		current, err := s.activeListing(txCtx, key)
		if err != nil {
			return err
		}
		if err := s.requireOwner(txCtx, key, req.Caller); err != nil {
			return err
		}
		if req.NewPrice == 0 {
			return models.ErrPriceMustBeAboveZero
		}
		if err := s.listings.UpdatePrice(txCtx, key, req.NewPrice); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return models.NotListed(key)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update listing")
		}
		next := *current
		next.Price = req.NewPrice
		updated = &next

		announced := next
		announced.Seller = req.Caller
		return s.emit(txCtx, models.ItemListed(&announced, requestcontext.Now(txCtx)))
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, "listing_updated",
		"seller", req.Caller,
		"collection", key.Collection,
		"item_id", key.ItemID,
		"price", req.NewPrice,
	)
	return updated, nil
}

// BuyItem purchases a listed item. The full paid value is credited to the
// seller's proceeds, the listing is removed, and the item is transferred from
// the seller to the buyer. Any failure leaves the ledger unchanged.
func (s *Service) BuyItem(ctx context.Context, req BuyRequest) (*Receipt, error) {
	if err := requireCaller(req.Caller); err != nil {
		return nil, err
	}
	key, err := models.NewItemKey(req.Collection, req.ItemID)
	if err != nil {
		return nil, err
	}

	var receipt *Receipt
	attrs := append(itemAttrs(key), attribute.Int64("marketplace.value", int64(req.Value)))
	err = s.mutate(ctx, opBuyItem, attrs, func(txCtx context.Context) error {
		l, err := s.activeListing(txCtx, key)
		if err != nil {
			return err
		}
		if req.Value < l.Price {
			return models.PriceNotMet(key, l.Price)
		}

		if err := s.credit(txCtx, l.Seller, req.Value); err != nil {
			return err
		}
		if err := s.listings.Delete(txCtx, key); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete listing")
		}
		if err := s.emit(txCtx, models.ItemBought(req.Caller, l, requestcontext.Now(txCtx))); err != nil {
			return err
		}

		// State is settled before the directory is called.
		err = s.guard.external(func() error {
			return s.directory.Transfer(txCtx, key.Collection, key.ItemID, l.Seller, req.Caller)
		})
		if err != nil {
			return models.TransferFailed(err)
		}

		receipt = &Receipt{
			Collection: key.Collection,
			ItemID:     key.ItemID,
			Seller:     l.Seller,
			Buyer:      req.Caller,
			Price:      l.Price,
			Paid:       req.Value,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AddSalesVolume(receipt.Paid)
	}
	s.logAudit(ctx, "item_bought",
		"buyer", receipt.Buyer,
		"seller", receipt.Seller,
		"collection", receipt.Collection,
		"item_id", receipt.ItemID,
		"price", receipt.Price,
		"paid", receipt.Paid,
	)
	return receipt, nil
}
