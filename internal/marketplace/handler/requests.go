package handler

import (
	"nftmarket/internal/marketplace/models"
	dErrors "nftmarket/pkg/domain-errors"
)

const maxIdentifierLength = 256

// ListRequest is the body of POST /v1/listings.
type ListRequest struct {
	Collection string         `json:"collection"`
	ItemID     string         `json:"item_id"`
	Price      *models.Amount `json:"price"`

	key models.ItemKey
}

// Validate implements httputil.Validatable. A zero price passes here so the
// ledger can report it with its own condition.
func (r *ListRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	key, err := parseItemKey(r.Collection, r.ItemID)
	if err != nil {
		return err
	}
	if r.Price == nil {
		return dErrors.New(dErrors.CodeValidation, "price is required")
	}
	r.key = key
	return nil
}

// PriceRequest is the body of PUT /v1/listings/{collection}/{itemID}.
type PriceRequest struct {
	Price *models.Amount `json:"price"`
}

func (r *PriceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Price == nil {
		return dErrors.New(dErrors.CodeValidation, "price is required")
	}
	return nil
}

// PurchaseRequest is the body of POST /v1/listings/{collection}/{itemID}/purchase.
type PurchaseRequest struct {
	Value *models.Amount `json:"value"`
}

func (r *PurchaseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Value == nil {
		return dErrors.New(dErrors.CodeValidation, "value is required")
	}
	return nil
}

// ListingResponse describes an item's listing state. Unlisted items report
// listed=false with a zero price and no seller.
type ListingResponse struct {
	Collection models.Collection `json:"collection"`
	ItemID     models.ItemID     `json:"item_id"`
	Price      models.Amount     `json:"price"`
	Seller     models.Address    `json:"seller,omitempty"`
	Listed     bool              `json:"listed"`
}

func toListingResponse(l models.Listing) ListingResponse {
	return ListingResponse{
		Collection: l.Collection,
		ItemID:     l.ItemID,
		Price:      l.Price,
		Seller:     l.Seller,
		Listed:     l.IsActive(),
	}
}

// ProceedsResponse carries an account balance.
type ProceedsResponse struct {
	Account models.Address `json:"account"`
	Amount  models.Amount  `json:"amount"`
}

// WithdrawResponse reports the amount paid out.
type WithdrawResponse struct {
	Amount models.Amount `json:"amount"`
}

func parseItemKey(collection, itemID string) (models.ItemKey, error) {
	if len(collection) > maxIdentifierLength || len(itemID) > maxIdentifierLength {
		return models.ItemKey{}, dErrors.New(dErrors.CodeValidation, "identifiers must be at most 256 characters")
	}
	return models.NewItemKey(models.NormalizeCollection(collection), models.ParseItemID(itemID))
}
