package models

import (
	"strings"

	dErrors "nftmarket/pkg/domain-errors"
)

// Address identifies an account: a seller, a buyer, or the marketplace
// operator itself. Addresses are compared case-insensitively.
type Address string

// Collection identifies the asset collection (contract) an item belongs to.
type Collection string

// ItemID identifies an item within its collection.
type ItemID string

// Amount is a value in the smallest unit of the native currency.
type Amount = uint64

// NormalizeAddress trims and lowercases an address.
func NormalizeAddress(s string) Address {
	return Address(strings.ToLower(strings.TrimSpace(s)))
}

// NormalizeCollection trims and lowercases a collection identifier.
func NormalizeCollection(s string) Collection {
	return Collection(strings.ToLower(strings.TrimSpace(s)))
}

// ParseItemID trims an item identifier.
func ParseItemID(s string) ItemID {
	return ItemID(strings.TrimSpace(s))
}

func (a Address) IsZero() bool { return a == "" }

func (a Address) String() string { return string(a) }

func (c Collection) String() string { return string(c) }

func (i ItemID) String() string { return string(i) }

// ItemKey addresses a single item.
type ItemKey struct {
	Collection Collection
	ItemID     ItemID
}

// NewItemKey validates and builds an ItemKey.
func NewItemKey(collection Collection, itemID ItemID) (ItemKey, error) {
	if collection == "" {
		return ItemKey{}, dErrors.New(dErrors.CodeValidation, "collection is required")
	}
	if itemID == "" {
		return ItemKey{}, dErrors.New(dErrors.CodeValidation, "item_id is required")
	}
	return ItemKey{Collection: collection, ItemID: itemID}, nil
}

func (k ItemKey) String() string {
	return string(k.Collection) + "/" + string(k.ItemID)
}

// Listing is an active offer to sell an item at a fixed price.
//
// Invariants:
//   - Price > 0 for every stored listing; Price == 0 means "not listed"
//   - Seller is the owner at the time the listing was created
//   - Removing a listing deletes the whole entry, never just the price
type Listing struct {
	Collection Collection `json:"collection"`
	ItemID     ItemID     `json:"item_id"`
	Price      Amount     `json:"price"`
	Seller     Address    `json:"seller"`
}

// NewListing builds a listing, enforcing the positive-price invariant.
func NewListing(key ItemKey, price Amount, seller Address) (*Listing, error) {
	if price == 0 {
		return nil, ErrPriceMustBeAboveZero
	}
	if seller.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "listing seller cannot be empty")
	}
	return &Listing{
		Collection: key.Collection,
		ItemID:     key.ItemID,
		Price:      price,
		Seller:     seller,
	}, nil
}

// Absent returns the sentinel listing returned for items that are not listed.
func Absent(key ItemKey) Listing {
	return Listing{Collection: key.Collection, ItemID: key.ItemID}
}

// Key returns the item key of the listing.
func (l Listing) Key() ItemKey {
	return ItemKey{Collection: l.Collection, ItemID: l.ItemID}
}

// IsActive reports whether the listing represents an item for sale.
func (l Listing) IsActive() bool {
	return l.Price > 0
}
