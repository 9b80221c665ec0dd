package models

import "time"

// EventType names a marketplace notification.
type EventType string

const (
	EventItemListed        EventType = "marketplace.item_listed"
	EventItemCanceled      EventType = "marketplace.item_canceled"
	EventItemBought        EventType = "marketplace.item_bought"
	EventProceedsWithdrawn EventType = "marketplace.proceeds_withdrawn"
)

// Event is the notification emitted after a successful mutating operation.
// Fields irrelevant to a given type are left empty.
type Event struct {
	Type       EventType  `json:"type"`
	Seller     Address    `json:"seller,omitempty"`
	Buyer      Address    `json:"buyer,omitempty"`
	Collection Collection `json:"collection,omitempty"`
	ItemID     ItemID     `json:"item_id,omitempty"`
	Price      Amount     `json:"price,omitempty"`
	Amount     Amount     `json:"amount,omitempty"`
	RequestID  string     `json:"request_id,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// PartitionKey groups events for the same item (or account) so consumers see
// them in order.
func (e Event) PartitionKey() string {
	if e.Collection != "" {
		return string(e.Collection) + "/" + string(e.ItemID)
	}
	if e.Seller != "" {
		return string(e.Seller)
	}
	return string(e.Buyer)
}

// ItemListed is emitted by List and by UpdateListing (re-listing at a new price).
func ItemListed(l *Listing, now time.Time) Event {
	return Event{
		Type:       EventItemListed,
		Seller:     l.Seller,
		Collection: l.Collection,
		ItemID:     l.ItemID,
		Price:      l.Price,
		OccurredAt: now,
	}
}

func ItemCanceled(seller Address, key ItemKey, now time.Time) Event {
	return Event{
		Type:       EventItemCanceled,
		Seller:     seller,
		Collection: key.Collection,
		ItemID:     key.ItemID,
		OccurredAt: now,
	}
}

// ItemBought carries the listed price, not the paid value.
func ItemBought(buyer Address, l *Listing, now time.Time) Event {
	return Event{
		Type:       EventItemBought,
		Buyer:      buyer,
		Seller:     l.Seller,
		Collection: l.Collection,
		ItemID:     l.ItemID,
		Price:      l.Price,
		OccurredAt: now,
	}
}

func ProceedsWithdrawn(seller Address, amount Amount, now time.Time) Event {
	return Event{
		Type:       EventProceedsWithdrawn,
		Seller:     seller,
		Amount:     amount,
		OccurredAt: now,
	}
}
