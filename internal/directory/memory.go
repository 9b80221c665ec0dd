// Package directory provides asset directory adapters: an in-process registry
// with ERC-721 style ownership and approvals, and an HTTP client for an
// external registry.
package directory

import (
	"context"
	"errors"
	"sync"

	"nftmarket/internal/marketplace/models"
	"nftmarket/pkg/platform/sentinel"
)

var (
	// ErrNotTokenOwner is returned when from is not the current owner.
	ErrNotTokenOwner = errors.New("transfer from incorrect owner")
	// ErrNotAuthorized is returned when the acting account may not move the item.
	ErrNotAuthorized = errors.New("caller is not owner nor approved")
	// ErrAlreadyMinted is returned by Mint for an existing item.
	ErrAlreadyMinted = errors.New("item already minted")
)

type token struct {
	owner    models.Address
	approved models.Address
}

type operatorKey struct {
	collection models.Collection
	owner      models.Address
	operator   models.Address
}

// InMemory tracks item ownership and approvals in process. Transfers are
// performed on behalf of spender, which must be the owner, the item's
// approved address, or an operator approved for all of the owner's items.
type InMemory struct {
	mu        sync.RWMutex
	spender   models.Address
	tokens    map[models.ItemKey]*token
	operators map[operatorKey]bool
}

func NewInMemory(spender models.Address) *InMemory {
	return &InMemory{
		spender:   spender,
		tokens:    make(map[models.ItemKey]*token),
		operators: make(map[operatorKey]bool),
	}
}

// Mint creates an item owned by owner.
func (d *InMemory) Mint(collection models.Collection, itemID models.ItemID, owner models.Address) error {
	key := models.ItemKey{Collection: collection, ItemID: itemID}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.tokens[key]; ok {
		return ErrAlreadyMinted
	}
	d.tokens[key] = &token{owner: owner}
	return nil
}

// Approve lets approved transfer a single item. Only the owner or one of the
// owner's operators may approve; an empty address clears the approval.
func (d *InMemory) Approve(caller models.Address, collection models.Collection, itemID models.ItemID, approved models.Address) error {
	key := models.ItemKey{Collection: collection, ItemID: itemID}

	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tokens[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	if caller != t.owner && !d.operators[operatorKey{collection, t.owner, caller}] {
		return ErrNotAuthorized
	}
	t.approved = approved
	return nil
}

// SetApprovalForAll grants or revokes operator rights over every item owner
// holds in collection.
func (d *InMemory) SetApprovalForAll(owner models.Address, collection models.Collection, operator models.Address, approved bool) {
	k := operatorKey{collection: collection, owner: owner, operator: operator}

	d.mu.Lock()
	defer d.mu.Unlock()
	if approved {
		d.operators[k] = true
		return
	}
	delete(d.operators, k)
}

func (d *InMemory) OwnerOf(_ context.Context, collection models.Collection, itemID models.ItemID) (models.Address, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.tokens[models.ItemKey{Collection: collection, ItemID: itemID}]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return t.owner, nil
}

func (d *InMemory) IsApprovedForTransfer(_ context.Context, collection models.Collection, itemID models.ItemID, operator models.Address) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.tokens[models.ItemKey{Collection: collection, ItemID: itemID}]
	if !ok {
		return false, nil
	}
	return d.mayTransfer(collection, t, operator), nil
}

// Transfer moves the item from from to to and clears its single-item approval.
func (d *InMemory) Transfer(_ context.Context, collection models.Collection, itemID models.ItemID, from, to models.Address) error {
	if to.IsZero() {
		return errors.New("transfer to the zero address")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tokens[models.ItemKey{Collection: collection, ItemID: itemID}]
	if !ok {
		return sentinel.ErrNotFound
	}
	if t.owner != from {
		return ErrNotTokenOwner
	}
	if !d.mayTransfer(collection, t, d.spender) {
		return ErrNotAuthorized
	}
	t.owner = to
	t.approved = ""
	return nil
}

func (d *InMemory) mayTransfer(collection models.Collection, t *token, account models.Address) bool {
	if account == t.owner {
		return true
	}
	if !t.approved.IsZero() && t.approved == account {
		return true
	}
	return d.operators[operatorKey{collection, t.owner, account}]
}
