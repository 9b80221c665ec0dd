package listing

import (
	"context"
	"sync"

	"nftmarket/internal/marketplace/models"
	"nftmarket/pkg/platform/sentinel"
	"nftmarket/pkg/platform/tx"
)

// InMemory is a listing store backed by a map. Writes made inside a unit of
// work register undo steps on the journal carried by ctx.
type InMemory struct {
	mu       sync.RWMutex
	listings map[models.ItemKey]models.Listing
}

func NewInMemory() *InMemory {
	return &InMemory{listings: make(map[models.ItemKey]models.Listing)}
}

func (s *InMemory) Find(_ context.Context, key models.ItemKey) (*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &l, nil
}

func (s *InMemory) Create(ctx context.Context, listing *models.Listing) error {
	key := listing.Key()

	s.mu.Lock()
	if _, ok := s.listings[key]; ok {
		s.mu.Unlock()
		return sentinel.ErrConflict
	}
	s.listings[key] = *listing
	s.mu.Unlock()

	tx.RecordUndo(ctx, func() { s.restore(key, nil) })
	return nil
}

func (s *InMemory) UpdatePrice(ctx context.Context, key models.ItemKey, price models.Amount) error {
	s.mu.Lock()
	current, ok := s.listings[key]
	if !ok {
		s.mu.Unlock()
		return sentinel.ErrNotFound
	}
	prev := current
	current.Price = price
	s.listings[key] = current
	s.mu.Unlock()

	tx.RecordUndo(ctx, func() { s.restore(key, &prev) })
	return nil
}

func (s *InMemory) Delete(ctx context.Context, key models.ItemKey) error {
	s.mu.Lock()
	prev, ok := s.listings[key]
	if !ok {
		s.mu.Unlock()
		return sentinel.ErrNotFound
	}
	delete(s.listings, key)
	s.mu.Unlock()

	tx.RecordUndo(ctx, func() { s.restore(key, &prev) })
	return nil
}

// restore puts back a prior state; nil means the key did not exist.
func (s *InMemory) restore(key models.ItemKey, prev *models.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev == nil {
		delete(s.listings, key)
		return
	}
	s.listings[key] = *prev
}

// Count returns the number of active listings.
func (s *InMemory) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listings)
}
