package proceeds

import (
	"context"
	"sync"

	"nftmarket/internal/marketplace/models"
	"nftmarket/pkg/platform/tx"
)

// InMemory holds seller balances in a map. Zero balances are not stored.
type InMemory struct {
	mu       sync.RWMutex
	balances map[models.Address]models.Amount
}

func NewInMemory() *InMemory {
	return &InMemory{balances: make(map[models.Address]models.Amount)}
}

func (s *InMemory) Balance(_ context.Context, account models.Address) (models.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[account], nil
}

func (s *InMemory) SetBalance(ctx context.Context, account models.Address, amount models.Amount) error {
	s.mu.Lock()
	prev := s.balances[account]
	s.set(account, amount)
	s.mu.Unlock()

	tx.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.set(account, prev)
	})
	return nil
}

func (s *InMemory) set(account models.Address, amount models.Amount) {
	if amount == 0 {
		delete(s.balances, account)
		return
	}
	s.balances[account] = amount
}

// Total sums every balance; used to check the escrow invariant.
func (s *InMemory) Total() models.Amount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total models.Amount
	for _, b := range s.balances {
		total += b
	}
	return total
}
