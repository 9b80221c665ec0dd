package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"nftmarket/pkg/platform/outbox"
	"nftmarket/pkg/platform/tx"
)

// Store keeps outbox entries in insertion order. Appends inside a unit of work
// are removed again if the unit of work rolls back.
type Store struct {
	mu      sync.RWMutex
	entries []outbox.Entry
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Append(ctx context.Context, entry outbox.Entry) error {
	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	tx.RecordUndo(ctx, func() { s.remove(entry.ID) })
	return nil
}

func (s *Store) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

func (s *Store) FetchUnpublished(_ context.Context, limit int) ([]outbox.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []outbox.Entry
	for _, e := range s.entries {
		if e.PublishedAt != nil {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkPublished(_ context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if _, ok := want[s.entries[i].ID]; ok && s.entries[i].PublishedAt == nil {
			published := at
			s.entries[i].PublishedAt = &published
		}
	}
	return nil
}

// All returns a copy of every entry, published or not.
func (s *Store) All() []outbox.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]outbox.Entry(nil), s.entries...)
}
