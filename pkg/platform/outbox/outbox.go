// Package outbox implements the transactional outbox: events are written in the
// same unit of work as the state change that caused them and published later
// by a relay, so rolled-back operations never emit.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry is a pending or published outbox row.
type Entry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// NewEntry marshals payload into a fresh entry.
func NewEntry(aggregateType, aggregateID, eventType string, payload any, now time.Time) (Entry, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal outbox payload: %w", err)
	}
	return Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       body,
		CreatedAt:     now,
	}, nil
}

// Store persists outbox entries. Append participates in the caller's unit of
// work; FetchUnpublished and MarkPublished are used by the relay.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	FetchUnpublished(ctx context.Context, limit int) ([]Entry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Publisher delivers entries to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, entries []Entry) error
}
