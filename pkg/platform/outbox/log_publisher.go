package outbox

import (
	"context"
	"log/slog"
)

// LogPublisher writes entries to a logger. It stands in for a broker in
// development deployments.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		p.logger.InfoContext(ctx, "outbox event",
			"event_id", e.ID.String(),
			"event_type", e.EventType,
			"aggregate_type", e.AggregateType,
			"aggregate_id", e.AggregateID,
			"payload", string(e.Payload),
		)
	}
	return nil
}
