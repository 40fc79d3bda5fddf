package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jsamuelsen11/wemeet/internal/ports"
)

// EventLog is the terminal consumer of the domain event stream. Without an
// external broker to hand events to, each delivered event is recorded as a
// structured log line so downstream collection can pick it up.
type EventLog struct {
	logger *slog.Logger
}

// NewEventLog creates an EventLog writing to the given logger.
func NewEventLog(logger *slog.Logger) *EventLog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &EventLog{logger: logger}
}

// Handle records one event envelope. A malformed payload is dropped rather
// than returned as an error: redelivery cannot repair it, and returning an
// error would pin the row in the outbox.
func (l *EventLog) Handle(ctx context.Context, env ports.Envelope) error {
	var evt ports.EventEnvelope
	if err := json.Unmarshal(env.Payload, &evt); err != nil {
		l.logger.ErrorContext(ctx, "dropping malformed event payload",
			slog.String("operation", "EventLog.Handle"),
			slog.String("channel", env.Channel),
			slog.String("envelope_id", env.ID.String()),
			slog.Any("error", err),
		)
		return nil
	}

	l.logger.InfoContext(ctx, "domain event",
		slog.String("operation", "EventLog.Handle"),
		slog.String("aggregate_type", evt.AggregateType),
		slog.Int64("aggregate_id", evt.AggregateID),
		slog.String("event_type", evt.EventType),
		slog.String("data", string(evt.Data)),
	)
	return nil
}
