package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen11/wemeet/internal/domain"
)

// MessageKind distinguishes the payload carried by an envelope.
type MessageKind string

const (
	KindCommand MessageKind = "command"
	KindReply   MessageKind = "reply"
	KindEvent   MessageKind = "event"
)

// Envelope is the transport unit carried by the command channel and the
// event stream. Payload is the JSON encoding of a saga command, saga reply
// or event envelope depending on Kind.
type Envelope struct {
	ID      uuid.UUID       `json:"id"`
	Channel string          `json:"channel"`
	Kind    MessageKind     `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// MessageHandler processes one delivered envelope. A non-nil error leaves the
// message eligible for redelivery; handlers must therefore be idempotent.
type MessageHandler func(ctx context.Context, env Envelope) error

// Publisher delivers envelopes to a named channel. Delivery is at-least-once.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// Subscriber registers a handler for a named channel. All subscriptions must
// be registered before the transport starts delivering.
type Subscriber interface {
	Subscribe(channel string, handler MessageHandler)
}

// Outbox message statuses.
const (
	OutboxPending   = "pending"
	OutboxDelivered = "delivered"
)

// OutboxMessage is one row of the transactional outbox. Rows are appended in
// the same transaction as the state change that produced them and drained
// asynchronously by the relay, in insertion order.
type OutboxMessage struct {
	Seq         int64
	Envelope    Envelope
	Status      string
	Attempts    int
	AvailableAt time.Time
	CreatedAt   time.Time
}

// MessageOutbox is the transaction-scoped append side of the outbox.
type MessageOutbox interface {
	// Enqueue appends an envelope for asynchronous delivery.
	Enqueue(ctx context.Context, env Envelope) error
}

// OutboxRelayStore is the relay-side view of the outbox.
type OutboxRelayStore interface {
	// ClaimPending leases up to limit deliverable rows, oldest first,
	// bumping their attempt count and pushing AvailableAt forward by the
	// lease duration so a crashed relay run retries them.
	ClaimPending(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]OutboxMessage, error)

	// MarkDelivered finalizes successfully published rows.
	MarkDelivered(ctx context.Context, seqs []int64) error
}

// EventEnvelope is the payload stored for one domain event row.
type EventEnvelope struct {
	AggregateType string          `json:"aggregateType"`
	AggregateID   int64           `json:"aggregateId"`
	EventType     string          `json:"eventType"`
	Data          json.RawMessage `json:"data"`
}

// EventChannel returns the event stream channel for an aggregate type.
func EventChannel(aggregateType string) string {
	return "events." + aggregateType
}

// NewEventEnvelope wraps a domain event into a transport envelope for the
// aggregate's event channel.
func NewEventEnvelope(evt domain.Event) (Envelope, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshaling event %s: %w", evt.EventType(), err)
	}
	payload, err := json.Marshal(EventEnvelope{
		AggregateType: evt.AggregateType(),
		AggregateID:   evt.AggregateID(),
		EventType:     evt.EventType(),
		Data:          data,
	})
	if err != nil {
		return Envelope{}, fmt.Errorf("marshaling event envelope: %w", err)
	}
	return Envelope{
		ID:      uuid.New(),
		Channel: EventChannel(evt.AggregateType()),
		Kind:    KindEvent,
		Payload: payload,
	}, nil
}

// EnqueueEvents appends one envelope per event to the outbox, preserving the
// order the transitions produced them.
func EnqueueEvents(ctx context.Context, outbox MessageOutbox, events []domain.Event) error {
	for _, evt := range events {
		env, err := NewEventEnvelope(evt)
		if err != nil {
			return err
		}
		if err := outbox.Enqueue(ctx, env); err != nil {
			return fmt.Errorf("enqueueing event %s: %w", evt.EventType(), err)
		}
	}
	return nil
}
