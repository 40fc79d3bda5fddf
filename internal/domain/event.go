package domain

// Event is a domain event emitted by an aggregate transition. Events are
// appended to the event outbox in the same transaction as the aggregate
// mutation that produced them, then delivered at-least-once to subscribers.
// Delivery order is preserved per aggregate instance.
type Event interface {
	// AggregateType names the emitting aggregate kind (e.g. "project").
	AggregateType() string

	// AggregateID identifies the emitting aggregate instance.
	AggregateID() int64

	// EventType names the concrete event (e.g. "ProjectCancelled").
	EventType() string
}
