// Package messaging provides the in-process message plane: a synchronous
// channel broker, the outbox relay that drains persisted messages into it,
// and the keyed dispatcher that serializes saga replies per instance.
//
// Delivery guarantees come from the transactional outbox, not the broker: a
// message leaves the outbox only after its handler returned nil, so handler
// failures and crashes surface as redelivery once the row's lease expires.
package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jsamuelsen11/wemeet/internal/ports"
)

// Compile-time interface checks.
var (
	_ ports.Publisher  = (*Broker)(nil)
	_ ports.Subscriber = (*Broker)(nil)
)

// Broker routes envelopes to the handler subscribed on their channel,
// synchronously in the caller's goroutine. Handlers needing concurrency or
// ordering guarantees layer them on top (see Dispatcher).
type Broker struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string]ports.MessageHandler
}

// NewBroker creates an empty broker.
func NewBroker(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Broker{
		logger:   logger,
		handlers: make(map[string]ports.MessageHandler),
	}
}

// Subscribe registers the handler for a channel. The last registration for a
// channel wins; registration after publishing has started is safe but racy
// for messages already in flight.
func (b *Broker) Subscribe(channel string, handler ports.MessageHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[channel] = handler
}

// Publish delivers the envelope to its channel's handler. A missing
// subscriber is an error so the caller (the relay) leaves the message
// pending instead of losing it.
func (b *Broker) Publish(ctx context.Context, env ports.Envelope) error {
	b.mu.RLock()
	handler, ok := b.handlers[env.Channel]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no subscriber for channel %q", env.Channel)
	}

	if err := handler(ctx, env); err != nil {
		b.logger.WarnContext(ctx, "message handling failed",
			slog.String("operation", "Broker.Publish"),
			slog.String("channel", env.Channel),
			slog.String("envelope_id", env.ID.String()),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}
