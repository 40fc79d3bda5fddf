// Package participant implements the command-side handlers that answer saga
// commands. The project and team participants own local aggregates and run
// fully transactionally; the board and weclass participants bridge commands
// to remote HTTP services through outbound client ports.
//
// Delivery is at-least-once, so every handler is idempotent. Local
// participants mark the command's correlation id processed in the same
// transaction that enqueues the reply: a redelivered command finds the
// marker and does nothing, because its reply already sits in the outbox and
// the relay guarantees its delivery. Remote bridges instead forward the
// correlation id as an idempotency key, so re-calling the remote service is
// harmless.
package participant

import (
	"context"
	"log/slog"

	"github.com/jsamuelsen11/wemeet/internal/ports"
	"github.com/jsamuelsen11/wemeet/internal/saga"
	"github.com/jsamuelsen11/wemeet/internal/saga/wire"
)

// HandlerFunc processes one decoded command inside the endpoint's
// transaction and returns the reply to enqueue.
type HandlerFunc func(ctx context.Context, r ports.Repos, cmd *saga.Command) (*saga.Reply, error)

// Endpoint dispatches the commands of one channel to typed handlers,
// wrapping each delivery in a unit of work that covers deduplication, the
// handler's aggregate mutations and the reply enqueue.
type Endpoint struct {
	uow      ports.UnitOfWork
	logger   *slog.Logger
	handlers map[string]HandlerFunc
}

// NewEndpoint creates an empty endpoint.
func NewEndpoint(uow ports.UnitOfWork, logger *slog.Logger) *Endpoint {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Endpoint{
		uow:      uow,
		logger:   logger,
		handlers: make(map[string]HandlerFunc),
	}
}

// On registers a handler for a command type. Not safe to call after message
// delivery has started.
func (e *Endpoint) On(commandType string, h HandlerFunc) *Endpoint {
	e.handlers[commandType] = h
	return e
}

// Handle implements ports.MessageHandler. Undecodable or unroutable
// envelopes are dropped with a log line; redelivering them cannot help.
func (e *Endpoint) Handle(ctx context.Context, env ports.Envelope) error {
	cmd, err := saga.DecodeCommand(env)
	if err != nil {
		e.logger.ErrorContext(ctx, "dropping undecodable command",
			slog.String("operation", "Endpoint.Handle"),
			slog.String("envelope_id", env.ID.String()),
			slog.Any("error", err),
		)
		return nil
	}
	h, ok := e.handlers[cmd.Type]
	if !ok {
		e.logger.WarnContext(ctx, "dropping command with no handler",
			slog.String("operation", "Endpoint.Handle"),
			slog.String("command_type", cmd.Type),
			slog.String("channel", env.Channel),
		)
		return nil
	}

	return e.uow.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		fresh, err := r.Processed().MarkProcessed(ctx, cmd.CorrelationID.String())
		if err != nil {
			return err
		}
		if !fresh {
			// Already handled; the reply is in the outbox.
			e.logger.DebugContext(ctx, "duplicate command skipped",
				slog.String("command_type", cmd.Type),
				slog.String("correlation_id", cmd.CorrelationID.String()),
			)
			return nil
		}

		reply, err := h(ctx, r, cmd)
		if err != nil {
			if !saga.IsBusinessFailure(err) {
				return err
			}
			e.logger.InfoContext(ctx, "command rejected",
				slog.String("operation", "Endpoint.Handle"),
				slog.String("command_type", cmd.Type),
				slog.String("saga_id", cmd.SagaID.String()),
				slog.Any("error", err),
			)
			reply = saga.NewFailureReply(cmd, wire.FailureReplyType, err.Error())
		}

		replyEnv, err := reply.Envelope(cmd.ReplyChannel)
		if err != nil {
			return err
		}
		return r.Outbox().Enqueue(ctx, replyEnv)
	})
}
