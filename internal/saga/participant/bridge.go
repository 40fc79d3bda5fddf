package participant

import (
	"context"
	"log/slog"

	"github.com/jsamuelsen11/wemeet/internal/ports"
	"github.com/jsamuelsen11/wemeet/internal/saga"
	"github.com/jsamuelsen11/wemeet/internal/saga/wire"
)

// BridgeFunc forwards one decoded command to a remote service and returns
// the reply to enqueue.
type BridgeFunc func(ctx context.Context, cmd *saga.Command) (*saga.Reply, error)

// Bridge dispatches the commands of a remotely-owned channel to client
// calls. Unlike Endpoint there is no local transaction around the remote
// call; idempotency comes from forwarding the correlation id as the remote's
// request id, so redelivery re-calls harmlessly. Only the reply enqueue runs
// inside a unit of work.
type Bridge struct {
	uow      ports.UnitOfWork
	logger   *slog.Logger
	handlers map[string]BridgeFunc
}

// NewBridge creates an empty bridge.
func NewBridge(uow ports.UnitOfWork, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bridge{
		uow:      uow,
		logger:   logger,
		handlers: make(map[string]BridgeFunc),
	}
}

// On registers a handler for a command type. Not safe to call after message
// delivery has started.
func (b *Bridge) On(commandType string, h BridgeFunc) *Bridge {
	b.handlers[commandType] = h
	return b
}

// Handle implements ports.MessageHandler. Errors classified as business
// failures become failure replies; transport failures leave the command
// eligible for redelivery.
func (b *Bridge) Handle(ctx context.Context, env ports.Envelope) error {
	cmd, err := saga.DecodeCommand(env)
	if err != nil {
		b.logger.ErrorContext(ctx, "dropping undecodable command",
			slog.String("operation", "Bridge.Handle"),
			slog.String("envelope_id", env.ID.String()),
			slog.Any("error", err),
		)
		return nil
	}
	h, ok := b.handlers[cmd.Type]
	if !ok {
		b.logger.WarnContext(ctx, "dropping command with no handler",
			slog.String("operation", "Bridge.Handle"),
			slog.String("command_type", cmd.Type),
			slog.String("channel", env.Channel),
		)
		return nil
	}

	reply, err := h(ctx, cmd)
	if err != nil {
		if !saga.IsBusinessFailure(err) {
			return err
		}
		b.logger.InfoContext(ctx, "remote command rejected",
			slog.String("operation", "Bridge.Handle"),
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
	return b.uow.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		return r.Outbox().Enqueue(ctx, replyEnv)
	})
}
