package participant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen11/wemeet/internal/domain"
	"github.com/jsamuelsen11/wemeet/internal/ports"
	"github.com/jsamuelsen11/wemeet/internal/saga"
	"github.com/jsamuelsen11/wemeet/internal/saga/wire"
)

// NewBoardBridge builds the bridge for the board-service channel, forwarding
// create and delete commands to the remote board API.
func NewBoardBridge(client ports.BoardClient, uow ports.UnitOfWork, logger *slog.Logger) *Bridge {
	b := boardBridge{client: client}
	return NewBridge(uow, logger).
		On(wire.CreateBoardCommand, b.create).
		On(wire.DeleteBoardCommand, b.delete)
}

type boardBridge struct {
	client ports.BoardClient
}

func (b boardBridge) create(ctx context.Context, cmd *saga.Command) (*saga.Reply, error) {
	var p wire.CreateBoard
	if err := json.Unmarshal(cmd.Payload, &p); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", cmd.Type, err)
	}
	detail := wire.BoardDetail{
		Writer:   p.Writer,
		Subject:  p.Subject,
		Content:  p.Content,
		Category: p.Category,
		Images:   p.Images,
	}.ToDomain()

	boardID, err := b.client.CreateBoard(ctx, cmd.CorrelationID.String(), p.ProjectID, detail)
	if err != nil {
		return nil, err
	}
	return saga.NewSuccessReply(cmd, wire.CreateBoardReplyType, wire.CreateBoardReply{BoardID: boardID})
}

func (b boardBridge) delete(ctx context.Context, cmd *saga.Command) (*saga.Reply, error) {
	var p wire.DeleteBoard
	if err := json.Unmarshal(cmd.Payload, &p); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", cmd.Type, err)
	}
	err := b.client.DeleteBoard(ctx, p.BoardID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return saga.NewSuccessReply(cmd, wire.SuccessReplyType, nil)
}
