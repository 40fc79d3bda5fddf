package participant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen11/wemeet/internal/ports"
	"github.com/jsamuelsen11/wemeet/internal/saga"
	"github.com/jsamuelsen11/wemeet/internal/saga/wire"
)

// NewWeClassBridge builds the bridge for the weclass-service channel,
// forwarding class creation to the remote class API.
func NewWeClassBridge(client ports.WeClassClient, uow ports.UnitOfWork, logger *slog.Logger) *Bridge {
	b := weClassBridge{client: client}
	return NewBridge(uow, logger).
		On(wire.CreateWeClassCommand, b.create)
}

type weClassBridge struct {
	client ports.WeClassClient
}

func (b weClassBridge) create(ctx context.Context, cmd *saga.Command) (*saga.Reply, error) {
	var p wire.CreateWeClass
	if err := json.Unmarshal(cmd.Payload, &p); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", cmd.Type, err)
	}
	weClassID, err := b.client.CreateWeClass(ctx, cmd.CorrelationID.String(), p.ProjectID, p.TeamID)
	if err != nil {
		return nil, err
	}
	return saga.NewSuccessReply(cmd, wire.CreateWeClassReplyType, wire.CreateWeClassReply{WeClassID: weClassID})
}
