package participant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen11/wemeet/internal/domain"
	"github.com/jsamuelsen11/wemeet/internal/domain/project"
	"github.com/jsamuelsen11/wemeet/internal/ports"
	"github.com/jsamuelsen11/wemeet/internal/saga"
	"github.com/jsamuelsen11/wemeet/internal/saga/wire"
)

// NewProjectEndpoint builds the project-service participant: it records the
// team and board created by other participants onto the pending project and
// confirms cancellations.
func NewProjectEndpoint(uow ports.UnitOfWork, logger *slog.Logger) *Endpoint {
	return NewEndpoint(uow, logger).
		On(wire.RegisterTeamCommand, handleRegisterTeam).
		On(wire.RegisterBoardCommand, handleRegisterBoard).
		On(wire.ConfirmCancelProjectCommand, handleConfirmCancel)
}

func handleRegisterTeam(ctx context.Context, r ports.Repos, cmd *saga.Command) (*saga.Reply, error) {
	var p wire.RegisterTeam
	if err := json.Unmarshal(cmd.Payload, &p); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", cmd.Type, err)
	}
	err := saga.UpdateProject(ctx, r, p.ProjectID, func(proj *project.Project) ([]domain.Event, error) {
		return nil, proj.RegisterTeam(p.TeamID, p.Username)
	})
	if err != nil {
		return nil, err
	}
	return saga.NewSuccessReply(cmd, wire.SuccessReplyType, nil)
}

func handleRegisterBoard(ctx context.Context, r ports.Repos, cmd *saga.Command) (*saga.Reply, error) {
	var p wire.RegisterBoard
	if err := json.Unmarshal(cmd.Payload, &p); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", cmd.Type, err)
	}
	err := saga.UpdateProject(ctx, r, p.ProjectID, func(proj *project.Project) ([]domain.Event, error) {
		return nil, proj.RegisterBoard(p.BoardID, p.BoardDetail.ToDomain())
	})
	if err != nil {
		return nil, err
	}
	return saga.NewSuccessReply(cmd, wire.SuccessReplyType, nil)
}

func handleConfirmCancel(ctx context.Context, r ports.Repos, cmd *saga.Command) (*saga.Reply, error) {
	var p wire.ConfirmCancelProject
	if err := json.Unmarshal(cmd.Payload, &p); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", cmd.Type, err)
	}
	err := saga.UpdateProject(ctx, r, p.ProjectID, func(proj *project.Project) ([]domain.Event, error) {
		return proj.Cancelled()
	})
	if err != nil {
		return nil, err
	}
	return saga.NewSuccessReply(cmd, wire.SuccessReplyType, nil)
}
