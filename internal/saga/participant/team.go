package participant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen11/wemeet/internal/domain"
	"github.com/jsamuelsen11/wemeet/internal/domain/team"
	"github.com/jsamuelsen11/wemeet/internal/ports"
	"github.com/jsamuelsen11/wemeet/internal/saga"
	"github.com/jsamuelsen11/wemeet/internal/saga/wire"
)

// NewTeamEndpoint builds the team-service participant: it creates recruiting
// teams for new projects and cancels them on project cancellation or saga
// rollback.
func NewTeamEndpoint(uow ports.UnitOfWork, logger *slog.Logger) *Endpoint {
	return NewEndpoint(uow, logger).
		On(wire.CreateTeamCommand, handleCreateTeam).
		On(wire.CancelTeamCommand, handleCancelTeam).
		On(wire.DeleteTeamCommand, handleCancelTeam)
}

func handleCreateTeam(ctx context.Context, r ports.Repos, cmd *saga.Command) (*saga.Reply, error) {
	var p wire.CreateTeam
	if err := json.Unmarshal(cmd.Payload, &p); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", cmd.Type, err)
	}

	t, err := team.New(p.ProjectID, p.Username, p.MinSize, p.MaxSize)
	if err != nil {
		return nil, err
	}
	if err := r.Teams().Create(ctx, t); err != nil {
		return nil, err
	}

	return saga.NewSuccessReply(cmd, wire.CreateTeamReplyType, wire.CreateTeamReply{TeamID: t.ID})
}

// handleCancelTeam serves both CancelTeam (cancel saga) and DeleteTeam
// (rollback of CreateProject); the team service treats both as cancellation.
func handleCancelTeam(ctx context.Context, r ports.Repos, cmd *saga.Command) (*saga.Reply, error) {
	var p wire.CancelTeam
	if err := json.Unmarshal(cmd.Payload, &p); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", cmd.Type, err)
	}

	t, err := r.Teams().FindByID(ctx, p.TeamID)
	if err != nil {
		if cmd.Compensating && errors.Is(err, domain.ErrNotFound) {
			// Nothing to undo.
			return saga.NewSuccessReply(cmd, wire.SuccessReplyType, nil)
		}
		return nil, err
	}

	events, err := t.Cancel()
	if err != nil {
		if cmd.Compensating && errors.Is(err, domain.ErrTransition) {
			// Already cancelled; the rollback is satisfied.
			return saga.NewSuccessReply(cmd, wire.SuccessReplyType, nil)
		}
		return nil, err
	}
	if err := r.Teams().Save(ctx, t); err != nil {
		return nil, err
	}
	if err := ports.EnqueueEvents(ctx, r.Outbox(), events); err != nil {
		return nil, err
	}

	return saga.NewSuccessReply(cmd, wire.SuccessReplyType, nil)
}
