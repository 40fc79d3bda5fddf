package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jsamuelsen11/wemeet/internal/app/fanout"
	"github.com/jsamuelsen11/wemeet/internal/domain"
	"github.com/jsamuelsen11/wemeet/internal/domain/team"
	"github.com/jsamuelsen11/wemeet/internal/ports"
)

// batchApproveWorkers bounds concurrent approvals in BatchApprove. Each
// approval is its own transaction, so the bound only limits goroutines, not
// lock scope.
const batchApproveWorkers = 4

// Compile-time check that TeamService implements ports.TeamService.
var _ ports.TeamService = (*TeamService)(nil)

// TeamService implements ports.TeamService. Like ProjectService, every
// mutating operation is one unit of work; membership rules live on the Team
// aggregate.
type TeamService struct {
	uow    ports.UnitOfWork
	logger *slog.Logger
}

// NewTeamService creates a TeamService.
func NewTeamService(uow ports.UnitOfWork, logger *slog.Logger) *TeamService {
	return &TeamService{uow: uow, logger: logger}
}

// Create creates a recruiting team for a project.
func (s *TeamService) Create(ctx context.Context, projectID int64, leader string, minSize, maxSize int) (*team.Team, error) {
	s.logger.InfoContext(ctx, "creating team",
		slog.Int64("project_id", projectID),
		slog.String("leader", leader),
	)

	t, err := team.New(projectID, leader, minSize, maxSize)
	if err != nil {
		return nil, err
	}
	err = s.uow.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		return r.Teams().Create(ctx, t)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create team",
			slog.String("operation", "Create"),
			slog.Int64("project_id", projectID),
			slog.Any("error", err),
		)
		return nil, err
	}
	return t, nil
}

// Find returns the team or domain.ErrNotFound.
func (s *TeamService) Find(ctx context.Context, id int64) (*team.Team, error) {
	var t *team.Team
	err := s.uow.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		var err error
		t, err = r.Teams().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// IsLeader reports whether the username leads the team.
func (s *TeamService) IsLeader(ctx context.Context, id int64, username string) (bool, error) {
	t, err := s.Find(ctx, id)
	if err != nil {
		return false, err
	}
	return t.IsLeader(username), nil
}

// Join adds a user to a recruiting team.
func (s *TeamService) Join(ctx context.Context, id int64, username string) (*team.Team, error) {
	return s.mutate(ctx, id, "Join", func(t *team.Team) ([]domain.Event, error) {
		return t.Join(username)
	})
}

// Accept approves a pending member.
func (s *TeamService) Accept(ctx context.Context, id int64, username string) error {
	_, err := s.mutate(ctx, id, "Accept", func(t *team.Team) ([]domain.Event, error) {
		return t.MemberApprove(username)
	})
	return err
}

// Reject removes a pending member.
func (s *TeamService) Reject(ctx context.Context, id int64, username string) error {
	_, err := s.mutate(ctx, id, "Reject", func(t *team.Team) ([]domain.Event, error) {
		return t.MemberReject(username)
	})
	return err
}

// Quit removes a member at their own request.
func (s *TeamService) Quit(ctx context.Context, id int64, username string) (*team.Team, error) {
	return s.mutate(ctx, id, "Quit", func(t *team.Team) ([]domain.Event, error) {
		return t.MemberQuit(username)
	})
}

// Cancel cancels a recruiting team; reports false when the team is not in a
// cancellable state.
func (s *TeamService) Cancel(ctx context.Context, id int64) (bool, error) {
	_, err := s.mutate(ctx, id, "Cancel", func(t *team.Team) ([]domain.Event, error) {
		return t.Cancel()
	})
	if errors.Is(err, domain.ErrTransition) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Approve ends recruiting successfully; reports false when the team has not
// reached its minimum size.
func (s *TeamService) Approve(ctx context.Context, id int64) (bool, error) {
	_, err := s.mutate(ctx, id, "Approve", func(t *team.Team) ([]domain.Event, error) {
		return t.Approve()
	})
	if errors.Is(err, domain.ErrTransition) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RejectTeam ends recruiting unsuccessfully.
func (s *TeamService) RejectTeam(ctx context.Context, id int64) error {
	_, err := s.mutate(ctx, id, "RejectTeam", func(t *team.Team) ([]domain.Event, error) {
		return t.Reject()
	})
	return err
}

// BatchApprove approves each team independently: every id commits or fails
// on its own, so one rejected team never rolls back the others.
func (s *TeamService) BatchApprove(ctx context.Context, ids []int64) (*ports.BatchResult, error) {
	s.logger.InfoContext(ctx, "batch approving teams", slog.Int("count", len(ids)))

	results := fanout.Run(ctx, batchApproveWorkers, ids, func(ctx context.Context, id int64) (int64, error) {
		ok, err := s.Approve(ctx, id)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, team.ErrTeamRejected
		}
		return id, nil
	})

	out := &ports.BatchResult{}
	for i, res := range results {
		if res.Err != nil {
			out.Errors = append(out.Errors, ports.BatchError{ID: ids[i], Err: res.Err})
			continue
		}
		out.Succeeded = append(out.Succeeded, res.Value)
	}
	return out, nil
}

// mutate loads the team, applies fn, then persists the aggregate and its
// events in one transaction.
func (s *TeamService) mutate(ctx context.Context, id int64, op string, fn func(t *team.Team) ([]domain.Event, error)) (*team.Team, error) {
	var t *team.Team
	err := s.uow.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		var err error
		t, err = r.Teams().FindByID(ctx, id)
		if err != nil {
			return err
		}
		events, err := fn(t)
		if err != nil {
			return err
		}
		if err := r.Teams().Save(ctx, t); err != nil {
			return err
		}
		return ports.EnqueueEvents(ctx, r.Outbox(), events)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrTransition) && !errors.Is(err, domain.ErrNotFound) &&
			!errors.Is(err, domain.ErrConflict) && !errors.Is(err, domain.ErrForbidden) {
			s.logger.ErrorContext(ctx, "team operation failed",
				slog.String("operation", op),
				slog.Int64("id", id),
				slog.Any("error", err),
			)
		}
		return nil, err
	}
	return t, nil
}
