// Package app provides application services that orchestrate use cases by
// coordinating domain aggregates, persistence and the saga engine through
// port interfaces.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jsamuelsen11/wemeet/internal/domain"
	"github.com/jsamuelsen11/wemeet/internal/domain/board"
	"github.com/jsamuelsen11/wemeet/internal/domain/project"
	"github.com/jsamuelsen11/wemeet/internal/ports"
	"github.com/jsamuelsen11/wemeet/internal/saga"
)

// lastDateLayout is the accepted wire format for a project's recruit-by date.
const lastDateLayout = "2006-01-02"

// Compile-time check that ProjectService implements ports.ProjectService.
var _ ports.ProjectService = (*ProjectService)(nil)

// ProjectService implements ports.ProjectService. Every mutating operation
// runs in one unit of work, so aggregate changes, emitted events and saga
// bookkeeping commit atomically. Transition legality itself lives in the
// domain package; this layer decides whether an illegal transition is a
// toggle-false or an error, per operation.
type ProjectService struct {
	uow    ports.UnitOfWork
	orch   *saga.Orchestrator
	logger *slog.Logger
}

// NewProjectService creates a ProjectService.
func NewProjectService(uow ports.UnitOfWork, orch *saga.Orchestrator, logger *slog.Logger) *ProjectService {
	return &ProjectService{uow: uow, orch: orch, logger: logger}
}

// Create creates a project in POST_PENDING and starts the CreateProject saga
// in the same transaction.
func (s *ProjectService) Create(ctx context.Context, req ports.CreateProjectRequest) (*project.Project, error) {
	s.logger.InfoContext(ctx, "creating project", slog.String("username", req.Username))

	lastDate, err := validateCreateProject(req)
	if err != nil {
		return nil, err
	}

	var created *project.Project
	err = s.uow.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		p := project.New(req.IsPublic, lastDate)
		if err := r.Projects().Create(ctx, p); err != nil {
			return err
		}
		if err := ports.EnqueueEvents(ctx, r.Outbox(), []domain.Event{p.CreatedEvent()}); err != nil {
			return err
		}

		state := saga.NewCreateProjectState(p.ID, req.Username, req.MinSize, req.MaxSize, req.BoardDetail)
		if _, err := s.orch.Create(ctx, r, saga.TypeCreateProject, state); err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create project",
			slog.String("operation", "Create"),
			slog.Any("error", err),
		)
		return nil, err
	}
	return created, nil
}

// Find returns the project or domain.ErrNotFound.
func (s *ProjectService) Find(ctx context.Context, id int64) (*project.Project, error) {
	var p *project.Project
	err := s.uow.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		var err error
		p, err = r.Projects().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List returns projects matching the filter.
func (s *ProjectService) List(ctx context.Context, filter ports.ProjectFilter) ([]project.Project, error) {
	var out []project.Project
	err := s.uow.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		var err error
		out, err = r.Projects().List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel moves a posted project to CANCEL_PENDING and starts the
// CancelProject saga.
func (s *ProjectService) Cancel(ctx context.Context, id int64) (bool, error) {
	return s.toggle(ctx, id, "Cancel", func(ctx context.Context, r ports.Repos, p *project.Project) error {
		if p.TeamID == nil {
			return errors.New("project has no registered team")
		}
		teamID := *p.TeamID

		events, err := p.Cancel()
		if err != nil {
			return err
		}
		if err := r.Projects().Save(ctx, p); err != nil {
			return err
		}
		if err := ports.EnqueueEvents(ctx, r.Outbox(), events); err != nil {
			return err
		}

		state := &saga.CancelProjectState{ProjectID: p.ID, TeamID: teamID}
		_, err = s.orch.Create(ctx, r, saga.TypeCancelProject, state)
		return err
	})
}

// Revise moves a posted project to REVISION_PENDING.
func (s *ProjectService) Revise(ctx context.Context, id int64) (bool, error) {
	return s.toggle(ctx, id, "Revise", func(ctx context.Context, r ports.Repos, p *project.Project) error {
		events, err := p.Revise()
		if err != nil {
			return err
		}
		if err := r.Projects().Save(ctx, p); err != nil {
			return err
		}
		return ports.EnqueueEvents(ctx, r.Outbox(), events)
	})
}

// Revised applies a revision through the ReviseProject saga, which has no
// remote steps and completes inside this call.
func (s *ProjectService) Revised(ctx context.Context, id int64, rev project.Revision) (bool, error) {
	err := s.uow.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		state := &saga.ReviseProjectState{ProjectID: id, Revision: rev}
		_, err := s.orch.Create(ctx, r, saga.TypeReviseProject, state)
		return err
	})
	if errors.Is(err, domain.ErrTransition) {
		return false, nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to apply revision",
			slog.String("operation", "Revised"),
			slog.Int64("id", id),
			slog.Any("error", err),
		)
		return false, err
	}
	return true, nil
}

// Close moves a posted project to CLOSED.
func (s *ProjectService) Close(ctx context.Context, id int64) (bool, error) {
	return s.toggle(ctx, id, "Close", func(ctx context.Context, r ports.Repos, p *project.Project) error {
		return s.transition(ctx, r, p, func(p *project.Project) ([]domain.Event, error) {
			return p.Close()
		})
	})
}

// Cancelled confirms a cancellation.
func (s *ProjectService) Cancelled(ctx context.Context, id int64) (bool, error) {
	return s.toggle(ctx, id, "Cancelled", func(ctx context.Context, r ports.Repos, p *project.Project) error {
		return s.transition(ctx, r, p, func(p *project.Project) ([]domain.Event, error) {
			return p.Cancelled()
		})
	})
}

// Approve starts the StartProject saga for a closed project. The close
// placeholder step compensates with reject if class creation fails.
func (s *ProjectService) Approve(ctx context.Context, id int64) error {
	return s.uow.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		p, err := r.Projects().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if p.State != project.StateClosed {
			return domain.NewTransitionError(string(p.State), "approve")
		}
		if p.TeamID == nil {
			return errors.New("project has no registered team")
		}

		state := &saga.StartProjectState{ProjectID: p.ID, TeamID: *p.TeamID}
		_, err = s.orch.Create(ctx, r, saga.TypeStartProject, state)
		return err
	})
}

// Reject rejects a closed project.
func (s *ProjectService) Reject(ctx context.Context, id int64) error {
	return s.update(ctx, id, "Reject", func(p *project.Project) ([]domain.Event, error) {
		return p.Reject()
	})
}

// Undo returns a pending project to POSTED.
func (s *ProjectService) Undo(ctx context.Context, id int64) error {
	return s.update(ctx, id, "Undo", func(p *project.Project) ([]domain.Event, error) {
		return p.Undo()
	})
}

// RegisterTeam records the created team on a pending project.
func (s *ProjectService) RegisterTeam(ctx context.Context, id int64, teamID int64, username string) error {
	return s.update(ctx, id, "RegisterTeam", func(p *project.Project) ([]domain.Event, error) {
		return nil, p.RegisterTeam(teamID, username)
	})
}

// RegisterBoard records the created board on a pending project.
func (s *ProjectService) RegisterBoard(ctx context.Context, id int64, boardID int64, detail board.Detail) error {
	return s.update(ctx, id, "RegisterBoard", func(p *project.Project) ([]domain.Event, error) {
		return nil, p.RegisterBoard(boardID, detail)
	})
}

// RegisterWeClass records the created class on a closed project.
func (s *ProjectService) RegisterWeClass(ctx context.Context, id int64, weClassID int64) error {
	return s.update(ctx, id, "RegisterWeClass", func(p *project.Project) ([]domain.Event, error) {
		return nil, p.RegisterWeClass(weClassID)
	})
}

// toggle wraps a mutating operation with toggle semantics: an illegal
// transition reports (false, nil) and rolls the transaction back; all other
// failures are errors.
func (s *ProjectService) toggle(ctx context.Context, id int64, op string, fn func(ctx context.Context, r ports.Repos, p *project.Project) error) (bool, error) {
	err := s.uow.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		p, err := r.Projects().FindByID(ctx, id)
		if err != nil {
			return err
		}
		return fn(ctx, r, p)
	})
	if errors.Is(err, domain.ErrTransition) {
		s.logger.InfoContext(ctx, "transition not legal in current state",
			slog.String("operation", op),
			slog.Int64("id", id),
		)
		return false, nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "project operation failed",
			slog.String("operation", op),
			slog.Int64("id", id),
			slog.Any("error", err),
		)
		return false, err
	}
	return true, nil
}

// update applies a transition and persists the aggregate plus events,
// propagating transition failures as errors.
func (s *ProjectService) update(ctx context.Context, id int64, op string, fn func(p *project.Project) ([]domain.Event, error)) error {
	err := s.uow.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		return saga.UpdateProject(ctx, r, id, fn)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "project operation failed",
			slog.String("operation", op),
			slog.Int64("id", id),
			slog.Any("error", err),
		)
	}
	return err
}

// transition persists one aggregate transition plus its events inside fn's
// transaction.
func (s *ProjectService) transition(ctx context.Context, r ports.Repos, p *project.Project, fn func(p *project.Project) ([]domain.Event, error)) error {
	events, err := fn(p)
	if err != nil {
		return err
	}
	if err := r.Projects().Save(ctx, p); err != nil {
		return err
	}
	return ports.EnqueueEvents(ctx, r.Outbox(), events)
}

func validateCreateProject(req ports.CreateProjectRequest) (time.Time, error) {
	fields := make(map[string]string)
	if req.Username == "" {
		fields["username"] = "is required"
	}
	if req.MinSize < 1 {
		fields["minSize"] = "must be at least 1"
	}
	if req.MaxSize < req.MinSize {
		fields["maxSize"] = "must be >= minSize"
	}
	lastDate, err := time.Parse(lastDateLayout, req.LastDate)
	if err != nil {
		fields["lastDate"] = "must be a date in YYYY-MM-DD form"
	}
	if err := req.BoardDetail.Validate(); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			for k, v := range verr.Fields {
				fields["boardDetail."+k] = v
			}
		} else {
			fields["boardDetail"] = err.Error()
		}
	}
	if len(fields) > 0 {
		return time.Time{}, &domain.ValidationError{Fields: fields}
	}
	return lastDate, nil
}
