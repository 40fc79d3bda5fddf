package ports

import (
	"context"

	"github.com/jsamuelsen11/wemeet/internal/domain/board"
	"github.com/jsamuelsen11/wemeet/internal/domain/project"
	"github.com/jsamuelsen11/wemeet/internal/domain/team"
)

// CreateProjectRequest carries the accepted create-project input. The
// authorization layer has already approved the requesting user before this
// reaches the service.
type CreateProjectRequest struct {
	Username    string
	MinSize     int
	MaxSize     int
	IsPublic    bool
	LastDate    string
	BoardDetail board.Detail
}

// ProjectService defines the service port for project aggregate operations
// and the sagas they trigger. Implemented by the application layer; called by
// inbound adapters (handlers) and saga participants.
//
// Toggle-style operations return (false, nil) when the transition is illegal
// for the current state; hard failures (not found, storage) are errors.
type ProjectService interface {
	// Create creates a project in POST_PENDING and starts the CreateProject
	// saga atomically. Returns the created project with its assigned ID.
	Create(ctx context.Context, req CreateProjectRequest) (*project.Project, error)

	// Find returns the project or domain.ErrNotFound.
	Find(ctx context.Context, id int64) (*project.Project, error)

	// List returns projects matching the filter.
	List(ctx context.Context, filter ProjectFilter) ([]project.Project, error)

	// Cancel moves a posted project to CANCEL_PENDING and starts the
	// CancelProject saga.
	Cancel(ctx context.Context, id int64) (bool, error)

	// Revise moves a posted project to REVISION_PENDING.
	Revise(ctx context.Context, id int64) (bool, error)

	// Revised applies a revision and returns the project to POSTED. Runs the
	// ReviseProject saga, which has no remote steps and completes
	// immediately.
	Revised(ctx context.Context, id int64, rev project.Revision) (bool, error)

	// Close moves a posted project to CLOSED.
	Close(ctx context.Context, id int64) (bool, error)

	// Approve starts the StartProject saga for a closed project.
	Approve(ctx context.Context, id int64) error

	// Reject rejects a closed project.
	Reject(ctx context.Context, id int64) error

	// Undo returns a pending project to POSTED.
	Undo(ctx context.Context, id int64) error

	// Cancelled confirms a cancellation (CANCEL_PENDING or POST_PENDING to
	// CANCELLED). Invoked by the project saga participant.
	Cancelled(ctx context.Context, id int64) (bool, error)

	// RegisterTeam records the created team on a pending project.
	RegisterTeam(ctx context.Context, id int64, teamID int64, username string) error

	// RegisterBoard records the created board on a pending project.
	RegisterBoard(ctx context.Context, id int64, boardID int64, detail board.Detail) error

	// RegisterWeClass records the created class on a closed project.
	RegisterWeClass(ctx context.Context, id int64, weClassID int64) error
}

// BatchError records a single failed id within a batch operation.
type BatchError struct {
	ID  int64
	Err error
}

// BatchResult holds the per-id outcomes of a batch operation. Succeeded ids
// stay committed regardless of failures on other ids in the same call.
type BatchResult struct {
	Succeeded []int64
	Errors    []BatchError
}

// TeamService defines the service port for team aggregate operations.
type TeamService interface {
	// Create creates a recruiting team for a project. Invoked by the team
	// saga participant.
	Create(ctx context.Context, projectID int64, leader string, minSize, maxSize int) (*team.Team, error)

	// Find returns the team or domain.ErrNotFound.
	Find(ctx context.Context, id int64) (*team.Team, error)

	// IsLeader reports whether the username leads the team.
	IsLeader(ctx context.Context, id int64, username string) (bool, error)

	// Join adds a user to a recruiting team.
	// Returns domain.ErrConflict if the user is already a member.
	Join(ctx context.Context, id int64, username string) (*team.Team, error)

	// Accept approves a pending member. The target must currently be a
	// member (domain.ErrNotFound otherwise).
	Accept(ctx context.Context, id int64, username string) error

	// Reject removes a pending member.
	Reject(ctx context.Context, id int64, username string) error

	// Quit removes a member at their own request.
	Quit(ctx context.Context, id int64, username string) (*team.Team, error)

	// Cancel cancels a recruiting team.
	Cancel(ctx context.Context, id int64) (bool, error)

	// Approve ends recruiting successfully; reports false when the team has
	// not reached its minimum size.
	Approve(ctx context.Context, id int64) (bool, error)

	// RejectTeam ends recruiting unsuccessfully.
	RejectTeam(ctx context.Context, id int64) error

	// BatchApprove approves each team id independently. A failure on one id
	// does not roll back successes already committed for other ids.
	BatchApprove(ctx context.Context, ids []int64) (*BatchResult, error)
}
