package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen11/wemeet/internal/domain/project"
	"github.com/jsamuelsen11/wemeet/internal/domain/team"
)

// ProjectFilter narrows List queries on the project repository.
// Zero-value fields are ignored.
type ProjectFilter struct {
	State    project.State
	IsPublic *bool
}

// ProjectRepository provides persistence for the Project aggregate.
// Implementations guarantee single-writer semantics per aggregate id.
type ProjectRepository interface {
	// FindByID returns the project or domain.ErrNotFound.
	FindByID(ctx context.Context, id int64) (*project.Project, error)

	// Create inserts a new project and assigns its ID.
	Create(ctx context.Context, p *project.Project) error

	// Save persists a mutated project. Returns domain.ErrConflict when the
	// stored version no longer matches (lost update).
	Save(ctx context.Context, p *project.Project) error

	// List returns projects matching the filter.
	List(ctx context.Context, filter ProjectFilter) ([]project.Project, error)
}

// TeamRepository provides persistence for the Team aggregate.
type TeamRepository interface {
	// FindByID returns the team or domain.ErrNotFound.
	FindByID(ctx context.Context, id int64) (*team.Team, error)

	// FindByProjectID returns the team recruiting for the given project,
	// or domain.ErrNotFound.
	FindByProjectID(ctx context.Context, projectID int64) (*team.Team, error)

	// Create inserts a new team and assigns its ID.
	Create(ctx context.Context, t *team.Team) error

	// Save persists a mutated team. Returns domain.ErrConflict on a stale
	// version.
	Save(ctx context.Context, t *team.Team) error
}

// Saga instance statuses.
const (
	SagaActive       = "active"
	SagaCompensating = "compensating"
	SagaCompleted    = "completed"
	SagaCompensated  = "compensated"
)

// SagaInstance is the persistence record for one in-flight workflow.
// Data holds the saga-type-specific accumulator as JSON.
type SagaInstance struct {
	ID        uuid.UUID
	Type      string
	Status    string
	Step      int
	CompStep  int
	Data      json.RawMessage
	Deadline  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SagaStore provides persistence for saga instances. All mutations happen
// inside the same transaction as the aggregate and outbox writes they
// accompany.
type SagaStore interface {
	// Insert stores a new instance.
	Insert(ctx context.Context, inst *SagaInstance) error

	// Get returns the instance or domain.ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*SagaInstance, error)

	// Update persists instance progress.
	Update(ctx context.Context, inst *SagaInstance) error

	// ListExpired returns ids of non-terminal instances whose deadline has
	// passed, oldest first, up to limit.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

// ProcessedMarker records handled command identities so at-least-once
// delivery collapses to exactly-once processing on the participant side.
type ProcessedMarker interface {
	// MarkProcessed records the key and reports whether it was new.
	// A false return means the command was already handled and the caller
	// must skip its effect (the reply is still re-sent).
	MarkProcessed(ctx context.Context, key string) (bool, error)
}

// Repos bundles the transaction-scoped repositories handed to a unit of work.
type Repos interface {
	Projects() ProjectRepository
	Teams() TeamRepository
	Sagas() SagaStore
	Outbox() MessageOutbox
	Processed() ProcessedMarker
}

// UnitOfWork runs fn inside one local transaction. Aggregate mutations, saga
// state changes and outbox appends made through the provided Repos commit or
// roll back together; this is the transactional-outbox guarantee the saga
// engine is built on.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
}
