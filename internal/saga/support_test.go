package saga_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen11/wemeet/internal/domain"
	"github.com/jsamuelsen11/wemeet/internal/domain/project"
	"github.com/jsamuelsen11/wemeet/internal/domain/team"
	"github.com/jsamuelsen11/wemeet/internal/ports"
	"github.com/jsamuelsen11/wemeet/internal/saga"
)

// memRepos is an in-memory ports.Repos for engine tests. It is not
// transactional; tests that need rollback semantics assert on error returns
// instead.
type memRepos struct {
	projects  map[int64]*project.Project
	teams     map[int64]*team.Team
	sagas     map[uuid.UUID]*ports.SagaInstance
	outbox    []ports.Envelope
	processed map[string]bool
}

func newMemRepos() *memRepos {
	return &memRepos{
		projects:  make(map[int64]*project.Project),
		teams:     make(map[int64]*team.Team),
		sagas:     make(map[uuid.UUID]*ports.SagaInstance),
		processed: make(map[string]bool),
	}
}

func (m *memRepos) Projects() ports.ProjectRepository { return (*memProjects)(m) }
func (m *memRepos) Teams() ports.TeamRepository       { return (*memTeams)(m) }
func (m *memRepos) Sagas() ports.SagaStore            { return (*memSagas)(m) }
func (m *memRepos) Outbox() ports.MessageOutbox       { return (*memOutbox)(m) }
func (m *memRepos) Processed() ports.ProcessedMarker  { return (*memProcessed)(m) }

// commands returns the decoded saga commands enqueued so far, in order.
func (m *memRepos) commands(t *testing.T) []*saga.Command {
	t.Helper()
	var cmds []*saga.Command
	for _, env := range m.outbox {
		if env.Kind != ports.KindCommand {
			continue
		}
		cmd, err := saga.DecodeCommand(env)
		if err != nil {
			t.Fatalf("decoding outbox command: %v", err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

func (m *memRepos) lastCommand(t *testing.T) *saga.Command {
	t.Helper()
	cmds := m.commands(t)
	if len(cmds) == 0 {
		t.Fatal("no command in outbox")
	}
	return cmds[len(cmds)-1]
}

func (m *memRepos) instance(t *testing.T, id uuid.UUID) *ports.SagaInstance {
	t.Helper()
	inst, ok := m.sagas[id]
	if !ok {
		t.Fatalf("saga instance %s not stored", id)
	}
	return inst
}

type memProjects memRepos

func (m *memProjects) FindByID(_ context.Context, id int64) (*project.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (m *memProjects) Create(_ context.Context, p *project.Project) error {
	p.ID = int64(len(m.projects)) + 1
	m.projects[p.ID] = p
	return nil
}

func (m *memProjects) Save(_ context.Context, p *project.Project) error {
	m.projects[p.ID] = p
	return nil
}

func (m *memProjects) List(context.Context, ports.ProjectFilter) ([]project.Project, error) {
	return nil, nil
}

type memTeams memRepos

func (m *memTeams) FindByID(_ context.Context, id int64) (*team.Team, error) {
	tm, ok := m.teams[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return tm, nil
}

func (m *memTeams) FindByProjectID(_ context.Context, projectID int64) (*team.Team, error) {
	for _, tm := range m.teams {
		if tm.ProjectID == projectID {
			return tm, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memTeams) Create(_ context.Context, tm *team.Team) error {
	tm.ID = int64(len(m.teams)) + 1
	m.teams[tm.ID] = tm
	return nil
}

func (m *memTeams) Save(_ context.Context, tm *team.Team) error {
	m.teams[tm.ID] = tm
	return nil
}

type memSagas memRepos

func (m *memSagas) Insert(_ context.Context, inst *ports.SagaInstance) error {
	cp := *inst
	m.sagas[inst.ID] = &cp
	return nil
}

func (m *memSagas) Get(_ context.Context, id uuid.UUID) (*ports.SagaInstance, error) {
	inst, ok := m.sagas[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *inst
	return &cp, nil
}

func (m *memSagas) Update(_ context.Context, inst *ports.SagaInstance) error {
	cp := *inst
	m.sagas[inst.ID] = &cp
	return nil
}

func (m *memSagas) ListExpired(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, inst := range m.sagas {
		if inst.Status != ports.SagaActive && inst.Status != ports.SagaCompensating {
			continue
		}
		if inst.Deadline != nil && !now.Before(*inst.Deadline) {
			ids = append(ids, id)
		}
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

type memOutbox memRepos

func (m *memOutbox) Enqueue(_ context.Context, env ports.Envelope) error {
	m.outbox = append(m.outbox, env)
	return nil
}

type memProcessed memRepos

func (m *memProcessed) MarkProcessed(_ context.Context, key string) (bool, error) {
	if m.processed[key] {
		return false, nil
	}
	m.processed[key] = true
	return true, nil
}

// memUOW runs every unit of work against the same memRepos.
type memUOW struct {
	r *memRepos
}

func (u *memUOW) Do(ctx context.Context, fn func(ctx context.Context, r ports.Repos) error) error {
	return fn(ctx, u.r)
}
