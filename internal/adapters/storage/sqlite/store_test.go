package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen11/wemeet/internal/adapters/storage/sqlite"
	"github.com/jsamuelsen11/wemeet/internal/domain"
	"github.com/jsamuelsen11/wemeet/internal/domain/board"
	"github.com/jsamuelsen11/wemeet/internal/domain/project"
	"github.com/jsamuelsen11/wemeet/internal/domain/team"
	"github.com/jsamuelsen11/wemeet/internal/ports"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "wemeet-test.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close error: %v", err)
		}
	})
	return store
}

func TestOpen_EmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := sqlite.Open("  "); err == nil {
		t.Fatal("Open with blank path must fail")
	}
}

func TestProjectStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()

	lastDate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := project.New(true, lastDate)

	err := store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		return r.Projects().Create(ctx, p)
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if p.ID == 0 {
		t.Fatal("Create must assign an id")
	}
	if p.Version != 1 {
		t.Errorf("Version = %d, want 1", p.Version)
	}

	// Mutate through registrations and persist.
	err = store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		loaded, err := r.Projects().FindByID(ctx, p.ID)
		if err != nil {
			return err
		}
		if err := loaded.RegisterTeam(10, "alice"); err != nil {
			return err
		}
		if err := loaded.RegisterBoard(99, board.Detail{
			Writer: "alice", Subject: "s", Content: "c", Category: board.CategoryRecruit,
		}); err != nil {
			return err
		}
		return r.Projects().Save(ctx, loaded)
	})
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}

	var got *project.Project
	err = store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		var err error
		got, err = r.Projects().FindByID(ctx, p.ID)
		return err
	})
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}

	if got.State != project.StatePostPending {
		t.Errorf("State = %s, want POST_PENDING", got.State)
	}
	if got.TeamID == nil || *got.TeamID != 10 {
		t.Errorf("TeamID = %v, want 10", got.TeamID)
	}
	if got.BoardID == nil || *got.BoardID != 99 {
		t.Errorf("BoardID = %v, want 99", got.BoardID)
	}
	if got.Board == nil || got.Board.Writer != "alice" || got.Board.Category != board.CategoryRecruit {
		t.Errorf("Board snapshot = %+v, want alice/recruit", got.Board)
	}
	if len(got.Members) != 1 || got.Members[0] != "alice" {
		t.Errorf("Members = %v, want [alice]", got.Members)
	}
	if !got.LastDate.Equal(lastDate) {
		t.Errorf("LastDate = %v, want %v", got.LastDate, lastDate)
	}
	if got.Version != 2 {
		t.Errorf("Version = %d, want 2 after one save", got.Version)
	}
}

func TestProjectStore_FindMissing(t *testing.T) {
	t.Parallel()

	store := openStore(t)

	err := store.Do(context.Background(), func(ctx context.Context, r ports.Repos) error {
		_, err := r.Projects().FindByID(ctx, 404)
		return err
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestProjectStore_StaleSaveConflicts(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()

	p := project.New(true, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if err := store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		return r.Projects().Create(ctx, p)
	}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	stale := *p
	if err := store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		return r.Projects().Save(ctx, p)
	}); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	err := store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		return r.Projects().Save(ctx, &stale)
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("stale save error = %v, want ErrConflict", err)
	}
}

func TestProjectStore_ListFilters(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()

	seed := []struct {
		state    project.State
		isPublic bool
	}{
		{project.StatePostPending, true},
		{project.StatePosted, true},
		{project.StatePosted, false},
	}
	err := store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		for _, s := range seed {
			p := project.New(s.isPublic, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
			p.State = s.state
			if err := r.Projects().Create(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed error: %v", err)
	}

	public := true
	tests := []struct {
		name   string
		filter ports.ProjectFilter
		want   int
	}{
		{"all", ports.ProjectFilter{}, 3},
		{"by state", ports.ProjectFilter{State: project.StatePosted}, 2},
		{"by visibility", ports.ProjectFilter{IsPublic: &public}, 2},
		{"combined", ports.ProjectFilter{State: project.StatePosted, IsPublic: &public}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got []project.Project
			err := store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
				var err error
				got, err = r.Projects().List(ctx, tc.filter)
				return err
			})
			if err != nil {
				t.Fatalf("List error: %v", err)
			}
			if len(got) != tc.want {
				t.Errorf("len = %d, want %d", len(got), tc.want)
			}
		})
	}
}

func TestTeamStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()

	tm, err := team.New(7, "alice", 2, 5)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		return r.Teams().Create(ctx, tm)
	}); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if tm.ID == 0 {
		t.Fatal("Create must assign an id")
	}

	err = store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		loaded, err := r.Teams().FindByID(ctx, tm.ID)
		if err != nil {
			return err
		}
		if _, err := loaded.Join("bob"); err != nil {
			return err
		}
		return r.Teams().Save(ctx, loaded)
	})
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}

	var got *team.Team
	err = store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		var err error
		got, err = r.Teams().FindByProjectID(ctx, 7)
		return err
	})
	if err != nil {
		t.Fatalf("FindByProjectID error: %v", err)
	}
	if got.ID != tm.ID || got.Leader != "alice" || got.State != team.StateRecruiting {
		t.Errorf("team = %+v, want the created team", got)
	}
	if len(got.Members) != 2 {
		t.Errorf("Members = %v, want leader plus bob", got.Members)
	}
	if got.Version != 2 {
		t.Errorf("Version = %d, want 2", got.Version)
	}
}

func TestTeamStore_StaleSaveConflicts(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()

	tm, err := team.New(1, "alice", 1, 5)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		return r.Teams().Create(ctx, tm)
	}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	stale := *tm
	if err := store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		return r.Teams().Save(ctx, tm)
	}); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	err = store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		return r.Teams().Save(ctx, &stale)
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("stale save error = %v, want ErrConflict", err)
	}
}

func TestUnitOfWork_RollsBackTogether(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()
	boom := errors.New("abort")

	err := store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		p := project.New(true, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
		if err := r.Projects().Create(ctx, p); err != nil {
			return err
		}
		env := ports.Envelope{ID: uuid.New(), Channel: "team-service", Kind: ports.KindCommand, Payload: []byte(`{}`)}
		if err := r.Outbox().Enqueue(ctx, env); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Do error = %v, want the handler error", err)
	}

	// Neither the aggregate nor the outbox row may survive the rollback.
	err = store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		_, err := r.Projects().FindByID(ctx, 1)
		return err
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("project after rollback: %v, want ErrNotFound", err)
	}
	msgs, err := store.ClaimPending(ctx, time.Now(), time.Minute, 10)
	if err != nil {
		t.Fatalf("ClaimPending error: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("outbox rows after rollback = %d, want 0", len(msgs))
	}
}

func TestOutbox_ClaimLeaseCycle(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()

	envs := []ports.Envelope{
		{ID: uuid.New(), Channel: "team-service", Kind: ports.KindCommand, Payload: []byte(`{"a":1}`)},
		{ID: uuid.New(), Channel: "board-service", Kind: ports.KindCommand, Payload: []byte(`{"b":2}`)},
	}
	err := store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		for _, env := range envs {
			if err := r.Outbox().Enqueue(ctx, env); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Enqueue error: %v", err)
	}

	now := time.Now()
	lease := 30 * time.Second

	claimed, err := store.ClaimPending(ctx, now, lease, 10)
	if err != nil {
		t.Fatalf("ClaimPending error: %v", err)
	}
	if len(claimed) != 2 {
		t.Fatalf("claimed = %d, want 2", len(claimed))
	}
	if claimed[0].Envelope.ID != envs[0].ID || claimed[1].Envelope.ID != envs[1].ID {
		t.Error("claim order must be insertion order")
	}
	for _, m := range claimed {
		if m.Attempts != 1 {
			t.Errorf("Attempts = %d, want 1 after first claim", m.Attempts)
		}
	}

	// Leased rows are invisible until the lease expires.
	again, err := store.ClaimPending(ctx, now, lease, 10)
	if err != nil {
		t.Fatalf("ClaimPending error: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("claimed while leased = %d, want 0", len(again))
	}

	if err := store.MarkDelivered(ctx, []int64{claimed[0].Seq}); err != nil {
		t.Fatalf("MarkDelivered error: %v", err)
	}

	// After the lease expires only the undelivered row comes back, with a
	// bumped attempt count.
	later := now.Add(lease + time.Second)
	expired, err := store.ClaimPending(ctx, later, lease, 10)
	if err != nil {
		t.Fatalf("ClaimPending error: %v", err)
	}
	if len(expired) != 1 {
		t.Fatalf("claimed after lease = %d, want 1", len(expired))
	}
	if expired[0].Seq != claimed[1].Seq {
		t.Errorf("Seq = %d, want the undelivered row %d", expired[0].Seq, claimed[1].Seq)
	}
	if expired[0].Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", expired[0].Attempts)
	}
}

func TestProcessedMarker(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()

	key := uuid.New().String()
	var first, second bool
	err := store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		var err error
		first, err = r.Processed().MarkProcessed(ctx, key)
		return err
	})
	if err != nil {
		t.Fatalf("MarkProcessed error: %v", err)
	}
	err = store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		var err error
		second, err = r.Processed().MarkProcessed(ctx, key)
		return err
	})
	if err != nil {
		t.Fatalf("MarkProcessed error: %v", err)
	}
	if !first || second {
		t.Errorf("MarkProcessed = %v, %v; want true then false", first, second)
	}
}

func TestSagaStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	deadline := now.Add(10 * time.Second)
	inst := &ports.SagaInstance{
		ID:        uuid.New(),
		Type:      "CreateProject",
		Status:    ports.SagaActive,
		Step:      1,
		CompStep:  0,
		Data:      []byte(`{"projectId":1}`),
		Deadline:  &deadline,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		return r.Sagas().Insert(ctx, inst)
	})
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}

	var got *ports.SagaInstance
	err = store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		var err error
		got, err = r.Sagas().Get(ctx, inst.ID)
		return err
	})
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Type != inst.Type || got.Status != inst.Status || got.Step != 1 {
		t.Errorf("instance = %+v, want stored values", got)
	}
	if got.Deadline == nil || !got.Deadline.Equal(deadline) {
		t.Errorf("Deadline = %v, want %v", got.Deadline, deadline)
	}
	if string(got.Data) != `{"projectId":1}` {
		t.Errorf("Data = %s, want stored accumulator", got.Data)
	}

	got.Status = ports.SagaCompleted
	got.Step = 5
	got.Deadline = nil
	err = store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		return r.Sagas().Update(ctx, got)
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	err = store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		var err error
		got, err = r.Sagas().Get(ctx, inst.ID)
		return err
	})
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Status != ports.SagaCompleted || got.Step != 5 || got.Deadline != nil {
		t.Errorf("after update: %+v, want completed/5/no deadline", got)
	}
}

func TestSagaStore_GetMissing(t *testing.T) {
	t.Parallel()

	store := openStore(t)

	err := store.Do(context.Background(), func(ctx context.Context, r ports.Repos) error {
		_, err := r.Sagas().Get(ctx, uuid.New())
		return err
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSagaStore_ListExpired(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	seed := []struct {
		status   string
		deadline *time.Time
	}{
		{ports.SagaActive, &past},        // expired
		{ports.SagaCompensating, &past},  // expired
		{ports.SagaActive, &future},      // not yet
		{ports.SagaCompleted, &past},     // terminal
		{ports.SagaActive, nil},          // no outstanding command
	}
	var expired []uuid.UUID
	err := store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		for i, s := range seed {
			inst := &ports.SagaInstance{
				ID:        uuid.New(),
				Type:      "CreateProject",
				Status:    s.status,
				Data:      []byte(`{}`),
				Deadline:  s.deadline,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := r.Sagas().Insert(ctx, inst); err != nil {
				return err
			}
			if i < 2 {
				expired = append(expired, inst.ID)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed error: %v", err)
	}

	var got []uuid.UUID
	err = store.Do(ctx, func(ctx context.Context, r ports.Repos) error {
		var err error
		got, err = r.Sagas().ListExpired(ctx, now, 10)
		return err
	})
	if err != nil {
		t.Fatalf("ListExpired error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expired = %d, want 2", len(got))
	}
	want := map[uuid.UUID]bool{expired[0]: true, expired[1]: true}
	for _, id := range got {
		if !want[id] {
			t.Errorf("unexpected expired id %s", id)
		}
	}
}
