package saga_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen11/wemeet/internal/domain"
	"github.com/jsamuelsen11/wemeet/internal/domain/board"
	"github.com/jsamuelsen11/wemeet/internal/domain/project"
	"github.com/jsamuelsen11/wemeet/internal/ports"
	"github.com/jsamuelsen11/wemeet/internal/saga"
	"github.com/jsamuelsen11/wemeet/internal/saga/wire"
)

const testTimeout = 5 * time.Second

func newOrchestrator(t *testing.T, m *memRepos) *saga.Orchestrator {
	t.Helper()
	o := saga.NewOrchestrator(&memUOW{r: m}, slog.New(slog.DiscardHandler), nil)
	o.Register(
		saga.NewCreateProjectSaga(testTimeout),
		saga.NewCancelProjectSaga(testTimeout),
		saga.NewReviseProjectSaga(testTimeout),
		saga.NewStartProjectSaga(testTimeout),
	)
	return o
}

func boardDetail() board.Detail {
	return board.Detail{
		Writer:   "alice",
		Subject:  "subject",
		Content:  "content",
		Category: board.CategoryRecruit,
	}
}

// startCreateProject runs Create for a CreateProject saga against a fresh
// POST_PENDING project with id 1.
func startCreateProject(t *testing.T, o *saga.Orchestrator, m *memRepos) uuid.UUID {
	t.Helper()
	p := project.New(true, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	p.ID = 1
	m.projects[1] = p

	state := saga.NewCreateProjectState(1, "alice", 2, 5, boardDetail())
	id, err := o.Create(context.Background(), m, saga.TypeCreateProject, state)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	return id
}

func successReply(t *testing.T, cmd *saga.Command, replyType string, payload any) *saga.Reply {
	t.Helper()
	r, err := saga.NewSuccessReply(cmd, replyType, payload)
	if err != nil {
		t.Fatalf("NewSuccessReply error: %v", err)
	}
	return r
}

func TestCreate_SendsFirstCommandOnly(t *testing.T) {
	t.Parallel()

	m := newMemRepos()
	o := newOrchestrator(t, m)
	id := startCreateProject(t, o, m)

	cmds := m.commands(t)
	if len(cmds) != 1 {
		t.Fatalf("commands = %d, want exactly 1 outstanding", len(cmds))
	}
	cmd := cmds[0]
	if cmd.Type != wire.CreateTeamCommand || cmd.Destination != saga.ChannelTeamService {
		t.Errorf("first command = %s -> %s, want CreateTeamCommand -> team-service", cmd.Type, cmd.Destination)
	}
	if cmd.ReplyChannel != saga.ReplyChannel {
		t.Errorf("ReplyChannel = %s, want %s", cmd.ReplyChannel, saga.ReplyChannel)
	}

	inst := m.instance(t, id)
	if inst.Status != ports.SagaActive {
		t.Errorf("Status = %s, want active", inst.Status)
	}
	if inst.Step != 1 {
		t.Errorf("Step = %d, want 1 (placeholder step 0 skipped)", inst.Step)
	}
	if inst.Deadline == nil {
		t.Error("Deadline must be armed while a command is outstanding")
	}
}

func TestCreate_UnknownType(t *testing.T) {
	t.Parallel()

	m := newMemRepos()
	o := newOrchestrator(t, m)

	_, err := o.Create(context.Background(), m, "NoSuchSaga", nil)
	if err == nil {
		t.Fatal("Create with unregistered type must fail")
	}
}

func TestHandleReply_HappyPath(t *testing.T) {
	t.Parallel()

	m := newMemRepos()
	o := newOrchestrator(t, m)
	id := startCreateProject(t, o, m)
	ctx := context.Background()

	// create-team reply carries the new team id.
	reply := successReply(t, m.lastCommand(t), wire.CreateTeamReplyType, wire.CreateTeamReply{TeamID: 10})
	if err := o.HandleReply(ctx, reply); err != nil {
		t.Fatalf("HandleReply error: %v", err)
	}
	cmd := m.lastCommand(t)
	if cmd.Type != wire.CreateBoardCommand || cmd.Destination != saga.ChannelBoardService {
		t.Fatalf("after create-team reply: command = %s -> %s, want CreateBoardCommand -> board-service", cmd.Type, cmd.Destination)
	}

	// create-board reply carries the new board id.
	reply = successReply(t, cmd, wire.CreateBoardReplyType, wire.CreateBoardReply{BoardID: 99})
	if err := o.HandleReply(ctx, reply); err != nil {
		t.Fatalf("HandleReply error: %v", err)
	}
	cmd = m.lastCommand(t)
	if cmd.Type != wire.RegisterBoardCommand || cmd.Destination != saga.ChannelProjectService {
		t.Fatalf("after create-board reply: command = %s -> %s, want RegisterBoardCommand -> project-service", cmd.Type, cmd.Destination)
	}
	var rb wire.RegisterBoard
	if err := json.Unmarshal(cmd.Payload, &rb); err != nil {
		t.Fatalf("decoding RegisterBoard payload: %v", err)
	}
	if rb.BoardID != 99 {
		t.Errorf("RegisterBoard.BoardID = %d, want harvested 99", rb.BoardID)
	}

	// register-board and register-team replies complete the saga.
	if err := o.HandleReply(ctx, successReply(t, cmd, wire.SuccessReplyType, nil)); err != nil {
		t.Fatalf("HandleReply error: %v", err)
	}
	cmd = m.lastCommand(t)
	if cmd.Type != wire.RegisterTeamCommand {
		t.Fatalf("command = %s, want RegisterTeamCommand", cmd.Type)
	}
	var rt wire.RegisterTeam
	if err := json.Unmarshal(cmd.Payload, &rt); err != nil {
		t.Fatalf("decoding RegisterTeam payload: %v", err)
	}
	if rt.TeamID != 10 {
		t.Errorf("RegisterTeam.TeamID = %d, want harvested 10", rt.TeamID)
	}
	if err := o.HandleReply(ctx, successReply(t, cmd, wire.SuccessReplyType, nil)); err != nil {
		t.Fatalf("HandleReply error: %v", err)
	}

	inst := m.instance(t, id)
	if inst.Status != ports.SagaCompleted {
		t.Errorf("Status = %s, want completed", inst.Status)
	}
	if inst.Deadline != nil {
		t.Error("Deadline must be cleared on completion")
	}
	if got := len(m.commands(t)); got != 4 {
		t.Errorf("total commands = %d, want 4", got)
	}
}

func TestHandleReply_DuplicateDropped(t *testing.T) {
	t.Parallel()

	m := newMemRepos()
	o := newOrchestrator(t, m)
	id := startCreateProject(t, o, m)
	ctx := context.Background()

	reply := successReply(t, m.lastCommand(t), wire.CreateTeamReplyType, wire.CreateTeamReply{TeamID: 10})
	if err := o.HandleReply(ctx, reply); err != nil {
		t.Fatalf("HandleReply error: %v", err)
	}
	before := len(m.commands(t))
	step := m.instance(t, id).Step

	// Redelivery of the same reply targets a stale step and must not move
	// the saga.
	if err := o.HandleReply(ctx, reply); err != nil {
		t.Fatalf("duplicate HandleReply error: %v", err)
	}
	if got := len(m.commands(t)); got != before {
		t.Errorf("commands = %d after duplicate, want %d", got, before)
	}
	if got := m.instance(t, id).Step; got != step {
		t.Errorf("Step = %d after duplicate, want %d", got, step)
	}
}

func TestHandleReply_UnknownSagaDropped(t *testing.T) {
	t.Parallel()

	m := newMemRepos()
	o := newOrchestrator(t, m)

	reply := &saga.Reply{Type: wire.SuccessReplyType, SagaID: uuid.New(), Outcome: saga.OutcomeSuccess}
	if err := o.HandleReply(context.Background(), reply); err != nil {
		t.Fatalf("HandleReply for unknown saga must be a no-op, got %v", err)
	}
}

func TestHandleReply_FailureCompensatesInReverse(t *testing.T) {
	t.Parallel()

	m := newMemRepos()
	o := newOrchestrator(t, m)
	id := startCreateProject(t, o, m)
	ctx := context.Background()

	// Drive to the register-board step.
	r := successReply(t, m.lastCommand(t), wire.CreateTeamReplyType, wire.CreateTeamReply{TeamID: 10})
	if err := o.HandleReply(ctx, r); err != nil {
		t.Fatalf("HandleReply error: %v", err)
	}
	r = successReply(t, m.lastCommand(t), wire.CreateBoardReplyType, wire.CreateBoardReply{BoardID: 99})
	if err := o.HandleReply(ctx, r); err != nil {
		t.Fatalf("HandleReply error: %v", err)
	}

	// A failure there unwinds board, then team, then the project itself.
	fail := saga.NewFailureReply(m.lastCommand(t), wire.FailureReplyType, "board registration refused")
	if err := o.HandleReply(ctx, fail); err != nil {
		t.Fatalf("HandleReply error: %v", err)
	}
	if got := m.instance(t, id).Status; got != ports.SagaCompensating {
		t.Fatalf("Status = %s, want compensating", got)
	}

	wantOrder := []string{wire.DeleteBoardCommand, wire.DeleteTeamCommand, wire.ConfirmCancelProjectCommand}
	for _, want := range wantOrder {
		cmd := m.lastCommand(t)
		if cmd.Type != want {
			t.Fatalf("compensation command = %s, want %s", cmd.Type, want)
		}
		if !cmd.Compensating {
			t.Errorf("%s not marked compensating", cmd.Type)
		}
		if err := o.HandleReply(ctx, successReply(t, cmd, wire.SuccessReplyType, nil)); err != nil {
			t.Fatalf("HandleReply error: %v", err)
		}
	}

	inst := m.instance(t, id)
	if inst.Status != ports.SagaCompensated {
		t.Errorf("Status = %s, want compensated", inst.Status)
	}
	if inst.Deadline != nil {
		t.Error("Deadline must be cleared after compensation")
	}
}

func TestHandleReply_CompensationFailureLeavesArmed(t *testing.T) {
	t.Parallel()

	m := newMemRepos()
	o := newOrchestrator(t, m)
	id := startCreateProject(t, o, m)
	ctx := context.Background()

	fail := saga.NewFailureReply(m.lastCommand(t), wire.FailureReplyType, "team creation refused")
	if err := o.HandleReply(ctx, fail); err != nil {
		t.Fatalf("HandleReply error: %v", err)
	}
	cmd := m.lastCommand(t)
	if cmd.Type != wire.ConfirmCancelProjectCommand {
		t.Fatalf("compensation command = %s, want ConfirmCancelProjectCommand", cmd.Type)
	}

	// A failed compensation reply does not finish the unwind; the sweeper
	// re-sends later.
	compFail := saga.NewFailureReply(cmd, wire.FailureReplyType, "temporarily unavailable")
	if err := o.HandleReply(ctx, compFail); err != nil {
		t.Fatalf("HandleReply error: %v", err)
	}
	inst := m.instance(t, id)
	if inst.Status != ports.SagaCompensating {
		t.Errorf("Status = %s, want still compensating", inst.Status)
	}
	if inst.CompStep != 0 {
		t.Errorf("CompStep = %d, want 0", inst.CompStep)
	}
}

func TestCreate_ReviseCompletesInline(t *testing.T) {
	t.Parallel()

	m := newMemRepos()
	o := newOrchestrator(t, m)

	p := project.New(true, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	p.ID = 1
	p.State = project.StateRevisionPending
	m.projects[1] = p

	newDate := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	state := &saga.ReviseProjectState{
		ProjectID: 1,
		Revision:  project.Revision{IsPublic: false, LastDate: newDate},
	}
	id, err := o.Create(context.Background(), m, saga.TypeReviseProject, state)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	inst := m.instance(t, id)
	if inst.Status != ports.SagaCompleted {
		t.Errorf("Status = %s, want completed before Create returns", inst.Status)
	}
	if got := len(m.commands(t)); got != 0 {
		t.Errorf("commands = %d, want 0 for a saga with no remote steps", got)
	}
	if p.State != project.StatePosted {
		t.Errorf("project state = %s, want POSTED", p.State)
	}
	if p.IsPublic || !p.LastDate.Equal(newDate) {
		t.Errorf("revision not applied: isPublic=%v lastDate=%v", p.IsPublic, p.LastDate)
	}
}

func TestCreate_BusinessFailurePropagates(t *testing.T) {
	t.Parallel()

	m := newMemRepos()
	o := newOrchestrator(t, m)

	// Revising a project that is not in REVISION_PENDING is a business
	// failure. During Create nothing has committed, so the error surfaces
	// to roll back the caller's transaction instead of compensating.
	p := project.New(true, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	p.ID = 1
	p.State = project.StatePosted
	m.projects[1] = p

	state := &saga.ReviseProjectState{ProjectID: 1, Revision: project.Revision{IsPublic: true}}
	_, err := o.Create(context.Background(), m, saga.TypeReviseProject, state)
	if !errors.Is(err, domain.ErrTransition) {
		t.Fatalf("Create error = %v, want ErrTransition", err)
	}
	if len(m.sagas) != 0 {
		t.Error("no saga instance may be stored when Create fails")
	}
}

func TestHandleReply_LocalStepsRunOnAdvance(t *testing.T) {
	t.Parallel()

	m := newMemRepos()
	o := newOrchestrator(t, m)
	ctx := context.Background()

	// CancelProject: the local cancel() ran in the triggering transaction.
	p := project.New(true, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	p.ID = 1
	p.State = project.StateCancelPending
	m.projects[1] = p

	state := &saga.CancelProjectState{ProjectID: 1, TeamID: 10}
	id, err := o.Create(ctx, m, saga.TypeCancelProject, state)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	cmd := m.lastCommand(t)
	if cmd.Type != wire.CancelTeamCommand || cmd.Destination != saga.ChannelTeamService {
		t.Fatalf("command = %s -> %s, want CancelTeamCommand -> team-service", cmd.Type, cmd.Destination)
	}

	// The success reply triggers the confirm-cancel local step and
	// completes the saga.
	if err := o.HandleReply(ctx, successReply(t, cmd, wire.SuccessReplyType, nil)); err != nil {
		t.Fatalf("HandleReply error: %v", err)
	}
	if got := m.instance(t, id).Status; got != ports.SagaCompleted {
		t.Errorf("Status = %s, want completed", got)
	}
	if p.State != project.StateCancelled {
		t.Errorf("project state = %s, want CANCELLED", p.State)
	}
}

func TestHandleReply_FailureRunsLocalCompensation(t *testing.T) {
	t.Parallel()

	m := newMemRepos()
	o := newOrchestrator(t, m)
	ctx := context.Background()

	p := project.New(true, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	p.ID = 1
	p.State = project.StateCancelPending
	m.projects[1] = p

	state := &saga.CancelProjectState{ProjectID: 1, TeamID: 10}
	id, err := o.Create(ctx, m, saga.TypeCancelProject, state)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// Team cancellation refused: the local compensation returns the
	// project to POSTED and the saga ends compensated without further
	// commands.
	fail := saga.NewFailureReply(m.lastCommand(t), wire.FailureReplyType, "team already approved")
	if err := o.HandleReply(ctx, fail); err != nil {
		t.Fatalf("HandleReply error: %v", err)
	}

	if got := m.instance(t, id).Status; got != ports.SagaCompensated {
		t.Errorf("Status = %s, want compensated", got)
	}
	if p.State != project.StatePosted {
		t.Errorf("project state = %s, want POSTED", p.State)
	}
	if got := len(m.commands(t)); got != 1 {
		t.Errorf("commands = %d, want 1 (no compensation commands)", got)
	}
}

func TestHandleTimeout_ActiveCompensates(t *testing.T) {
	t.Parallel()

	m := newMemRepos()
	o := newOrchestrator(t, m)
	id := startCreateProject(t, o, m)

	past := time.Now().Add(-time.Minute)
	m.instance(t, id).Deadline = &past

	if err := o.HandleTimeout(context.Background(), id); err != nil {
		t.Fatalf("HandleTimeout error: %v", err)
	}
	inst := m.instance(t, id)
	if inst.Status != ports.SagaCompensating {
		t.Errorf("Status = %s, want compensating", inst.Status)
	}
	if got := m.lastCommand(t).Type; got != wire.ConfirmCancelProjectCommand {
		t.Errorf("compensation command = %s, want ConfirmCancelProjectCommand", got)
	}
}

func TestHandleTimeout_NotExpiredIsNoop(t *testing.T) {
	t.Parallel()

	m := newMemRepos()
	o := newOrchestrator(t, m)
	id := startCreateProject(t, o, m)

	before := len(m.commands(t))
	if err := o.HandleTimeout(context.Background(), id); err != nil {
		t.Fatalf("HandleTimeout error: %v", err)
	}
	if got := m.instance(t, id).Status; got != ports.SagaActive {
		t.Errorf("Status = %s, want still active", got)
	}
	if got := len(m.commands(t)); got != before {
		t.Errorf("commands = %d, want %d", got, before)
	}
}

func TestHandleTimeout_CompensatingResendsSameCommand(t *testing.T) {
	t.Parallel()

	m := newMemRepos()
	o := newOrchestrator(t, m)
	id := startCreateProject(t, o, m)
	ctx := context.Background()

	fail := saga.NewFailureReply(m.lastCommand(t), wire.FailureReplyType, "refused")
	if err := o.HandleReply(ctx, fail); err != nil {
		t.Fatalf("HandleReply error: %v", err)
	}
	first := m.lastCommand(t)

	past := time.Now().Add(-time.Minute)
	m.instance(t, id).Deadline = &past
	if err := o.HandleTimeout(ctx, id); err != nil {
		t.Fatalf("HandleTimeout error: %v", err)
	}

	resent := m.lastCommand(t)
	if resent.Type != first.Type {
		t.Errorf("resent type = %s, want %s", resent.Type, first.Type)
	}
	if resent.CorrelationID != first.CorrelationID {
		t.Error("re-sent compensation must carry the same correlation id")
	}
}

func TestSweeper_HandsExpiredInstancesToOrchestrator(t *testing.T) {
	t.Parallel()

	m := newMemRepos()
	o := newOrchestrator(t, m)
	id := startCreateProject(t, o, m)

	past := time.Now().Add(-time.Minute)
	m.instance(t, id).Deadline = &past

	s := saga.NewSweeper(o, &memUOW{r: m}, slog.New(slog.DiscardHandler), time.Second, 64)
	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep error: %v", err)
	}
	if got := m.instance(t, id).Status; got != ports.SagaCompensating {
		t.Errorf("Status = %s, want compensating after sweep", got)
	}
}
