package project_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jsamuelsen11/wemeet/internal/domain"
	"github.com/jsamuelsen11/wemeet/internal/domain/board"
	"github.com/jsamuelsen11/wemeet/internal/domain/project"
)

func newProject(t *testing.T, state project.State) *project.Project {
	t.Helper()
	p := project.New(true, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	p.ID = 1
	p.State = state
	return p
}

func TestNew_InitialState(t *testing.T) {
	t.Parallel()

	lastDate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := project.New(true, lastDate)

	if p.State != project.StatePostPending {
		t.Errorf("State = %q, want %q", p.State, project.StatePostPending)
	}
	if !p.IsPublic {
		t.Error("IsPublic = false, want true")
	}
	if !p.LastDate.Equal(lastDate) {
		t.Errorf("LastDate = %v, want %v", p.LastDate, lastDate)
	}
	if p.TeamID != nil || p.BoardID != nil || p.WeClassID != nil {
		t.Error("foreign references must start nil")
	}
}

// operations maps operation names to invocations, so legality can be checked
// for every state and operation pair.
var operations = map[string]func(p *project.Project) error{
	"revise":    func(p *project.Project) error { _, err := p.Revise(); return err },
	"revised":   func(p *project.Project) error { _, err := p.Revised(project.Revision{}); return err },
	"cancel":    func(p *project.Project) error { _, err := p.Cancel(); return err },
	"undo":      func(p *project.Project) error { _, err := p.Undo(); return err },
	"cancelled": func(p *project.Project) error { _, err := p.Cancelled(); return err },
	"close":     func(p *project.Project) error { _, err := p.Close(); return err },
	"reject":    func(p *project.Project) error { _, err := p.Reject(); return err },
	"start":     func(p *project.Project) error { _, err := p.Start(); return err },
	"registerTeam": func(p *project.Project) error {
		return p.RegisterTeam(10, "leader")
	},
	"registerBoard": func(p *project.Project) error {
		return p.RegisterBoard(99, board.Detail{Writer: "leader", Subject: "s", Content: "c", Category: board.CategoryRecruit})
	},
	"registerWeClass": func(p *project.Project) error {
		return p.RegisterWeClass(7)
	},
}

// legal lists, per state, the operations that must succeed. Everything not
// listed must fail with domain.ErrTransition and leave the aggregate
// unmutated.
var legal = map[project.State][]string{
	project.StatePostPending:     {"undo", "cancelled", "registerTeam", "registerBoard"},
	project.StatePosted:          {"revise", "cancel", "close"},
	project.StateRevisionPending: {"revised", "undo"},
	project.StateCancelPending:   {"undo", "cancelled"},
	project.StateClosed:          {"reject", "start", "registerWeClass"},
	project.StateCancelled:       {},
	project.StateRejected:        {},
	project.StateStarted:         {},
}

func isLegal(state project.State, op string) bool {
	for _, l := range legal[state] {
		if l == op {
			return true
		}
	}
	return false
}

func TestTransitionGrid(t *testing.T) {
	t.Parallel()

	states := []project.State{
		project.StatePostPending, project.StatePosted, project.StateRevisionPending,
		project.StateCancelPending, project.StateClosed, project.StateCancelled,
		project.StateRejected, project.StateStarted,
	}

	for _, state := range states {
		for name, op := range operations {
			p := newProject(t, state)
			err := op(p)

			if isLegal(state, name) {
				if err != nil {
					t.Errorf("%s in %s: unexpected error %v", name, state, err)
				}
				continue
			}

			if !errors.Is(err, domain.ErrTransition) {
				t.Errorf("%s in %s: error = %v, want ErrTransition", name, state, err)
			}
			if p.State != state {
				t.Errorf("%s in %s: state mutated to %s after illegal operation", name, state, p.State)
			}
			if p.TeamID != nil || p.BoardID != nil || p.WeClassID != nil {
				t.Errorf("%s in %s: foreign reference set after illegal operation", name, state)
			}
		}
	}
}

func TestTransitionTargets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from project.State
		op   string
		want project.State
	}{
		{"revise moves to revision pending", project.StatePosted, "revise", project.StateRevisionPending},
		{"revised returns to posted", project.StateRevisionPending, "revised", project.StatePosted},
		{"cancel moves to cancel pending", project.StatePosted, "cancel", project.StateCancelPending},
		{"undo from cancel pending", project.StateCancelPending, "undo", project.StatePosted},
		{"undo from post pending", project.StatePostPending, "undo", project.StatePosted},
		{"undo from revision pending", project.StateRevisionPending, "undo", project.StatePosted},
		{"cancelled from cancel pending", project.StateCancelPending, "cancelled", project.StateCancelled},
		{"cancelled from post pending", project.StatePostPending, "cancelled", project.StateCancelled},
		{"close moves to closed", project.StatePosted, "close", project.StateClosed},
		{"reject moves to rejected", project.StateClosed, "reject", project.StateRejected},
		{"start moves to started", project.StateClosed, "start", project.StateStarted},
		{"registerTeam keeps state", project.StatePostPending, "registerTeam", project.StatePostPending},
		{"registerBoard keeps state", project.StatePostPending, "registerBoard", project.StatePostPending},
		{"registerWeClass keeps state", project.StateClosed, "registerWeClass", project.StateClosed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := newProject(t, tc.from)
			if err := operations[tc.op](p); err != nil {
				t.Fatalf("%s error: %v", tc.op, err)
			}
			if p.State != tc.want {
				t.Errorf("state = %s, want %s", p.State, tc.want)
			}
		})
	}
}

func TestRegisterTeam(t *testing.T) {
	t.Parallel()

	p := newProject(t, project.StatePostPending)
	if err := p.RegisterTeam(10, "leader"); err != nil {
		t.Fatalf("RegisterTeam error: %v", err)
	}

	if p.TeamID == nil || *p.TeamID != 10 {
		t.Errorf("TeamID = %v, want 10", p.TeamID)
	}
	if !p.HasMember("leader") {
		t.Error("registering user must become a member")
	}

	// Registering again with the same member does not duplicate membership.
	p2 := newProject(t, project.StatePostPending)
	p2.Members = []string{"leader"}
	if err := p2.RegisterTeam(10, "leader"); err != nil {
		t.Fatalf("RegisterTeam error: %v", err)
	}
	if len(p2.Members) != 1 {
		t.Errorf("Members = %v, want single entry", p2.Members)
	}
}

func TestRegisterBoard(t *testing.T) {
	t.Parallel()

	detail := board.Detail{
		Writer:   "leader",
		Subject:  "study group",
		Content:  "weekly algorithm study",
		Category: board.CategoryRecruit,
	}

	p := newProject(t, project.StatePostPending)
	if err := p.RegisterBoard(99, detail); err != nil {
		t.Fatalf("RegisterBoard error: %v", err)
	}

	if p.BoardID == nil || *p.BoardID != 99 {
		t.Errorf("BoardID = %v, want 99", p.BoardID)
	}
	if p.Writer != "leader" {
		t.Errorf("Writer = %q, want %q", p.Writer, "leader")
	}
	if p.Board == nil {
		t.Fatal("Board snapshot is nil")
	}
	if p.Board.Subject != "study group" || p.Board.Category != board.CategoryRecruit {
		t.Errorf("Board snapshot = %+v, want subject/category copied", p.Board)
	}
	if !p.IsWriter("leader") {
		t.Error("IsWriter(leader) = false, want true")
	}
}

func TestMembership(t *testing.T) {
	t.Parallel()

	p := newProject(t, project.StatePostPending)

	if err := p.AddMember("alice"); err != nil {
		t.Fatalf("AddMember error: %v", err)
	}
	if err := p.AddMember("alice"); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate AddMember error = %v, want ErrConflict", err)
	}

	p.RemoveMember("alice")
	if p.HasMember("alice") {
		t.Error("HasMember after RemoveMember = true, want false")
	}

	// Removing an absent member is a no-op.
	p.RemoveMember("bob")
}

func TestRevised_AppliesRevision(t *testing.T) {
	t.Parallel()

	original := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	revised := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	p := newProject(t, project.StateRevisionPending)
	p.LastDate = original

	if _, err := p.Revised(project.Revision{IsPublic: false, LastDate: revised}); err != nil {
		t.Fatalf("Revised error: %v", err)
	}
	if p.IsPublic {
		t.Error("IsPublic = true, want false after revision")
	}
	if !p.LastDate.Equal(revised) {
		t.Errorf("LastDate = %v, want %v", p.LastDate, revised)
	}

	// A zero LastDate in the revision keeps the existing deadline.
	p.State = project.StateRevisionPending
	if _, err := p.Revised(project.Revision{IsPublic: true}); err != nil {
		t.Fatalf("Revised error: %v", err)
	}
	if !p.LastDate.Equal(revised) {
		t.Errorf("LastDate = %v, want unchanged %v", p.LastDate, revised)
	}
}

func TestLifecycleEvents(t *testing.T) {
	t.Parallel()

	p := newProject(t, project.StateCancelPending)
	p.Members = []string{"alice", "bob"}

	events, err := p.Cancelled()
	if err != nil {
		t.Fatalf("Cancelled error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Cancelled events = %d, want 1", len(events))
	}
	if events[0].EventType() != "ProjectCancelled" {
		t.Errorf("EventType = %q, want ProjectCancelled", events[0].EventType())
	}
	if events[0].AggregateType() != project.AggregateType || events[0].AggregateID() != 1 {
		t.Errorf("aggregate ref = %s/%d, want project/1",
			events[0].AggregateType(), events[0].AggregateID())
	}

	p = newProject(t, project.StateClosed)
	events, err = p.Start()
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if len(events) != 1 || events[0].EventType() != "ProjectStarted" {
		t.Errorf("Start events = %v, want single ProjectStarted", events)
	}

	p = newProject(t, project.StateClosed)
	events, err = p.Reject()
	if err != nil {
		t.Fatalf("Reject error: %v", err)
	}
	if len(events) != 1 || events[0].EventType() != "ProjectRejected" {
		t.Errorf("Reject events = %v, want single ProjectRejected", events)
	}
}

// TestCreationFlow replays the registrations that complete a newly posted
// project: the team and board are recorded while pending, then the project
// moves to POSTED.
func TestCreationFlow(t *testing.T) {
	t.Parallel()

	p := project.New(true, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	p.ID = 1

	if err := p.RegisterTeam(10, "leader"); err != nil {
		t.Fatalf("RegisterTeam error: %v", err)
	}
	if err := p.RegisterBoard(99, board.Detail{
		Writer: "leader", Subject: "s", Content: "c", Category: board.CategoryRecruit,
	}); err != nil {
		t.Fatalf("RegisterBoard error: %v", err)
	}
	if _, err := p.Undo(); err != nil {
		t.Fatalf("Undo error: %v", err)
	}

	if p.State != project.StatePosted {
		t.Errorf("State = %s, want POSTED", p.State)
	}
	if p.TeamID == nil || *p.TeamID != 10 {
		t.Errorf("TeamID = %v, want 10", p.TeamID)
	}
	if p.BoardID == nil || *p.BoardID != 99 {
		t.Errorf("BoardID = %v, want 99", p.BoardID)
	}
	if p.Writer != "leader" || !p.HasMember("leader") {
		t.Error("leader must be recorded as writer and member")
	}
}
