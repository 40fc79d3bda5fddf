// Package project implements the Project aggregate and its state machine.
//
// A Project is created in POST_PENDING and mutated only through named
// transition operations. Every operation is validated against the fixed
// transition table in state.go before any field is touched: an illegal
// invocation returns a *domain.TransitionError and leaves the aggregate
// byte-identical to before the call.
package project

import (
	"time"

	"github.com/jsamuelsen11/wemeet/internal/domain"
	"github.com/jsamuelsen11/wemeet/internal/domain/board"
)

// Project is the aggregate root owned by the project service. TeamID,
// BoardID and WeClassID are foreign references populated as saga steps
// complete; they remain nil until then.
type Project struct {
	ID        int64
	TeamID    *int64
	BoardID   *int64
	WeClassID *int64
	State     State

	// Members holds usernames without meaningful order. Writer tracks the
	// board author explicitly instead of inferring it from member position.
	Members []string
	Writer  string

	// Board is a snapshot copied at registration time, not a live reference
	// to the remote board aggregate.
	Board *board.Snapshot

	IsPublic  bool
	LastDate  time.Time
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Revision carries the fields a posted project may be revised with.
type Revision struct {
	IsPublic bool      `json:"isPublic"`
	LastDate time.Time `json:"lastDate"`
}

// New creates a Project in the initial POST_PENDING state.
func New(isPublic bool, lastDate time.Time) *Project {
	return &Project{
		State:    StatePostPending,
		IsPublic: isPublic,
		LastDate: lastDate,
	}
}

// apply checks op against the transition table and, if legal, moves the
// aggregate to the destination state. It is the only place State is written.
func (p *Project) apply(op Operation) error {
	tr, ok := transitions[op]
	if !ok {
		return domain.NewTransitionError(string(p.State), string(op))
	}
	for _, src := range tr.sources {
		if p.State == src {
			if tr.target != stateUnchanged {
				p.State = tr.target
			}
			return nil
		}
	}
	return domain.NewTransitionError(string(p.State), string(op))
}

// CreatedEvent builds the creation event for a saved project.
func (p *Project) CreatedEvent() domain.Event {
	return newCreated(p.ID)
}

// AddMember adds a username to the membership set.
// Returns domain.ErrConflict if the username is already a member.
func (p *Project) AddMember(username string) error {
	if p.HasMember(username) {
		return domain.ErrConflict
	}
	p.Members = append(p.Members, username)
	return nil
}

// RemoveMember removes a username from the membership set. Absent usernames
// are ignored.
func (p *Project) RemoveMember(username string) {
	for i, m := range p.Members {
		if m == username {
			p.Members = append(p.Members[:i], p.Members[i+1:]...)
			return
		}
	}
}

// HasMember reports whether the username is in the membership set.
func (p *Project) HasMember(username string) bool {
	for _, m := range p.Members {
		if m == username {
			return true
		}
	}
	return false
}

// IsWriter reports whether the username is the board writer.
func (p *Project) IsWriter(username string) bool {
	return p.Writer != "" && p.Writer == username
}

// Revise moves a posted project into REVISION_PENDING.
func (p *Project) Revise() ([]domain.Event, error) {
	if err := p.apply(OpRevise); err != nil {
		return nil, err
	}
	return nil, nil
}

// Revised applies a revision to a project in REVISION_PENDING and returns it
// to POSTED.
func (p *Project) Revised(rev Revision) ([]domain.Event, error) {
	if err := p.apply(OpRevised); err != nil {
		return nil, err
	}
	p.IsPublic = rev.IsPublic
	if !rev.LastDate.IsZero() {
		p.LastDate = rev.LastDate
	}
	return nil, nil
}

// Cancel moves a posted project into CANCEL_PENDING.
func (p *Project) Cancel() ([]domain.Event, error) {
	if err := p.apply(OpCancel); err != nil {
		return nil, err
	}
	return nil, nil
}

// Undo returns a pending project (cancel, post or revision pending) to POSTED.
func (p *Project) Undo() ([]domain.Event, error) {
	if err := p.apply(OpUndo); err != nil {
		return nil, err
	}
	return nil, nil
}

// Cancelled confirms a cancellation, reachable from CANCEL_PENDING or
// POST_PENDING, and emits ProjectCancelled.
func (p *Project) Cancelled() ([]domain.Event, error) {
	if err := p.apply(OpCancelled); err != nil {
		return nil, err
	}
	return []domain.Event{newCancelled(p.ID, p.Members)}, nil
}

// Close moves a posted project to CLOSED.
func (p *Project) Close() ([]domain.Event, error) {
	if err := p.apply(OpClose); err != nil {
		return nil, err
	}
	return nil, nil
}

// Reject rejects a closed project and emits ProjectRejected.
func (p *Project) Reject() ([]domain.Event, error) {
	if err := p.apply(OpReject); err != nil {
		return nil, err
	}
	return []domain.Event{newRejected(p.ID, p.Members)}, nil
}

// Start starts a closed project and emits ProjectStarted.
func (p *Project) Start() ([]domain.Event, error) {
	if err := p.apply(OpStart); err != nil {
		return nil, err
	}
	return []domain.Event{newStarted(p.ID, p.Members)}, nil
}

// RegisterTeam records the team created for this project and adds the
// registering user as a member. Legal only in POST_PENDING; the state is
// unchanged.
func (p *Project) RegisterTeam(teamID int64, username string) error {
	if err := p.apply(OpRegisterTeam); err != nil {
		return err
	}
	p.TeamID = &teamID
	if !p.HasMember(username) {
		p.Members = append(p.Members, username)
	}
	return nil
}

// RegisterBoard records the board created for this project and copies its
// snapshot. The board writer becomes the project's writer. Legal only in
// POST_PENDING; the state is unchanged.
func (p *Project) RegisterBoard(boardID int64, detail board.Detail) error {
	if err := p.apply(OpRegisterBoard); err != nil {
		return err
	}
	snap := board.SnapshotOf(detail)
	p.BoardID = &boardID
	p.Board = &snap
	p.Writer = detail.Writer
	return nil
}

// RegisterWeClass records the class created when a closed project starts.
// Legal only in CLOSED; the state is unchanged.
func (p *Project) RegisterWeClass(weClassID int64) error {
	if err := p.apply(OpRegisterWeClass); err != nil {
		return err
	}
	p.WeClassID = &weClassID
	return nil
}
