// Package team implements the Team aggregate and its state machine.
//
// A Team recruits members for a project. Membership operations are legal only
// while recruiting, and member-targeted operations require the target user to
// currently be a member. Illegal attempts fail without mutation, using the
// same transition-table discipline as the project package.
package team

import (
	"time"

	"github.com/jsamuelsen11/wemeet/internal/domain"
)

// ErrTeamRejected marks an approval attempt on a team that does not meet its
// minimum size. It wraps domain.ErrTransition so generic transition-failure
// handling still applies.
var ErrTeamRejected = domain.NewTransitionError(string(StateRecruiting), string(OpApprove))

// MemberStatus is the per-member approval status within a team.
type MemberStatus string

const (
	MemberPending  MemberStatus = "pending"
	MemberApproved MemberStatus = "approved"
)

// Member is one entry of a team's member list.
type Member struct {
	Username string       `json:"username"`
	Status   MemberStatus `json:"status"`
}

// Team is the aggregate root owned by the team service.
type Team struct {
	ID        int64
	ProjectID int64
	Leader    string
	MinSize   int
	MaxSize   int
	State     State
	Members   []Member
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a recruiting Team led by the given user. The leader is the
// first member and is approved implicitly.
func New(projectID int64, leader string, minSize, maxSize int) (*Team, error) {
	fields := make(map[string]string)
	if leader == "" {
		fields["leader"] = "is required"
	}
	if minSize < 1 {
		fields["minSize"] = "must be at least 1"
	}
	if maxSize < minSize {
		fields["maxSize"] = "must be >= minSize"
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}
	return &Team{
		ProjectID: projectID,
		Leader:    leader,
		MinSize:   minSize,
		MaxSize:   maxSize,
		State:     StateRecruiting,
		Members:   []Member{{Username: leader, Status: MemberApproved}},
	}, nil
}

func (t *Team) apply(op Operation) error {
	tr, ok := transitions[op]
	if !ok {
		return domain.NewTransitionError(string(t.State), string(op))
	}
	for _, src := range tr.sources {
		if t.State == src {
			if tr.target != stateUnchanged {
				t.State = tr.target
			}
			return nil
		}
	}
	return domain.NewTransitionError(string(t.State), string(op))
}

// IsUser reports whether the username is currently a member.
func (t *Team) IsUser(username string) bool {
	return t.memberIndex(username) >= 0
}

// IsLeader reports whether the username leads this team.
func (t *Team) IsLeader(username string) bool {
	return t.Leader == username
}

func (t *Team) memberIndex(username string) int {
	for i, m := range t.Members {
		if m.Username == username {
			return i
		}
	}
	return -1
}

// ApprovedCount returns the number of approved members.
func (t *Team) ApprovedCount() int {
	n := 0
	for _, m := range t.Members {
		if m.Status == MemberApproved {
			n++
		}
	}
	return n
}

// MemberNames returns the usernames of all current members.
func (t *Team) MemberNames() []string {
	names := make([]string, len(t.Members))
	for i, m := range t.Members {
		names[i] = m.Username
	}
	return names
}

// Join adds a user to a recruiting team in pending status.
// Returns domain.ErrConflict if the user is already a member or the team is
// full.
func (t *Team) Join(username string) ([]domain.Event, error) {
	if err := t.apply(OpJoin); err != nil {
		return nil, err
	}
	if t.IsUser(username) {
		return nil, domain.ErrConflict
	}
	if len(t.Members) >= t.MaxSize {
		return nil, domain.ErrConflict
	}
	t.Members = append(t.Members, Member{Username: username, Status: MemberPending})
	return []domain.Event{MemberJoined{baseEvent{ID: t.ID}, username}}, nil
}

// MemberApprove marks a pending member as approved. The target user must
// currently be a member (domain.ErrNotFound otherwise).
func (t *Team) MemberApprove(username string) ([]domain.Event, error) {
	if err := t.apply(OpMemberApprove); err != nil {
		return nil, err
	}
	i := t.memberIndex(username)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	t.Members[i].Status = MemberApproved
	return nil, nil
}

// MemberReject removes a pending member. The target user must currently be a
// member (domain.ErrNotFound otherwise); the leader cannot be rejected.
func (t *Team) MemberReject(username string) ([]domain.Event, error) {
	if err := t.apply(OpMemberReject); err != nil {
		return nil, err
	}
	i := t.memberIndex(username)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	if t.IsLeader(username) {
		return nil, domain.ErrForbidden
	}
	t.Members = append(t.Members[:i], t.Members[i+1:]...)
	return nil, nil
}

// MemberQuit removes a member at their own request. The leader cannot quit.
func (t *Team) MemberQuit(username string) ([]domain.Event, error) {
	if err := t.apply(OpMemberQuit); err != nil {
		return nil, err
	}
	i := t.memberIndex(username)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	if t.IsLeader(username) {
		return nil, domain.ErrForbidden
	}
	t.Members = append(t.Members[:i], t.Members[i+1:]...)
	return []domain.Event{MemberQuit{baseEvent{ID: t.ID}, username}}, nil
}

// Cancel cancels a recruiting team.
func (t *Team) Cancel() ([]domain.Event, error) {
	if err := t.apply(OpCancel); err != nil {
		return nil, err
	}
	return nil, nil
}

// Approve ends recruiting successfully. Fails with ErrTeamRejected when the
// approved member count has not reached the team's minimum size; the team is
// left unmutated in that case.
func (t *Team) Approve() ([]domain.Event, error) {
	if t.State == StateRecruiting && t.ApprovedCount() < t.MinSize {
		return nil, ErrTeamRejected
	}
	if err := t.apply(OpApprove); err != nil {
		return nil, err
	}
	return []domain.Event{Approved{baseEvent{ID: t.ID}, t.MemberNames()}}, nil
}

// Reject ends recruiting unsuccessfully.
func (t *Team) Reject() ([]domain.Event, error) {
	if err := t.apply(OpReject); err != nil {
		return nil, err
	}
	return []domain.Event{Rejected{baseEvent{ID: t.ID}, t.MemberNames()}}, nil
}
