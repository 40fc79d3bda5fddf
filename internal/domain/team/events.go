package team

// AggregateType is the aggregate name used in event and outbox records.
const AggregateType = "team"

type baseEvent struct {
	ID int64 `json:"teamId"`
}

func (e baseEvent) AggregateType() string { return AggregateType }
func (e baseEvent) AggregateID() int64    { return e.ID }

// MemberJoined is emitted when a user joins a recruiting team.
type MemberJoined struct {
	baseEvent
	Username string `json:"username"`
}

func (MemberJoined) EventType() string { return "TeamMemberJoined" }

// MemberQuit is emitted when a member leaves a recruiting team.
type MemberQuit struct {
	baseEvent
	Username string `json:"username"`
}

func (MemberQuit) EventType() string { return "TeamMemberQuit" }

// Approved is emitted when a team is approved and recruiting ends.
type Approved struct {
	baseEvent
	Members []string `json:"members"`
}

func (Approved) EventType() string { return "TeamApproved" }

// Rejected is emitted when a team is rejected.
type Rejected struct {
	baseEvent
	Members []string `json:"members"`
}

func (Rejected) EventType() string { return "TeamRejected" }
