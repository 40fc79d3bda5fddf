package team

// State represents the lifecycle state of a Team.
type State string

const (
	StateRecruiting State = "RECRUITING"
	StateCancelled  State = "CANCELLED"
	StateApproved   State = "APPROVED"
	StateRejected   State = "REJECTED"
)

// IsValid returns true if the state is one of the defined constants.
func (s State) IsValid() bool {
	switch s {
	case StateRecruiting, StateCancelled, StateApproved, StateRejected:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (s State) String() string {
	return string(s)
}

// Operation names a Team transition operation.
type Operation string

const (
	OpJoin          Operation = "join"
	OpMemberApprove Operation = "memberApprove"
	OpMemberReject  Operation = "memberReject"
	OpMemberQuit    Operation = "memberQuit"
	OpCancel        Operation = "cancel"
	OpApprove       Operation = "approveTeam"
	OpReject        Operation = "rejectTeam"
)

// stateUnchanged marks table entries whose operation mutates the member list
// without moving the team to a new state.
const stateUnchanged = State("")

type transition struct {
	sources []State
	target  State
}

// transitions is the fixed transition table; operation legality dispatches
// through it exactly as in the project package.
var transitions = map[Operation]transition{
	OpJoin:          {sources: []State{StateRecruiting}, target: stateUnchanged},
	OpMemberApprove: {sources: []State{StateRecruiting}, target: stateUnchanged},
	OpMemberReject:  {sources: []State{StateRecruiting}, target: stateUnchanged},
	OpMemberQuit:    {sources: []State{StateRecruiting}, target: stateUnchanged},
	OpCancel:        {sources: []State{StateRecruiting}, target: StateCancelled},
	OpApprove:       {sources: []State{StateRecruiting}, target: StateApproved},
	OpReject:        {sources: []State{StateRecruiting}, target: StateRejected},
}
