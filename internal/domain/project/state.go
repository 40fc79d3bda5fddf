package project

// State represents the lifecycle state of a Project. It is the single source
// of truth for which operations are legal.
type State string

const (
	StatePostPending     State = "POST_PENDING"
	StatePosted          State = "POSTED"
	StateRevisionPending State = "REVISION_PENDING"
	StateCancelPending   State = "CANCEL_PENDING"
	StateCancelled       State = "CANCELLED"
	StateClosed          State = "CLOSED"
	StateRejected        State = "REJECTED"
	StateStarted         State = "STARTED"
)

// IsValid returns true if the state is one of the defined constants.
func (s State) IsValid() bool {
	switch s {
	case StatePostPending, StatePosted, StateRevisionPending, StateCancelPending,
		StateCancelled, StateClosed, StateRejected, StateStarted:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for states with no outgoing transitions.
func (s State) IsTerminal() bool {
	switch s {
	case StateCancelled, StateRejected, StateStarted:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (s State) String() string {
	return string(s)
}

// Operation names a Project transition operation.
type Operation string

const (
	OpRevise          Operation = "revise"
	OpRevised         Operation = "revised"
	OpCancel          Operation = "cancel"
	OpUndo            Operation = "undoCancelOrPostedOrRevision"
	OpCancelled       Operation = "cancelled"
	OpClose           Operation = "close"
	OpReject          Operation = "reject"
	OpStart           Operation = "start"
	OpRegisterTeam    Operation = "registerTeam"
	OpRegisterBoard   Operation = "registerBoard"
	OpRegisterWeClass Operation = "registerWeClass"
)

// stateUnchanged marks table entries whose operation mutates fields without
// moving the aggregate to a new state.
const stateUnchanged = State("")

// transition describes one row of the Project transition table: the legal
// source states for an operation and the destination state.
type transition struct {
	sources []State
	target  State
}

// transitions is the fixed transition table. All operation legality checks
// dispatch through this table; the per-operation methods only apply field
// mutations and build events once the table has admitted the transition.
var transitions = map[Operation]transition{
	OpRevise:          {sources: []State{StatePosted}, target: StateRevisionPending},
	OpRevised:         {sources: []State{StateRevisionPending}, target: StatePosted},
	OpCancel:          {sources: []State{StatePosted}, target: StateCancelPending},
	OpUndo:            {sources: []State{StateCancelPending, StatePostPending, StateRevisionPending}, target: StatePosted},
	OpCancelled:       {sources: []State{StateCancelPending, StatePostPending}, target: StateCancelled},
	OpClose:           {sources: []State{StatePosted}, target: StateClosed},
	OpReject:          {sources: []State{StateClosed}, target: StateRejected},
	OpStart:           {sources: []State{StateClosed}, target: StateStarted},
	OpRegisterTeam:    {sources: []State{StatePostPending}, target: stateUnchanged},
	OpRegisterBoard:   {sources: []State{StatePostPending}, target: stateUnchanged},
	OpRegisterWeClass: {sources: []State{StateClosed}, target: stateUnchanged},
}
