package saga

import (
	"encoding/json"
	"fmt"
	"time"
)

// TypeCreateProject names the saga coordinating project creation across the
// team and board services.
const TypeCreateProject = "CreateProject"

// createProjectSaga drives: create team -> create board -> register board ->
// register team. The project itself is created in POST_PENDING inside the
// triggering transaction; step 0 exists only so its compensation (confirm
// cancel) unwinds last. Team and board creations are reversed by delete
// commands when a later step fails.
type createProjectSaga struct {
	timeout time.Duration
}

// NewCreateProjectSaga builds the CreateProject definition with the given
// per-step reply timeout.
func NewCreateProjectSaga(timeout time.Duration) Definition {
	return &createProjectSaga{timeout: timeout}
}

func (s *createProjectSaga) Type() string               { return TypeCreateProject }
func (s *createProjectSaga) NewState() any              { return &CreateProjectState{} }
func (s *createProjectSaga) StepTimeout() time.Duration { return s.timeout }

func (s *createProjectSaga) state(v any) (*CreateProjectState, error) {
	st, ok := v.(*CreateProjectState)
	if !ok {
		return nil, stateErr(TypeCreateProject, fmt.Errorf("unexpected state type %T", v))
	}
	return st, nil
}

func (s *createProjectSaga) Steps() []Step {
	return []Step{
		{
			Name: "create-project",
			Compensation: func(v any) (CommandSpec, error) {
				st, err := s.state(v)
				if err != nil {
					return CommandSpec{}, err
				}
				return st.MakeConfirmCancelCommand(), nil
			},
		},
		{
			Name: "create-team",
			Command: func(v any) (CommandSpec, error) {
				st, err := s.state(v)
				if err != nil {
					return CommandSpec{}, err
				}
				return st.MakeCreateTeamCommand(), nil
			},
			OnReply: func(v any, reply Reply) error {
				st, err := s.state(v)
				if err != nil {
					return err
				}
				var r struct {
					TeamID int64 `json:"teamId"`
				}
				if err := json.Unmarshal(reply.Payload, &r); err != nil {
					return stateErr(TypeCreateProject, fmt.Errorf("decoding create-team reply: %w", err))
				}
				st.TeamID = r.TeamID
				return nil
			},
			Compensation: func(v any) (CommandSpec, error) {
				st, err := s.state(v)
				if err != nil {
					return CommandSpec{}, err
				}
				return st.MakeDeleteTeamCommand(), nil
			},
		},
		{
			Name: "create-board",
			Command: func(v any) (CommandSpec, error) {
				st, err := s.state(v)
				if err != nil {
					return CommandSpec{}, err
				}
				return st.MakeCreateBoardCommand(), nil
			},
			OnReply: func(v any, reply Reply) error {
				st, err := s.state(v)
				if err != nil {
					return err
				}
				var r struct {
					BoardID int64 `json:"boardId"`
				}
				if err := json.Unmarshal(reply.Payload, &r); err != nil {
					return stateErr(TypeCreateProject, fmt.Errorf("decoding create-board reply: %w", err))
				}
				st.BoardID = r.BoardID
				return nil
			},
			Compensation: func(v any) (CommandSpec, error) {
				st, err := s.state(v)
				if err != nil {
					return CommandSpec{}, err
				}
				return st.MakeDeleteBoardCommand(), nil
			},
		},
		{
			Name: "register-board",
			Command: func(v any) (CommandSpec, error) {
				st, err := s.state(v)
				if err != nil {
					return CommandSpec{}, err
				}
				return st.MakeRegisterBoardCommand(), nil
			},
		},
		{
			Name: "register-team",
			Command: func(v any) (CommandSpec, error) {
				st, err := s.state(v)
				if err != nil {
					return CommandSpec{}, err
				}
				return st.MakeRegisterTeamCommand(), nil
			},
		},
	}
}
