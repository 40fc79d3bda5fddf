package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/jsamuelsen11/wemeet/internal/domain"
	"github.com/jsamuelsen11/wemeet/internal/domain/project"
	"github.com/jsamuelsen11/wemeet/internal/ports"
)

// TypeCancelProject names the saga coordinating project cancellation with
// the team service.
const TypeCancelProject = "CancelProject"

// cancelProjectSaga drives: cancel team -> confirm local cancellation. The
// local cancel() transition into CANCEL_PENDING happens in the triggering
// transaction; if the team cancellation fails, step 0's compensation returns
// the project to POSTED.
type cancelProjectSaga struct {
	timeout time.Duration
}

// NewCancelProjectSaga builds the CancelProject definition with the given
// per-step reply timeout.
func NewCancelProjectSaga(timeout time.Duration) Definition {
	return &cancelProjectSaga{timeout: timeout}
}

func (s *cancelProjectSaga) Type() string               { return TypeCancelProject }
func (s *cancelProjectSaga) NewState() any              { return &CancelProjectState{} }
func (s *cancelProjectSaga) StepTimeout() time.Duration { return s.timeout }

func (s *cancelProjectSaga) state(v any) (*CancelProjectState, error) {
	st, ok := v.(*CancelProjectState)
	if !ok {
		return nil, stateErr(TypeCancelProject, fmt.Errorf("unexpected state type %T", v))
	}
	return st, nil
}

func (s *cancelProjectSaga) Steps() []Step {
	return []Step{
		{
			Name: "cancel-project",
			CompensationLocal: func(ctx context.Context, r ports.Repos, v any) error {
				st, err := s.state(v)
				if err != nil {
					return err
				}
				return UpdateProject(ctx, r, st.ProjectID, func(p *project.Project) ([]domain.Event, error) {
					return p.Undo()
				})
			},
		},
		{
			Name: "cancel-team",
			Command: func(v any) (CommandSpec, error) {
				st, err := s.state(v)
				if err != nil {
					return CommandSpec{}, err
				}
				return st.MakeCancelTeamCommand(), nil
			},
		},
		{
			Name: "confirm-cancel",
			Local: func(ctx context.Context, r ports.Repos, v any) error {
				st, err := s.state(v)
				if err != nil {
					return err
				}
				return UpdateProject(ctx, r, st.ProjectID, func(p *project.Project) ([]domain.Event, error) {
					return p.Cancelled()
				})
			},
		},
	}
}
