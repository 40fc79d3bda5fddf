package saga

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jsamuelsen11/wemeet/internal/domain"
	"github.com/jsamuelsen11/wemeet/internal/domain/project"
	"github.com/jsamuelsen11/wemeet/internal/ports"
)

// TypeStartProject names the saga coordinating project start with the class
// service.
const TypeStartProject = "StartProject"

// startProjectSaga drives: create class -> register class -> start. A
// failed class creation rejects the project, ending its lifecycle.
type startProjectSaga struct {
	timeout time.Duration
}

// NewStartProjectSaga builds the StartProject definition with the given
// per-step reply timeout.
func NewStartProjectSaga(timeout time.Duration) Definition {
	return &startProjectSaga{timeout: timeout}
}

func (s *startProjectSaga) Type() string               { return TypeStartProject }
func (s *startProjectSaga) NewState() any              { return &StartProjectState{} }
func (s *startProjectSaga) StepTimeout() time.Duration { return s.timeout }

func (s *startProjectSaga) state(v any) (*StartProjectState, error) {
	st, ok := v.(*StartProjectState)
	if !ok {
		return nil, stateErr(TypeStartProject, fmt.Errorf("unexpected state type %T", v))
	}
	return st, nil
}

func (s *startProjectSaga) Steps() []Step {
	return []Step{
		{
			// Closing the project happened in the transaction that
			// started the saga; this row exists so the unwind can
			// reject it.
			Name: "close-project",
			CompensationLocal: func(ctx context.Context, r ports.Repos, v any) error {
				st, err := s.state(v)
				if err != nil {
					return err
				}
				return UpdateProject(ctx, r, st.ProjectID, func(p *project.Project) ([]domain.Event, error) {
					return p.Reject()
				})
			},
		},
		{
			Name: "create-weclass",
			Command: func(v any) (CommandSpec, error) {
				st, err := s.state(v)
				if err != nil {
					return CommandSpec{}, err
				}
				return st.MakeCreateWeClassCommand(), nil
			},
			OnReply: func(v any, reply Reply) error {
				st, err := s.state(v)
				if err != nil {
					return err
				}
				var r struct {
					WeClassID int64 `json:"weClassId"`
				}
				if err := json.Unmarshal(reply.Payload, &r); err != nil {
					return stateErr(TypeStartProject, fmt.Errorf("decoding create-weclass reply: %w", err))
				}
				st.WeClassID = r.WeClassID
				return nil
			},
		},
		{
			Name: "register-weclass",
			Local: func(ctx context.Context, r ports.Repos, v any) error {
				st, err := s.state(v)
				if err != nil {
					return err
				}
				return UpdateProject(ctx, r, st.ProjectID, func(p *project.Project) ([]domain.Event, error) {
					return nil, p.RegisterWeClass(st.WeClassID)
				})
			},
		},
		{
			Name: "start",
			Local: func(ctx context.Context, r ports.Repos, v any) error {
				st, err := s.state(v)
				if err != nil {
					return err
				}
				return UpdateProject(ctx, r, st.ProjectID, func(p *project.Project) ([]domain.Event, error) {
					return p.Start()
				})
			},
		},
	}
}
