package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/jsamuelsen11/wemeet/internal/domain"
	"github.com/jsamuelsen11/wemeet/internal/domain/project"
	"github.com/jsamuelsen11/wemeet/internal/ports"
)

// TypeReviseProject names the revision saga. It has zero remote steps and
// completes inside the creating transaction; it exists as a saga so revision
// follows the same creation and bookkeeping path as the multi-step flows.
const TypeReviseProject = "ReviseProject"

type reviseProjectSaga struct {
	timeout time.Duration
}

// NewReviseProjectSaga builds the ReviseProject definition.
func NewReviseProjectSaga(timeout time.Duration) Definition {
	return &reviseProjectSaga{timeout: timeout}
}

func (s *reviseProjectSaga) Type() string               { return TypeReviseProject }
func (s *reviseProjectSaga) NewState() any              { return &ReviseProjectState{} }
func (s *reviseProjectSaga) StepTimeout() time.Duration { return s.timeout }

func (s *reviseProjectSaga) Steps() []Step {
	return []Step{
		{
			Name: "revised",
			Local: func(ctx context.Context, r ports.Repos, v any) error {
				st, ok := v.(*ReviseProjectState)
				if !ok {
					return stateErr(TypeReviseProject, fmt.Errorf("unexpected state type %T", v))
				}
				return UpdateProject(ctx, r, st.ProjectID, func(p *project.Project) ([]domain.Event, error) {
					return p.Revised(st.Revision)
				})
			},
		},
	}
}
