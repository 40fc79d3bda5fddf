package saga

import (
	"github.com/jsamuelsen11/wemeet/internal/domain/board"
	"github.com/jsamuelsen11/wemeet/internal/domain/project"
	"github.com/jsamuelsen11/wemeet/internal/saga/wire"
)

// CreateProjectState is the accumulator for the CreateProject saga. The
// required fields are fixed at creation; TeamID and BoardID are harvested
// from replies, write-once per step. Every Make* method is a pure function
// of the accumulator.
type CreateProjectState struct {
	ProjectID   int64        `json:"projectId"`
	Username    string       `json:"username"`
	MinSize     int          `json:"minSize"`
	MaxSize     int          `json:"maxSize"`
	BoardDetail board.Detail `json:"boardDetail"`

	TeamID  int64 `json:"teamId,omitempty"`
	BoardID int64 `json:"boardId,omitempty"`
}

// NewCreateProjectState builds the accumulator for a freshly created project.
func NewCreateProjectState(projectID int64, username string, minSize, maxSize int, detail board.Detail) *CreateProjectState {
	return &CreateProjectState{
		ProjectID:   projectID,
		Username:    username,
		MinSize:     minSize,
		MaxSize:     maxSize,
		BoardDetail: detail,
	}
}

// MakeCreateTeamCommand builds the team-creation command for step 1.
func (s *CreateProjectState) MakeCreateTeamCommand() CommandSpec {
	return CommandSpec{
		Type:        wire.CreateTeamCommand,
		Destination: ChannelTeamService,
		Payload: wire.CreateTeam{
			ProjectID: s.ProjectID,
			Username:  s.Username,
			MinSize:   s.MinSize,
			MaxSize:   s.MaxSize,
		},
	}
}

// MakeCreateBoardCommand builds the board-creation command from the stored
// board detail.
func (s *CreateProjectState) MakeCreateBoardCommand() CommandSpec {
	return CommandSpec{
		Type:        wire.CreateBoardCommand,
		Destination: ChannelBoardService,
		Payload: wire.CreateBoard{
			ProjectID: s.ProjectID,
			Writer:    s.BoardDetail.Writer,
			Subject:   s.BoardDetail.Subject,
			Content:   s.BoardDetail.Content,
			Category:  string(s.BoardDetail.Category),
			Images:    s.BoardDetail.Images,
		},
	}
}

// MakeRegisterBoardCommand builds the self-targeted board registration.
func (s *CreateProjectState) MakeRegisterBoardCommand() CommandSpec {
	return CommandSpec{
		Type:        wire.RegisterBoardCommand,
		Destination: ChannelProjectService,
		Payload: wire.RegisterBoard{
			ProjectID:   s.ProjectID,
			BoardID:     s.BoardID,
			BoardDetail: wire.FromBoardDetail(s.BoardDetail),
		},
	}
}

// MakeRegisterTeamCommand builds the self-targeted team registration.
func (s *CreateProjectState) MakeRegisterTeamCommand() CommandSpec {
	return CommandSpec{
		Type:        wire.RegisterTeamCommand,
		Destination: ChannelProjectService,
		Payload: wire.RegisterTeam{
			ProjectID: s.ProjectID,
			Username:  s.Username,
			TeamID:    s.TeamID,
		},
	}
}

// MakeConfirmCancelCommand builds the compensation that reverses the pending
// project.
func (s *CreateProjectState) MakeConfirmCancelCommand() CommandSpec {
	return CommandSpec{
		Type:        wire.ConfirmCancelProjectCommand,
		Destination: ChannelProjectService,
		Payload:     wire.ConfirmCancelProject{ProjectID: s.ProjectID},
	}
}

// MakeDeleteTeamCommand builds the compensation that reverses the created
// team.
func (s *CreateProjectState) MakeDeleteTeamCommand() CommandSpec {
	return CommandSpec{
		Type:        wire.DeleteTeamCommand,
		Destination: ChannelTeamService,
		Payload:     wire.DeleteTeam{TeamID: s.TeamID},
	}
}

// MakeDeleteBoardCommand builds the compensation that reverses the created
// board.
func (s *CreateProjectState) MakeDeleteBoardCommand() CommandSpec {
	return CommandSpec{
		Type:        wire.DeleteBoardCommand,
		Destination: ChannelBoardService,
		Payload:     wire.DeleteBoard{BoardID: s.BoardID},
	}
}

// CancelProjectState is the accumulator for the CancelProject saga.
type CancelProjectState struct {
	ProjectID int64 `json:"projectId"`
	TeamID    int64 `json:"teamId"`
}

// MakeCancelTeamCommand builds the team cancellation for the project's team.
func (s *CancelProjectState) MakeCancelTeamCommand() CommandSpec {
	return CommandSpec{
		Type:        wire.CancelTeamCommand,
		Destination: ChannelTeamService,
		Payload:     wire.CancelTeam{TeamID: s.TeamID},
	}
}

// StartProjectState is the accumulator for the StartProject saga. WeClassID
// is harvested from the class-creation reply.
type StartProjectState struct {
	ProjectID int64 `json:"projectId"`
	TeamID    int64 `json:"teamId"`
	WeClassID int64 `json:"weClassId,omitempty"`
}

// MakeCreateWeClassCommand builds the class-creation command.
func (s *StartProjectState) MakeCreateWeClassCommand() CommandSpec {
	return CommandSpec{
		Type:        wire.CreateWeClassCommand,
		Destination: ChannelWeClassService,
		Payload:     wire.CreateWeClass{ProjectID: s.ProjectID, TeamID: s.TeamID},
	}
}

// ReviseProjectState is the accumulator for the ReviseProject saga, which
// has no remote steps.
type ReviseProjectState struct {
	ProjectID int64            `json:"projectId"`
	Revision  project.Revision `json:"revision"`
}
