// Package wire defines the command and reply payload contracts exchanged
// with saga participants, plus translators between wire and domain
// representations. Handlers and saga states speak these types; the domain
// packages never see them.
package wire

import "github.com/jsamuelsen11/wemeet/internal/domain/board"

// Command type names carried in the commandType field.
const (
	CreateTeamCommand           = "CreateTeamCommand"
	CreateBoardCommand          = "CreateBoardCommand"
	RegisterBoardCommand        = "RegisterBoardCommand"
	RegisterTeamCommand         = "RegisterTeamCommand"
	ConfirmCancelProjectCommand = "ConfirmCancelProjectCommand"
	CancelTeamCommand           = "CancelTeamCommand"
	DeleteTeamCommand           = "DeleteTeamCommand"
	DeleteBoardCommand          = "DeleteBoardCommand"
	CreateWeClassCommand        = "CreateWeClassCommand"
)

// Reply type names carried in the replyType field.
const (
	CreateTeamReplyType    = "CreateTeamReply"
	CreateBoardReplyType   = "CreateBoardReply"
	CreateWeClassReplyType = "CreateWeClassReply"
	SuccessReplyType       = "Success"
	FailureReplyType       = "Failure"
)

// BoardDetail is the wire twin of board.Detail.
type BoardDetail struct {
	Writer   string   `json:"writer"`
	Subject  string   `json:"subject"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Images   []string `json:"images,omitempty"`
}

// ToDomain translates a wire board detail into the domain type.
func (d BoardDetail) ToDomain() board.Detail {
	return board.Detail{
		Writer:   d.Writer,
		Subject:  d.Subject,
		Content:  d.Content,
		Category: board.Category(d.Category),
		Images:   d.Images,
	}
}

// FromBoardDetail translates a domain board detail into its wire twin.
func FromBoardDetail(d board.Detail) BoardDetail {
	return BoardDetail{
		Writer:   d.Writer,
		Subject:  d.Subject,
		Content:  d.Content,
		Category: string(d.Category),
		Images:   d.Images,
	}
}

// CreateTeam asks the team service to create a recruiting team.
type CreateTeam struct {
	ProjectID int64  `json:"projectId"`
	Username  string `json:"username"`
	MinSize   int    `json:"minSize"`
	MaxSize   int    `json:"maxSize"`
}

// CreateTeamReply carries the created team id.
type CreateTeamReply struct {
	TeamID int64 `json:"teamId"`
}

// CreateBoard asks the board service to create the project's board posting.
// The detail fields are flattened onto the command.
type CreateBoard struct {
	ProjectID int64    `json:"projectId"`
	Writer    string   `json:"writer"`
	Subject   string   `json:"subject"`
	Content   string   `json:"content"`
	Category  string   `json:"category"`
	Images    []string `json:"images,omitempty"`
}

// CreateBoardReply carries the created board id.
type CreateBoardReply struct {
	BoardID int64 `json:"boardId"`
}

// RegisterBoard asks the project service to record the created board.
type RegisterBoard struct {
	ProjectID   int64       `json:"projectId"`
	BoardID     int64       `json:"boardId"`
	BoardDetail BoardDetail `json:"boardDetail"`
}

// RegisterTeam asks the project service to record the created team.
type RegisterTeam struct {
	ProjectID int64  `json:"projectId"`
	Username  string `json:"username"`
	TeamID    int64  `json:"teamId"`
}

// ConfirmCancelProject asks the project service to confirm a cancellation,
// reversing a pending project.
type ConfirmCancelProject struct {
	ProjectID int64 `json:"projectId"`
}

// CancelTeam asks the team service to cancel a recruiting team.
type CancelTeam struct {
	TeamID int64 `json:"teamId"`
}

// DeleteTeam compensates an already-created team when a later saga step
// fails. The team service processes it as a cancellation.
type DeleteTeam struct {
	TeamID int64 `json:"teamId"`
}

// DeleteBoard compensates an already-created board when a later saga step
// fails.
type DeleteBoard struct {
	BoardID int64 `json:"boardId"`
}

// CreateWeClass asks the class service to create the class for a starting
// project.
type CreateWeClass struct {
	ProjectID int64 `json:"projectId"`
	TeamID    int64 `json:"teamId"`
}

// CreateWeClassReply carries the created class id.
type CreateWeClassReply struct {
	WeClassID int64 `json:"weClassId"`
}
