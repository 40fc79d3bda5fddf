package dto

import (
	"time"

	"github.com/jsamuelsen11/wemeet/internal/domain"
	"github.com/jsamuelsen11/wemeet/internal/domain/board"
	"github.com/jsamuelsen11/wemeet/internal/domain/project"
	"github.com/jsamuelsen11/wemeet/internal/ports"
)

const (
	msgRequired = "is required"

	lastDateLayout = "2006-01-02"
)

// BoardDetailRequest is the board posting embedded in a create-project body.
type BoardDetailRequest struct {
	Subject  string   `json:"subject"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Images   []string `json:"images,omitempty"`
}

// ToDomain converts the request fields to a board.Detail. The writer is taken
// from the enclosing request's username, not from the board body.
func (r *BoardDetailRequest) ToDomain(writer string) board.Detail {
	return board.Detail{
		Writer:   writer,
		Subject:  r.Subject,
		Content:  r.Content,
		Category: board.Category(r.Category),
		Images:   r.Images,
	}
}

// CreateProjectRequest represents the JSON body for posting a new project.
type CreateProjectRequest struct {
	Username    string             `json:"username"`
	MinSize     int                `json:"min_size"`
	MaxSize     int                `json:"max_size"`
	IsPublic    bool               `json:"is_public"`
	LastDate    string             `json:"last_date"`
	BoardDetail BoardDetailRequest `json:"board_detail"`
}

// Validate checks that required fields are present. Semantic rules (size
// bounds, date parsing, board content) are enforced by the application layer.
// Returns a *domain.ValidationError if any checks fail.
func (r *CreateProjectRequest) Validate() error {
	fields := make(map[string]string)

	if r.Username == "" {
		fields["username"] = msgRequired
	}
	if r.LastDate == "" {
		fields["last_date"] = msgRequired
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// ToPort maps the request to the application service's input type.
func (r *CreateProjectRequest) ToPort() ports.CreateProjectRequest {
	return ports.CreateProjectRequest{
		Username:    r.Username,
		MinSize:     r.MinSize,
		MaxSize:     r.MaxSize,
		IsPublic:    r.IsPublic,
		LastDate:    r.LastDate,
		BoardDetail: r.BoardDetail.ToDomain(r.Username),
	}
}

// ReviseProjectRequest represents the JSON body for revising a posted project.
type ReviseProjectRequest struct {
	IsPublic bool   `json:"is_public"`
	LastDate string `json:"last_date"`
}

// Validate checks that the recruiting deadline is present and well-formed.
// Returns a *domain.ValidationError if any checks fail.
func (r *ReviseProjectRequest) Validate() error {
	fields := make(map[string]string)

	if r.LastDate == "" {
		fields["last_date"] = msgRequired
	} else if _, err := time.Parse(lastDateLayout, r.LastDate); err != nil {
		fields["last_date"] = "must be formatted as " + lastDateLayout
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// ToRevision converts the validated request to a domain Revision.
func (r *ReviseProjectRequest) ToRevision() project.Revision {
	lastDate, _ := time.Parse(lastDateLayout, r.LastDate)
	return project.Revision{
		IsPublic: r.IsPublic,
		LastDate: lastDate,
	}
}

// TeamMemberRequest represents the JSON body for member-level team
// operations (join, accept, reject, quit).
type TeamMemberRequest struct {
	Username string `json:"username"`
}

// Validate checks that required fields are present.
// Returns a *domain.ValidationError if any checks fail.
func (r *TeamMemberRequest) Validate() error {
	if r.Username == "" {
		return &domain.ValidationError{
			Fields: map[string]string{"username": msgRequired},
		}
	}
	return nil
}

// BatchApproveRequest represents the JSON body for approving multiple teams
// in one call.
type BatchApproveRequest struct {
	IDs []int64 `json:"ids"`
}

// Validate checks that at least one team id was provided.
// Returns a *domain.ValidationError if any checks fail.
func (r *BatchApproveRequest) Validate() error {
	if len(r.IDs) == 0 {
		return &domain.ValidationError{
			Fields: map[string]string{"ids": "must contain at least one team id"},
		}
	}
	return nil
}
