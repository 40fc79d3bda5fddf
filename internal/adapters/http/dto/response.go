// Package dto provides HTTP request/response data transfer objects and
// RFC 9457 Problem Details error responses for the inbound HTTP adapter layer.
package dto

import (
	"time"

	"github.com/jsamuelsen11/wemeet/internal/domain/project"
	"github.com/jsamuelsen11/wemeet/internal/domain/team"
	"github.com/jsamuelsen11/wemeet/internal/ports"
)

// BoardSnapshotResponse is the board snapshot embedded in a project response.
type BoardSnapshotResponse struct {
	Writer   string `json:"writer"`
	Subject  string `json:"subject"`
	Category string `json:"category"`
}

// ProjectResponse represents a single project in HTTP responses.
type ProjectResponse struct {
	ID        int64                  `json:"id"`
	State     string                 `json:"state"`
	TeamID    *int64                 `json:"team_id,omitempty"`
	BoardID   *int64                 `json:"board_id,omitempty"`
	WeClassID *int64                 `json:"weclass_id,omitempty"`
	Members   []string               `json:"members"`
	Writer    string                 `json:"writer,omitempty"`
	Board     *BoardSnapshotResponse `json:"board,omitempty"`
	IsPublic  bool                   `json:"is_public"`
	LastDate  string                 `json:"last_date"`
	CreatedAt string                 `json:"created_at"`
	UpdatedAt string                 `json:"updated_at"`
}

// ProjectListResponse represents a list of projects in HTTP responses.
type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
	Count    int               `json:"count"`
}

// ToProjectResponse converts a domain Project aggregate to an HTTP response DTO.
func ToProjectResponse(p *project.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:        p.ID,
		State:     string(p.State),
		TeamID:    p.TeamID,
		BoardID:   p.BoardID,
		WeClassID: p.WeClassID,
		Members:   p.Members,
		Writer:    p.Writer,
		IsPublic:  p.IsPublic,
		LastDate:  p.LastDate.Format("2006-01-02"),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
	if resp.Members == nil {
		resp.Members = []string{}
	}

	if p.Board != nil {
		resp.Board = &BoardSnapshotResponse{
			Writer:   p.Board.Writer,
			Subject:  p.Board.Subject,
			Category: p.Board.Category.String(),
		}
	}

	return resp
}

// ToProjectListResponse converts a slice of domain Project aggregates to an
// HTTP list response DTO.
func ToProjectListResponse(projects []project.Project) ProjectListResponse {
	items := make([]ProjectResponse, len(projects))
	for i := range projects {
		items[i] = ToProjectResponse(&projects[i])
	}
	return ProjectListResponse{
		Projects: items,
		Count:    len(items),
	}
}

// TeamMemberResponse represents a single team member in HTTP responses.
type TeamMemberResponse struct {
	Username string `json:"username"`
	Status   string `json:"status"`
}

// TeamResponse represents a single team in HTTP responses.
type TeamResponse struct {
	ID        int64                `json:"id"`
	ProjectID int64                `json:"project_id"`
	Leader    string               `json:"leader"`
	MinSize   int                  `json:"min_size"`
	MaxSize   int                  `json:"max_size"`
	State     string               `json:"state"`
	Members   []TeamMemberResponse `json:"members"`
	CreatedAt string               `json:"created_at"`
	UpdatedAt string               `json:"updated_at"`
}

// ToTeamResponse converts a domain Team aggregate to an HTTP response DTO.
func ToTeamResponse(t *team.Team) TeamResponse {
	members := make([]TeamMemberResponse, len(t.Members))
	for i, m := range t.Members {
		members[i] = TeamMemberResponse{
			Username: m.Username,
			Status:   string(m.Status),
		}
	}

	return TeamResponse{
		ID:        t.ID,
		ProjectID: t.ProjectID,
		Leader:    t.Leader,
		MinSize:   t.MinSize,
		MaxSize:   t.MaxSize,
		State:     string(t.State),
		Members:   members,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
		UpdatedAt: t.UpdatedAt.Format(time.RFC3339),
	}
}

// BatchApproveResponse represents the result of a batch approval. It includes
// both approved team ids and per-team errors.
type BatchApproveResponse struct {
	Succeeded []int64                 `json:"succeeded"`
	Errors    []BatchApproveErrorItem `json:"errors"`
	Total     int                     `json:"total"`
	Failed    int                     `json:"failed"`
}

// BatchApproveErrorItem represents a single failed approval within a batch.
type BatchApproveErrorItem struct {
	TeamID  int64  `json:"team_id"`
	Message string `json:"message"`
}

// ToBatchApproveResponse converts a ports.BatchResult to an HTTP response DTO.
func ToBatchApproveResponse(result *ports.BatchResult) BatchApproveResponse {
	succeeded := result.Succeeded
	if succeeded == nil {
		succeeded = []int64{}
	}

	errs := make([]BatchApproveErrorItem, len(result.Errors))
	for i, e := range result.Errors {
		errs[i] = BatchApproveErrorItem{
			TeamID:  e.ID,
			Message: e.Err.Error(),
		}
	}

	return BatchApproveResponse{
		Succeeded: succeeded,
		Errors:    errs,
		Total:     len(succeeded) + len(errs),
		Failed:    len(errs),
	}
}
