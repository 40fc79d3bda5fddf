// Package handlers provides HTTP request handlers for the service's API endpoints.
package handlers

import (
	"context"
	"net/http"

	"github.com/jsamuelsen11/wemeet/internal/adapters/http/dto"
	"github.com/jsamuelsen11/wemeet/internal/ports"
)

// ProjectHandler handles HTTP requests for the project aggregate's lifecycle
// operations.
type ProjectHandler struct {
	svc ports.ProjectService
}

// NewProjectHandler creates a new ProjectHandler with the given service port.
func NewProjectHandler(svc ports.ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

// ListProjects handles GET /api/v1/projects.
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProjectFilter(r)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	projects, err := h.svc.List(r.Context(), filter)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToProjectListResponse(projects))
}

// CreateProject handles POST /api/v1/projects. The project is created in its
// pending state; team and board registration complete asynchronously.
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProjectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.svc.Create(r.Context(), req.ToPort())
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToProjectResponse(created))
}

// GetProject handles GET /api/v1/projects/{id}.
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	p, err := h.svc.Find(r.Context(), id)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToProjectResponse(p))
}

// CancelProject handles POST /api/v1/projects/{id}/cancel.
func (h *ProjectHandler) CancelProject(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "cancel", h.svc.Cancel)
}

// CloseProject handles POST /api/v1/projects/{id}/close.
func (h *ProjectHandler) CloseProject(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "close", h.svc.Close)
}

// ReviseProject handles POST /api/v1/projects/{id}/revise. It takes a posted
// project into revision; the revision content follows via PATCH.
func (h *ProjectHandler) ReviseProject(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "revise", h.svc.Revise)
}

// ApplyRevision handles PATCH /api/v1/projects/{id}. It applies the revision
// and returns the project to its posted state.
func (h *ProjectHandler) ApplyRevision(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	var req dto.ReviseProjectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ok, err := h.svc.Revised(r.Context(), id, req.ToRevision())
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	if !ok {
		writeTransitionConflict(w, r, "revision")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ApproveProject handles POST /api/v1/projects/{id}/approve. Approval of a
// closed project starts the class provisioning flow.
func (h *ProjectHandler) ApproveProject(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.svc.Approve)
}

// RejectProject handles POST /api/v1/projects/{id}/reject.
func (h *ProjectHandler) RejectProject(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.svc.Reject)
}

// UndoProject handles POST /api/v1/projects/{id}/undo. It returns a pending
// project to its posted state.
func (h *ProjectHandler) UndoProject(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.svc.Undo)
}

// toggle runs a state-toggle operation. A refused transition maps to 409.
func (h *ProjectHandler) toggle(
	w http.ResponseWriter,
	r *http.Request,
	operation string,
	fn func(ctx context.Context, id int64) (bool, error),
) {
	id, err := parseID(r, "id")
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	ok, err := fn(r.Context(), id)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	if !ok {
		writeTransitionConflict(w, r, operation)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// apply runs an error-only lifecycle operation.
func (h *ProjectHandler) apply(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id int64) error,
) {
	id, err := parseID(r, "id")
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	if err := fn(r.Context(), id); err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
