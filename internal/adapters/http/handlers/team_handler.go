package handlers

import (
	"net/http"

	"github.com/jsamuelsen11/wemeet/internal/adapters/http/dto"
	"github.com/jsamuelsen11/wemeet/internal/domain/team"
	"github.com/jsamuelsen11/wemeet/internal/ports"
)

// TeamHandler handles HTTP requests for team recruiting operations.
type TeamHandler struct {
	svc ports.TeamService
}

// NewTeamHandler creates a new TeamHandler with the given service port.
func NewTeamHandler(svc ports.TeamService) *TeamHandler {
	return &TeamHandler{svc: svc}
}

// GetTeam handles GET /api/v1/teams/{id}.
func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	t, err := h.svc.Find(r.Context(), id)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTeamResponse(t))
}

// JoinTeam handles POST /api/v1/teams/{id}/join. The joined member starts
// pending until the leader accepts them.
func (h *TeamHandler) JoinTeam(w http.ResponseWriter, r *http.Request) {
	id, req, ok := h.memberRequest(w, r)
	if !ok {
		return
	}

	t, err := h.svc.Join(r.Context(), id, req.Username)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTeamResponse(t))
}

// AcceptMember handles POST /api/v1/teams/{id}/accept.
func (h *TeamHandler) AcceptMember(w http.ResponseWriter, r *http.Request) {
	id, req, ok := h.memberRequest(w, r)
	if !ok {
		return
	}

	if err := h.svc.Accept(r.Context(), id, req.Username); err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RejectMember handles POST /api/v1/teams/{id}/reject.
func (h *TeamHandler) RejectMember(w http.ResponseWriter, r *http.Request) {
	id, req, ok := h.memberRequest(w, r)
	if !ok {
		return
	}

	if err := h.svc.Reject(r.Context(), id, req.Username); err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// QuitTeam handles POST /api/v1/teams/{id}/quit.
func (h *TeamHandler) QuitTeam(w http.ResponseWriter, r *http.Request) {
	id, req, ok := h.memberRequest(w, r)
	if !ok {
		return
	}

	t, err := h.svc.Quit(r.Context(), id, req.Username)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTeamResponse(t))
}

// CancelTeam handles POST /api/v1/teams/{id}/cancel.
func (h *TeamHandler) CancelTeam(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	ok, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	if !ok {
		writeTransitionConflict(w, r, "cancel")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ApproveTeam handles POST /api/v1/teams/{id}/approve. An approval below the
// team's minimum size is refused with 409.
func (h *TeamHandler) ApproveTeam(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	ok, err := h.svc.Approve(r.Context(), id)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	if !ok {
		dto.WriteErrorResponse(w, r, team.ErrTeamRejected)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BatchApproveTeams handles POST /api/v1/teams/batch-approve. Each id is
// approved independently; failures on some ids do not roll back the others.
func (h *TeamHandler) BatchApproveTeams(w http.ResponseWriter, r *http.Request) {
	var req dto.BatchApproveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.svc.BatchApprove(r.Context(), req.IDs)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToBatchApproveResponse(result))
}

// memberRequest parses the team id and member body shared by the
// member-level operations. Returns false after writing an error response.
func (h *TeamHandler) memberRequest(w http.ResponseWriter, r *http.Request) (int64, *dto.TeamMemberRequest, bool) {
	id, err := parseID(r, "id")
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return 0, nil, false
	}

	var req dto.TeamMemberRequest
	if !decodeAndValidate(w, r, &req) {
		return 0, nil, false
	}

	return id, &req, true
}
