package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jsamuelsen11/wemeet/internal/adapters/http/dto"
	"github.com/jsamuelsen11/wemeet/internal/domain"
	"github.com/jsamuelsen11/wemeet/internal/domain/project"
	"github.com/jsamuelsen11/wemeet/internal/ports"
)

// parseID extracts an int64 path parameter from the chi URL params.
func parseID(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &domain.ValidationError{
			Fields: map[string]string{param: "must be a valid integer"},
		}
	}
	return id, nil
}

// parseProjectFilter builds a ProjectFilter from list query parameters.
// Unknown state values are rejected rather than silently matching nothing.
func parseProjectFilter(r *http.Request) (ports.ProjectFilter, error) {
	var filter ports.ProjectFilter

	if raw := r.URL.Query().Get("state"); raw != "" {
		state := project.State(raw)
		if !state.IsValid() {
			return filter, &domain.ValidationError{
				Fields: map[string]string{"state": fmt.Sprintf("invalid: %q", raw)},
			}
		}
		filter.State = state
	}

	if raw := r.URL.Query().Get("is_public"); raw != "" {
		isPublic, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, &domain.ValidationError{
				Fields: map[string]string{"is_public": "must be a boolean"},
			}
		}
		filter.IsPublic = &isPublic
	}

	return filter, nil
}

// writeTransitionConflict reports an operation that the aggregate refused
// because of its current state. Maps to 409 Conflict.
func writeTransitionConflict(w http.ResponseWriter, r *http.Request, operation string) {
	dto.WriteErrorResponse(w, r,
		fmt.Errorf("%s is not allowed in the current state: %w", operation, domain.ErrTransition))
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
	}
}

// maxJSONBodyBytes is the maximum allowed size for a JSON request body (1 MB).
const maxJSONBodyBytes = 1 << 20

// decodeJSONBody decodes the request body as JSON into dst. The body is
// limited to maxJSONBodyBytes to prevent resource exhaustion. On failure,
// it writes a 400 error response and returns false.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		dto.WriteErrorResponse(w, r, &domain.ValidationError{
			Fields: map[string]string{"body": "invalid JSON"},
		})
		return false
	}
	return true
}

// validatable is implemented by request DTOs that support validation.
type validatable interface {
	Validate() error
}

// decodeAndValidate decodes the JSON request body into dst and validates it.
// On decode or validation failure it writes an error response and returns false.
func decodeAndValidate[T validatable](w http.ResponseWriter, r *http.Request, dst T) bool {
	if !decodeJSONBody(w, r, dst) {
		return false
	}
	if err := dst.Validate(); err != nil {
		dto.WriteErrorResponse(w, r, err)
		return false
	}
	return true
}
