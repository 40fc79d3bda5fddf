package acl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jsamuelsen11/wemeet/internal/domain"
	"github.com/jsamuelsen11/wemeet/internal/domain/board"
	"github.com/jsamuelsen11/wemeet/internal/platform/httpclient"
	"github.com/jsamuelsen11/wemeet/internal/ports"
)

// Compile-time checks that BoardClient satisfies its ports.
var (
	_ ports.BoardClient   = (*BoardClient)(nil)
	_ ports.HealthChecker = (*BoardClient)(nil)
)

// BoardClient calls the remote board service. The board aggregate lives
// there; this client only creates and deletes postings on behalf of the
// project flow.
type BoardClient struct {
	req *Requester
}

// NewBoardClient creates a BoardClient backed by the given HTTP client.
func NewBoardClient(client *httpclient.Client, logger *slog.Logger) *BoardClient {
	return &BoardClient{req: NewRequester(client, logger)}
}

// createBoardRequest is the board service's create-posting body. RequestID
// is the caller's idempotency key; the board service returns the original
// posting for a repeated id instead of creating a second one.
type createBoardRequest struct {
	RequestID string   `json:"request_id"`
	ProjectID int64    `json:"project_id"`
	Writer    string   `json:"writer"`
	Subject   string   `json:"subject"`
	Content   string   `json:"content"`
	Category  string   `json:"category"`
	Images    []string `json:"images,omitempty"`
}

// boardResponse is the subset of the board service's posting representation
// this client consumes.
type boardResponse struct {
	ID int64 `json:"id"`
}

// CreateBoard creates a recruiting posting for the project and returns
// its id.
func (c *BoardClient) CreateBoard(ctx context.Context, requestID string, projectID int64, detail board.Detail) (int64, error) {
	body := createBoardRequest{
		RequestID: requestID,
		ProjectID: projectID,
		Writer:    detail.Writer,
		Subject:   detail.Subject,
		Content:   detail.Content,
		Category:  detail.Category.String(),
		Images:    detail.Images,
	}

	var resp boardResponse
	if err := c.req.Do(ctx, http.MethodPost, "/api/v1/boards", http.StatusCreated, body, &resp); err != nil {
		return 0, fmt.Errorf("creating board for project %d: %w", projectID, err)
	}
	return resp.ID, nil
}

// DeleteBoard removes a posting. A posting that is already gone is not an
// error; the delete is invoked from rollbacks that may run more than once.
func (c *BoardClient) DeleteBoard(ctx context.Context, boardID int64) error {
	path := fmt.Sprintf("/api/v1/boards/%d", boardID)
	err := c.req.Do(ctx, http.MethodDelete, path, http.StatusNoContent, nil, nil)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("deleting board %d: %w", boardID, err)
	}
	return nil
}

// Name returns the identifier used when this component is registered with a
// [ports.HealthRegistry]. The value "board-api" matches the service name used
// by the underlying [httpclient.Client] for tracing and metrics.
func (c *BoardClient) Name() string {
	return "board-api"
}

// HealthCheck reports the board service's availability based on the circuit
// breaker state; no network call is made.
//
// This reports downstream status, not service readiness. The service itself
// stays ready while a downstream is failing; its commands keep retrying
// through the outbox. Tying readiness to downstream health would prevent the
// circuit breaker from ever recovering, because Kubernetes would stop
// routing traffic to this service.
func (c *BoardClient) HealthCheck(_ context.Context) error {
	return breakerHealth(c.Name(), c.req.CircuitBreakerState())
}
