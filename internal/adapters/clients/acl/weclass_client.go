package acl

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jsamuelsen11/wemeet/internal/platform/httpclient"
	"github.com/jsamuelsen11/wemeet/internal/ports"
)

// Compile-time checks that WeClassClient satisfies its ports.
var (
	_ ports.WeClassClient = (*WeClassClient)(nil)
	_ ports.HealthChecker = (*WeClassClient)(nil)
)

// WeClassClient calls the remote class service that provisions the online
// class for an approved project.
type WeClassClient struct {
	req *Requester
}

// NewWeClassClient creates a WeClassClient backed by the given HTTP client.
func NewWeClassClient(client *httpclient.Client, logger *slog.Logger) *WeClassClient {
	return &WeClassClient{req: NewRequester(client, logger)}
}

// createWeClassRequest is the class service's create body. RequestID is the
// caller's idempotency key.
type createWeClassRequest struct {
	RequestID string `json:"request_id"`
	ProjectID int64  `json:"project_id"`
	TeamID    int64  `json:"team_id"`
}

type weClassResponse struct {
	ID int64 `json:"id"`
}

// CreateWeClass provisions a class for the project's team and returns its id.
func (c *WeClassClient) CreateWeClass(ctx context.Context, requestID string, projectID, teamID int64) (int64, error) {
	body := createWeClassRequest{
		RequestID: requestID,
		ProjectID: projectID,
		TeamID:    teamID,
	}

	var resp weClassResponse
	if err := c.req.Do(ctx, http.MethodPost, "/api/v1/weclasses", http.StatusCreated, body, &resp); err != nil {
		return 0, fmt.Errorf("creating class for project %d: %w", projectID, err)
	}
	return resp.ID, nil
}

// Name returns the identifier used when this component is registered with a
// [ports.HealthRegistry].
func (c *WeClassClient) Name() string {
	return "weclass-api"
}

// HealthCheck reports the class service's availability based on the circuit
// breaker state; no network call is made.
func (c *WeClassClient) HealthCheck(_ context.Context) error {
	return breakerHealth(c.Name(), c.req.CircuitBreakerState())
}
