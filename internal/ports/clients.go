package ports

import (
	"context"

	"github.com/jsamuelsen11/wemeet/internal/domain/board"
)

// BoardClient is the outbound port for the remote board service. Create
// calls carry a caller-chosen request id the remote uses as an idempotency
// key, so command redelivery cannot create duplicate boards.
type BoardClient interface {
	// CreateBoard creates a posting and returns its id.
	CreateBoard(ctx context.Context, requestID string, projectID int64, detail board.Detail) (int64, error)

	// DeleteBoard removes a posting. Deleting an already-deleted board is
	// not an error.
	DeleteBoard(ctx context.Context, boardID int64) error
}

// WeClassClient is the outbound port for the remote class service.
type WeClassClient interface {
	// CreateWeClass creates the class for a starting project and returns
	// its id. The request id is an idempotency key.
	CreateWeClass(ctx context.Context, requestID string, projectID, teamID int64) (int64, error)
}
