package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen11/wemeet/internal/domain"
	"github.com/jsamuelsen11/wemeet/internal/ports"
)

type sagaStore struct {
	tx *sql.Tx
}

func (s *sagaStore) Insert(ctx context.Context, inst *ports.SagaInstance) error {
	_, err := s.tx.ExecContext(ctx, `
INSERT INTO saga_instances (id, type, status, step, comp_step, data, deadline, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inst.ID.String(),
		inst.Type,
		inst.Status,
		inst.Step,
		inst.CompStep,
		string(inst.Data),
		toNullMillis(inst.Deadline),
		toMillis(inst.CreatedAt),
		toMillis(inst.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert saga %s: %w", inst.ID, err)
	}
	return nil
}

func (s *sagaStore) Get(ctx context.Context, id uuid.UUID) (*ports.SagaInstance, error) {
	var (
		inst      ports.SagaInstance
		rawID     string
		data      string
		deadline  sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	err := s.tx.QueryRowContext(ctx, `
SELECT id, type, status, step, comp_step, data, deadline, created_at, updated_at
FROM saga_instances WHERE id = ?`, id.String()).
		Scan(&rawID, &inst.Type, &inst.Status, &inst.Step, &inst.CompStep,
			&data, &deadline, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("saga %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get saga %s: %w", id, err)
	}

	inst.ID, err = uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse saga id %q: %w", rawID, err)
	}
	inst.Data = []byte(data)
	inst.Deadline = fromNullMillis(deadline)
	inst.CreatedAt = fromMillis(createdAt)
	inst.UpdatedAt = fromMillis(updatedAt)
	return &inst, nil
}

func (s *sagaStore) Update(ctx context.Context, inst *ports.SagaInstance) error {
	res, err := s.tx.ExecContext(ctx, `
UPDATE saga_instances
SET status = ?, step = ?, comp_step = ?, data = ?, deadline = ?, updated_at = ?
WHERE id = ?`,
		inst.Status,
		inst.Step,
		inst.CompStep,
		string(inst.Data),
		toNullMillis(inst.Deadline),
		toMillis(inst.UpdatedAt),
		inst.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update saga %s: %w", inst.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update saga %s: %w", inst.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("saga %s: %w", inst.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *sagaStore) ListExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := s.tx.QueryContext(ctx, `
SELECT id FROM saga_instances
WHERE deadline IS NOT NULL AND deadline <= ? AND status IN (?, ?)
ORDER BY deadline
LIMIT ?`,
		toMillis(now), ports.SagaActive, ports.SagaCompensating, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired sagas: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan expired saga id: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse saga id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired sagas: %w", err)
	}
	return ids, nil
}
