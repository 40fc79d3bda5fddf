package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jsamuelsen11/wemeet/internal/domain"
	"github.com/jsamuelsen11/wemeet/internal/domain/team"
)

type teamStore struct {
	tx *sql.Tx
}

const teamColumns = `id, project_id, leader, min_size, max_size, state, members,
version, created_at, updated_at`

func (s *teamStore) FindByID(ctx context.Context, id int64) (*team.Team, error) {
	row := s.tx.QueryRowContext(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE id = ?`, id)
	t, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("team %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find team %d: %w", id, err)
	}
	return t, nil
}

func (s *teamStore) FindByProjectID(ctx context.Context, projectID int64) (*team.Team, error) {
	row := s.tx.QueryRowContext(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE project_id = ? ORDER BY id DESC LIMIT 1`, projectID)
	t, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("team for project %d: %w", projectID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find team for project %d: %w", projectID, err)
	}
	return t, nil
}

func (s *teamStore) Create(ctx context.Context, t *team.Team) error {
	members, err := json.Marshal(t.Members)
	if err != nil {
		return fmt.Errorf("encode team members: %w", err)
	}

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Version = 1

	res, err := s.tx.ExecContext(ctx, `
INSERT INTO teams (project_id, leader, min_size, max_size, state, members,
    version, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ProjectID,
		t.Leader,
		t.MinSize,
		t.MaxSize,
		string(t.State),
		string(members),
		t.Version,
		toMillis(t.CreatedAt),
		toMillis(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert team: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert team id: %w", err)
	}
	return nil
}

func (s *teamStore) Save(ctx context.Context, t *team.Team) error {
	members, err := json.Marshal(t.Members)
	if err != nil {
		return fmt.Errorf("encode team members: %w", err)
	}

	t.UpdatedAt = time.Now().UTC()

	res, err := s.tx.ExecContext(ctx, `
UPDATE teams
SET state = ?, members = ?, version = version + 1, updated_at = ?
WHERE id = ? AND version = ?`,
		string(t.State),
		string(members),
		toMillis(t.UpdatedAt),
		t.ID,
		t.Version,
	)
	if err != nil {
		return fmt.Errorf("update team %d: %w", t.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update team %d: %w", t.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("team %d version %d: %w", t.ID, t.Version, domain.ErrConflict)
	}
	t.Version++
	return nil
}

func scanTeam(row rowScanner) (*team.Team, error) {
	var (
		t         team.Team
		state     string
		members   string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Leader, &t.MinSize, &t.MaxSize,
		&state, &members, &t.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	t.State = team.State(state)
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	if err := json.Unmarshal([]byte(members), &t.Members); err != nil {
		return nil, fmt.Errorf("decode team members: %w", err)
	}
	return &t, nil
}
