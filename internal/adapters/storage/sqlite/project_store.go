package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jsamuelsen11/wemeet/internal/domain"
	"github.com/jsamuelsen11/wemeet/internal/domain/board"
	"github.com/jsamuelsen11/wemeet/internal/domain/project"
	"github.com/jsamuelsen11/wemeet/internal/ports"
)

type projectStore struct {
	tx *sql.Tx
}

const projectColumns = `id, state, team_id, board_id, weclass_id, writer, members,
board_snapshot, is_public, last_date, version, created_at, updated_at`

func (s *projectStore) FindByID(ctx context.Context, id int64) (*project.Project, error) {
	row := s.tx.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find project %d: %w", id, err)
	}
	return p, nil
}

func (s *projectStore) Create(ctx context.Context, p *project.Project) error {
	members, snapshot, err := encodeProject(p)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Version = 1

	res, err := s.tx.ExecContext(ctx, `
INSERT INTO projects (state, team_id, board_id, weclass_id, writer, members,
    board_snapshot, is_public, last_date, version, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(p.State),
		toNullInt64(p.TeamID),
		toNullInt64(p.BoardID),
		toNullInt64(p.WeClassID),
		p.Writer,
		members,
		snapshot,
		p.IsPublic,
		toMillis(p.LastDate),
		p.Version,
		toMillis(p.CreatedAt),
		toMillis(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert project id: %w", err)
	}
	return nil
}

func (s *projectStore) Save(ctx context.Context, p *project.Project) error {
	members, snapshot, err := encodeProject(p)
	if err != nil {
		return err
	}

	p.UpdatedAt = time.Now().UTC()

	res, err := s.tx.ExecContext(ctx, `
UPDATE projects
SET state = ?, team_id = ?, board_id = ?, weclass_id = ?, writer = ?,
    members = ?, board_snapshot = ?, is_public = ?, last_date = ?,
    version = version + 1, updated_at = ?
WHERE id = ? AND version = ?`,
		string(p.State),
		toNullInt64(p.TeamID),
		toNullInt64(p.BoardID),
		toNullInt64(p.WeClassID),
		p.Writer,
		members,
		snapshot,
		p.IsPublic,
		toMillis(p.LastDate),
		toMillis(p.UpdatedAt),
		p.ID,
		p.Version,
	)
	if err != nil {
		return fmt.Errorf("update project %d: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project %d: %w", p.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("project %d version %d: %w", p.ID, p.Version, domain.ErrConflict)
	}
	p.Version++
	return nil
}

func (s *projectStore) List(ctx context.Context, filter ports.ProjectFilter) ([]project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	var conds []string
	var args []any
	if filter.State != "" {
		conds = append(conds, "state = ?")
		args = append(args, string(filter.State))
	}
	if filter.IsPublic != nil {
		conds = append(conds, "is_public = ?")
		args = append(args, *filter.IsPublic)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return out, nil
}

func encodeProject(p *project.Project) (members string, snapshot sql.NullString, err error) {
	m := p.Members
	if m == nil {
		m = []string{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", sql.NullString{}, fmt.Errorf("encode project members: %w", err)
	}
	members = string(data)

	if p.Board != nil {
		data, err := json.Marshal(p.Board)
		if err != nil {
			return "", sql.NullString{}, fmt.Errorf("encode board snapshot: %w", err)
		}
		snapshot = sql.NullString{String: string(data), Valid: true}
	}
	return members, snapshot, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*project.Project, error) {
	var (
		p         project.Project
		state     string
		teamID    sql.NullInt64
		boardID   sql.NullInt64
		weClassID sql.NullInt64
		members   string
		snapshot  sql.NullString
		lastDate  int64
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&p.ID, &state, &teamID, &boardID, &weClassID, &p.Writer,
		&members, &snapshot, &p.IsPublic, &lastDate, &p.Version,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	p.State = project.State(state)
	p.TeamID = fromNullInt64(teamID)
	p.BoardID = fromNullInt64(boardID)
	p.WeClassID = fromNullInt64(weClassID)
	p.LastDate = fromMillis(lastDate)
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)

	if err := json.Unmarshal([]byte(members), &p.Members); err != nil {
		return nil, fmt.Errorf("decode project members: %w", err)
	}
	if snapshot.Valid {
		var snap board.Snapshot
		if err := json.Unmarshal([]byte(snapshot.String), &snap); err != nil {
			return nil, fmt.Errorf("decode board snapshot: %w", err)
		}
		p.Board = &snap
	}
	return &p, nil
}
