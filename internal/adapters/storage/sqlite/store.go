// Package sqlite implements the persistence ports on a single SQLite
// database: aggregate repositories, saga instances, the transactional
// message outbox and the processed-command markers. One database file holds
// all tables so a unit of work is one SQLite transaction.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jsamuelsen11/wemeet/internal/adapters/storage/sqlite/migrations"
	"github.com/jsamuelsen11/wemeet/internal/ports"
)

// Compile-time interface checks.
var (
	_ ports.UnitOfWork       = (*Store)(nil)
	_ ports.OutboxRelayStore = (*Store)(nil)
)

// Store owns the SQLite database and implements ports.UnitOfWork plus the
// relay-side outbox view. Transaction-scoped repositories are handed out
// through Do.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (or creates) the database at path and applies embedded
// migrations. WAL mode keeps readers unblocked while the single writer
// commits.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// A single writer connection serializes aggregate writes at the
	// database level.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying database. Nil-safe so callers can defer it in
// all startup paths.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Do implements ports.UnitOfWork: fn runs inside one immediate transaction
// and its aggregate, saga and outbox writes commit or roll back together.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, r ports.Repos) error) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(ctx, &repos{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// repos binds the repository ports to one transaction.
type repos struct {
	tx *sql.Tx
}

func (r *repos) Projects() ports.ProjectRepository { return &projectStore{tx: r.tx} }
func (r *repos) Teams() ports.TeamRepository       { return &teamStore{tx: r.tx} }
func (r *repos) Sagas() ports.SagaStore            { return &sagaStore{tx: r.tx} }
func (r *repos) Outbox() ports.MessageOutbox       { return &outboxStore{tx: r.tx} }
func (r *repos) Processed() ports.ProcessedMarker  { return &processedStore{tx: r.tx} }

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func toNullMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

func fromNullMillis(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromMillis(value.Int64)
	return &t
}

func toNullInt64(value *int64) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *value, Valid: true}
}

func fromNullInt64(value sql.NullInt64) *int64 {
	if !value.Valid {
		return nil
	}
	v := value.Int64
	return &v
}
