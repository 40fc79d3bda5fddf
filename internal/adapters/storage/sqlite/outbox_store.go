package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen11/wemeet/internal/ports"
)

type outboxStore struct {
	tx *sql.Tx
}

func (s *outboxStore) Enqueue(ctx context.Context, env ports.Envelope) error {
	now := time.Now().UTC()
	_, err := s.tx.ExecContext(ctx, `
INSERT INTO message_outbox (id, channel, kind, payload, status, attempts, available_at, created_at)
VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		env.ID.String(),
		env.Channel,
		string(env.Kind),
		string(env.Payload),
		ports.OutboxPending,
		toMillis(now),
		toMillis(now),
	)
	if err != nil {
		return fmt.Errorf("enqueue outbox message %s: %w", env.ID, err)
	}
	return nil
}

type processedStore struct {
	tx *sql.Tx
}

func (s *processedStore) MarkProcessed(ctx context.Context, key string) (bool, error) {
	res, err := s.tx.ExecContext(ctx, `
INSERT INTO processed_messages (key, processed_at)
VALUES (?, ?)
ON CONFLICT(key) DO NOTHING`,
		key, time.Now().UTC().UnixMilli())
	if err != nil {
		return false, fmt.Errorf("mark processed %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark processed %s: %w", key, err)
	}
	return n > 0, nil
}

// ClaimPending implements the relay-side lease: deliverable rows get their
// attempt count bumped and their availability pushed forward before they are
// returned, so a relay crash means redelivery instead of loss.
func (s *Store) ClaimPending(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]ports.OutboxMessage, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
SELECT seq, id, channel, kind, payload, status, attempts, available_at, created_at
FROM message_outbox
WHERE status = ? AND available_at <= ?
ORDER BY seq
LIMIT ?`,
		ports.OutboxPending, toMillis(now), limit)
	if err != nil {
		return nil, fmt.Errorf("query pending outbox: %w", err)
	}

	var msgs []ports.OutboxMessage
	for rows.Next() {
		var (
			m           ports.OutboxMessage
			rawID       string
			kind        string
			payload     string
			availableAt int64
			createdAt   int64
		)
		if err := rows.Scan(&m.Seq, &rawID, &m.Envelope.Channel, &kind, &payload,
			&m.Status, &m.Attempts, &availableAt, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		m.Envelope.ID, err = uuid.Parse(rawID)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("parse outbox message id %q: %w", rawID, err)
		}
		m.Envelope.Kind = ports.MessageKind(kind)
		m.Envelope.Payload = []byte(payload)
		m.AvailableAt = fromMillis(availableAt)
		m.CreatedAt = fromMillis(createdAt)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate pending outbox: %w", err)
	}
	rows.Close()

	if len(msgs) == 0 {
		return nil, tx.Commit()
	}

	nextAttempt := toMillis(now.Add(lease))
	seqArgs := make([]any, 0, len(msgs)+1)
	seqArgs = append(seqArgs, nextAttempt)
	placeholders := make([]string, len(msgs))
	for i, m := range msgs {
		placeholders[i] = "?"
		seqArgs = append(seqArgs, m.Seq)
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE message_outbox
SET attempts = attempts + 1, available_at = ?
WHERE seq IN (`+strings.Join(placeholders, ", ")+`)`, seqArgs...); err != nil {
		return nil, fmt.Errorf("lease outbox rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim tx: %w", err)
	}
	for i := range msgs {
		msgs[i].Attempts++
	}
	return msgs, nil
}

// MarkDelivered finalizes successfully published rows.
func (s *Store) MarkDelivered(ctx context.Context, seqs []int64) error {
	if len(seqs) == 0 {
		return nil
	}
	args := make([]any, 0, len(seqs)+1)
	args = append(args, ports.OutboxDelivered)
	placeholders := make([]string, len(seqs))
	for i, seq := range seqs {
		placeholders[i] = "?"
		args = append(args, seq)
	}
	if _, err := s.sqlDB.ExecContext(ctx, `
UPDATE message_outbox
SET status = ?
WHERE seq IN (`+strings.Join(placeholders, ", ")+`)`, args...); err != nil {
		return fmt.Errorf("mark outbox delivered: %w", err)
	}
	return nil
}
