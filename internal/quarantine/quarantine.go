// Package quarantine implements the optional external quarantine sink:
// messages resolved to the quarantine action are persisted to Postgres
// for later human review instead of only being logged. Uses
// jackc/pgx/v5's documented pool-per-process connection pattern.
package quarantine

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TryMightyAI/sentry/internal/sentrytype"
)

// Store persists quarantined messages to Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres using dsn and ensures the quarantine table
// exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS quarantined_messages (
	id           BIGSERIAL PRIMARY KEY,
	received_at  TIMESTAMPTZ NOT NULL,
	source       TEXT NOT NULL,
	sender_id    TEXT NOT NULL,
	intent       TEXT NOT NULL,
	risk_score   DOUBLE PRECISION NOT NULL,
	flags        TEXT[] NOT NULL,
	reason       TEXT NOT NULL,
	message_text TEXT NOT NULL,
	reviewed     BOOLEAN NOT NULL DEFAULT FALSE
)`)
	return err
}

// Put records a quarantined message, storing the raw text for reviewer
// access (unlike eventlog, which only ever stores a hash).
func (s *Store) Put(ctx context.Context, d sentrytype.DecisionResult, msgCtx sentrytype.ScanContext, rawText string) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO quarantined_messages (received_at, source, sender_id, intent, risk_score, flags, reason, message_text)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		time.Now(), string(msgCtx.Source), msgCtx.SenderID, string(d.Intent), d.RiskScore, d.Flags, d.Reason, rawText)
	return err
}

// Pending lists quarantined messages awaiting review, most recent first.
func (s *Store) Pending(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
SELECT id, received_at, source, sender_id, intent, risk_score, flags, reason, message_text
FROM quarantined_messages
WHERE reviewed = FALSE
ORDER BY received_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.ReceivedAt, &r.Source, &r.SenderID, &r.Intent, &r.RiskScore, &r.Flags, &r.Reason, &r.MessageText); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkReviewed flags a quarantined message as reviewed.
func (s *Store) MarkReviewed(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE quarantined_messages SET reviewed = TRUE WHERE id = $1`, id)
	return err
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Record is one quarantined message row.
type Record struct {
	ID          int64
	ReceivedAt  time.Time
	Source      string
	SenderID    string
	Intent      string
	RiskScore   float64
	Flags       []string
	Reason      string
	MessageText string
}
