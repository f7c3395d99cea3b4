package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// Postgres persists audit events in the audit_events table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, action, actor_id, subject, request_id, client_ip, user_agent, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, event.Action, event.ActorID, event.Subject,
		event.RequestID, event.ClientIP, event.UserAgent, event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Postgres) ListByActor(ctx context.Context, actorID string) ([]Event, error) {
	return s.list(ctx, `
		SELECT id, action, actor_id, subject, request_id, client_ip, user_agent, occurred_at
		FROM audit_events WHERE actor_id = $1 ORDER BY occurred_at DESC`, actorID)
}

func (s *Postgres) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	return s.list(ctx, `
		SELECT id, action, actor_id, subject, request_id, client_ip, user_agent, occurred_at
		FROM audit_events ORDER BY occurred_at DESC LIMIT $1`, limit)
}

func (s *Postgres) list(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Action, &e.ActorID, &e.Subject,
			&e.RequestID, &e.ClientIP, &e.UserAgent, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
