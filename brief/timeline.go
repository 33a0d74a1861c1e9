package brief

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Timeline appends and reads the event log of a brief. Events are
// insert-only; nothing updates or deletes a timeline row.
type Timeline struct {
	pool *pgxpool.Pool
}

func NewTimeline(pool *pgxpool.Pool) *Timeline {
	return &Timeline{pool: pool}
}

// Append writes one event outside any caller transaction.
func (t *Timeline) Append(ctx context.Context, briefID, eventType string, payload map[string]any) (TimelineEvent, error) {
	if briefID == "" {
		return TimelineEvent{}, fmt.Errorf("brief: timeline missing brief id")
	}
	if eventType == "" {
		return TimelineEvent{}, fmt.Errorf("brief: timeline missing event type")
	}

	const query = `
        INSERT INTO timeline_events (brief_id, type, payload)
        VALUES ($1, $2, $3::jsonb)
        RETURNING id, brief_id, type, payload, created_at
    `

	var ev TimelineEvent
	err := t.pool.QueryRow(ctx, query, briefID, eventType, mustJSON(payload)).
		Scan(&ev.ID, &ev.BriefID, &ev.Type, &ev.Payload, &ev.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return TimelineEvent{}, ErrNotFound
		}
		return TimelineEvent{}, fmt.Errorf("brief: append timeline: %w", err)
	}
	return ev, nil
}

// AppendTx writes one event inside the caller's transaction so it commits or
// rolls back together with the surrounding writes.
func (t *Timeline) AppendTx(ctx context.Context, tx pgx.Tx, briefID, eventType string, payload map[string]any) error {
	_, err := tx.Exec(ctx, `INSERT INTO timeline_events (brief_id, type, payload) VALUES ($1, $2, $3::jsonb)`,
		briefID, eventType, mustJSON(payload))
	if err != nil {
		return fmt.Errorf("brief: append timeline in tx: %w", err)
	}
	return nil
}

// List returns a brief's events in creation order.
func (t *Timeline) List(ctx context.Context, briefID string) ([]TimelineEvent, error) {
	const query = `
        SELECT id, brief_id, type, payload, created_at
        FROM timeline_events
        WHERE brief_id = $1
        ORDER BY created_at ASC, id ASC
    `

	rows, err := t.pool.Query(ctx, query, briefID)
	if err != nil {
		return nil, fmt.Errorf("brief: list timeline: %w", err)
	}
	defer rows.Close()

	events := make([]TimelineEvent, 0, 8)
	for rows.Next() {
		var ev TimelineEvent
		if err := rows.Scan(&ev.ID, &ev.BriefID, &ev.Type, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("brief: scan timeline event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("brief: iterate timeline: %w", err)
	}
	return events, nil
}

func mustJSON(m map[string]any) string {
	if m == nil {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	return string(b)
}
