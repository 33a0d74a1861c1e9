package brief

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrInvalidTransition signals an attempt to move a brief's status backward.
	ErrInvalidTransition = errors.New("brief: invalid status transition")
	// ErrUnknownStatus signals a status value outside the defined lifecycle.
	ErrUnknownStatus = errors.New("brief: unknown status")
)

// StatusService handles lifecycle transitions on briefs ensuring the timeline
// write lands in the same transaction as the status update.
type StatusService struct {
	pool *pgxpool.Pool
}

func NewStatusService(pool *pgxpool.Pool) *StatusService {
	return &StatusService{pool: pool}
}

type TransitionParams struct {
	BriefID    string
	ActorID    string
	NextStatus Status
	Payload    map[string]any
}

// Set moves the brief to NextStatus. Equal and forward moves are accepted;
// backward moves fail with ErrInvalidTransition. A no-op (equal) transition
// writes no timeline event.
func (s *StatusService) Set(ctx context.Context, params TransitionParams) (Brief, error) {
	if params.BriefID == "" {
		return Brief{}, fmt.Errorf("brief: transition missing brief id")
	}
	if !ValidStatus(params.NextStatus) {
		return Brief{}, fmt.Errorf("%w: %q", ErrUnknownStatus, params.NextStatus)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Brief{}, fmt.Errorf("brief: begin transition tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var current Status
	if err := tx.QueryRow(ctx, `SELECT status::text FROM briefs WHERE id=$1 FOR UPDATE`, params.BriefID).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Brief{}, ErrNotFound
		}
		return Brief{}, fmt.Errorf("brief: fetch current status: %w", err)
	}

	if !ValidTransition(current, params.NextStatus) {
		return Brief{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, params.NextStatus)
	}

	if current == params.NextStatus {
		b, err := scanBrief(tx.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM briefs WHERE id=$1`, briefColumns), params.BriefID))
		if err != nil {
			return Brief{}, fmt.Errorf("brief: reload unchanged: %w", err)
		}
		return b, tx.Commit(ctx)
	}

	updateSQL := fmt.Sprintf(`
        UPDATE briefs
        SET status=$1::brief_status, updated_at=now()
        WHERE id=$2
        RETURNING %s
    `, briefColumns)
	b, err := scanBrief(tx.QueryRow(ctx, updateSQL, params.NextStatus, params.BriefID))
	if err != nil {
		return Brief{}, fmt.Errorf("brief: update status: %w", err)
	}

	payload := map[string]any{
		"previous_status": string(current),
		"next_status":     string(params.NextStatus),
	}
	for k, v := range params.Payload {
		payload[k] = v
	}
	if params.ActorID != "" {
		payload["actor_id"] = params.ActorID
	}

	if _, err := tx.Exec(ctx, `
        INSERT INTO timeline_events (brief_id, type, payload)
        VALUES ($1, $2, $3::jsonb)
    `, params.BriefID, EventStatusChanged, mustJSON(payload)); err != nil {
		return Brief{}, fmt.Errorf("brief: insert transition timeline: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Brief{}, fmt.Errorf("brief: commit transition: %w", err)
	}

	return b, nil
}
