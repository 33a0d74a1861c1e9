package prospect

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when no prospect row exists for the identifier.
	ErrNotFound = errors.New("prospect: not found")
)

// UpsertOutcome distinguishes the effect of an identity upsert.
type UpsertOutcome int

const (
	OutcomeCreated UpsertOutcome = iota
	OutcomeUpdated
	OutcomeUnchanged
)

const prospectColumns = `id, brief_id, dealer_key, name, address, city, state, zip, email, phone, status::text, notes, created_at, updated_at`

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repository interface {
	Upsert(ctx context.Context, tx pgx.Tx, p DealerProspect) (DealerProspect, UpsertOutcome, error)
	ListByBrief(ctx context.Context, briefID string) ([]DealerProspect, error)
	ListPending(ctx context.Context, briefID string) ([]DealerProspect, error)
	MarkContacted(ctx context.Context, id string) error
	UpdateReview(ctx context.Context, briefID, id string, status Status, notes *string) (DealerProspect, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Upsert inserts the prospect or refreshes mutable fields on the existing row
// keyed by (brief_id, dealer_key). A conflicting row whose fields already
// match is left untouched and reported as OutcomeUnchanged. Contact fields
// are only ever filled in, never blanked by a candidate missing them.
func (r *PGRepository) Upsert(ctx context.Context, tx pgx.Tx, p DealerProspect) (DealerProspect, UpsertOutcome, error) {
	query := fmt.Sprintf(`
        INSERT INTO dealer_prospects (brief_id, dealer_key, name, address, city, state, zip, email, phone, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending')
        ON CONFLICT (brief_id, dealer_key) DO UPDATE SET
            name = EXCLUDED.name,
            address = EXCLUDED.address,
            city = EXCLUDED.city,
            state = EXCLUDED.state,
            zip = EXCLUDED.zip,
            email = COALESCE(EXCLUDED.email, dealer_prospects.email),
            phone = COALESCE(EXCLUDED.phone, dealer_prospects.phone),
            updated_at = now()
        WHERE (dealer_prospects.name, dealer_prospects.address, dealer_prospects.city,
               dealer_prospects.state, dealer_prospects.zip, dealer_prospects.email, dealer_prospects.phone)
              IS DISTINCT FROM
              (EXCLUDED.name, EXCLUDED.address, EXCLUDED.city, EXCLUDED.state, EXCLUDED.zip,
               COALESCE(EXCLUDED.email, dealer_prospects.email), COALESCE(EXCLUDED.phone, dealer_prospects.phone))
        RETURNING %s, (xmax = 0) AS inserted
    `, prospectColumns)

	var (
		out      DealerProspect
		inserted bool
	)
	err := tx.QueryRow(ctx, query,
		p.BriefID, p.DealerKey, p.Name, p.Address, p.City, p.State, p.Zip, p.Email, p.Phone,
	).Scan(
		&out.ID, &out.BriefID, &out.DealerKey, &out.Name, &out.Address, &out.City, &out.State, &out.Zip,
		&out.Email, &out.Phone, &out.Status, &out.Notes, &out.CreatedAt, &out.UpdatedAt, &inserted,
	)
	if err == nil {
		if inserted {
			return out, OutcomeCreated, nil
		}
		return out, OutcomeUpdated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return DealerProspect{}, 0, fmt.Errorf("prospect: upsert: %w", err)
	}

	// Conflict with identical fields: the WHERE guard suppressed the update.
	existing, err := r.getByKey(ctx, tx, p.BriefID, p.DealerKey)
	if err != nil {
		return DealerProspect{}, 0, err
	}
	return existing, OutcomeUnchanged, nil
}

func (r *PGRepository) getByKey(ctx context.Context, tx pgx.Tx, briefID, dealerKey string) (DealerProspect, error) {
	query := fmt.Sprintf(`SELECT %s FROM dealer_prospects WHERE brief_id = $1 AND dealer_key = $2`, prospectColumns)
	p, err := scanProspect(tx.QueryRow(ctx, query, briefID, dealerKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DealerProspect{}, ErrNotFound
		}
		return DealerProspect{}, fmt.Errorf("prospect: get by key: %w", err)
	}
	return p, nil
}

func (r *PGRepository) ListByBrief(ctx context.Context, briefID string) ([]DealerProspect, error) {
	query := fmt.Sprintf(`SELECT %s FROM dealer_prospects WHERE brief_id = $1 ORDER BY created_at ASC, id ASC`, prospectColumns)
	return r.list(ctx, query, briefID)
}

// ListPending returns pending prospects that have at least one usable contact
// channel, oldest first.
func (r *PGRepository) ListPending(ctx context.Context, briefID string) ([]DealerProspect, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM dealer_prospects
        WHERE brief_id = $1 AND status = 'pending' AND (email IS NOT NULL OR phone IS NOT NULL)
        ORDER BY created_at ASC, id ASC
    `, prospectColumns)
	return r.list(ctx, query, briefID)
}

func (r *PGRepository) list(ctx context.Context, query string, args ...any) ([]DealerProspect, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("prospect: list: %w", err)
	}
	defer rows.Close()

	out := make([]DealerProspect, 0, 8)
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, fmt.Errorf("prospect: scan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("prospect: iterate: %w", err)
	}
	return out, nil
}

// MarkContacted flips a pending prospect to contacted. A prospect already
// moved out of pending is left alone.
func (r *PGRepository) MarkContacted(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE dealer_prospects SET status = 'contacted', updated_at = now()
        WHERE id = $1 AND status = 'pending'
    `, id)
	if err != nil {
		return fmt.Errorf("prospect: mark contacted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM dealer_prospects WHERE id=$1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("prospect: verify contacted: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

// UpdateReview applies an ops/buyer review action (status and notes), scoped
// to the brief so a prospect id cannot be addressed through another brief.
func (r *PGRepository) UpdateReview(ctx context.Context, briefID, id string, status Status, notes *string) (DealerProspect, error) {
	query := fmt.Sprintf(`
        UPDATE dealer_prospects
        SET status = $3::prospect_status, notes = COALESCE($4, notes), updated_at = now()
        WHERE id = $1 AND brief_id = $2
        RETURNING %s
    `, prospectColumns)

	p, err := scanProspect(r.pool.QueryRow(ctx, query, id, briefID, status, notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DealerProspect{}, ErrNotFound
		}
		return DealerProspect{}, fmt.Errorf("prospect: update review: %w", err)
	}
	return p, nil
}

func scanProspect(row pgx.Row) (DealerProspect, error) {
	var p DealerProspect
	err := row.Scan(
		&p.ID, &p.BriefID, &p.DealerKey, &p.Name, &p.Address, &p.City, &p.State, &p.Zip,
		&p.Email, &p.Phone, &p.Status, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
