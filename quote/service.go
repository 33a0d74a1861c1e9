package quote

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dealbrief/brief"
)

var (
	ErrNotFound = errors.New("quote: not found")
	// ErrBadStatus signals the quote is not in a state the operation accepts.
	ErrBadStatus = errors.New("quote: invalid status transition")
	// ErrAcceptedExists signals the brief already has an accepted quote.
	ErrAcceptedExists = errors.New("quote: brief already has an accepted quote")
)

const quoteColumns = `id, brief_id, status::text, confidence, price, monthly_payment, term_months, notes, created_at, updated_at`

// Service manages quote drafting, publication, and acceptance. Publication
// supersedes the previously published quote for the brief; acceptance is
// singular per brief, enforced by a partial unique index.
type Service struct {
	pool     *pgxpool.Pool
	timeline *brief.Timeline
}

func NewService(pool *pgxpool.Pool, timeline *brief.Timeline) *Service {
	return &Service{pool: pool, timeline: timeline}
}

func (s *Service) Create(ctx context.Context, params CreateParams) (Record, error) {
	if params.BriefID == "" {
		return Record{}, fmt.Errorf("quote: missing brief id")
	}
	if params.Confidence < 0 || params.Confidence > 1 {
		return Record{}, fmt.Errorf("quote: confidence must be between 0 and 1")
	}
	if params.Price <= 0 {
		return Record{}, fmt.Errorf("quote: price must be positive")
	}

	query := fmt.Sprintf(`
        INSERT INTO quotes (brief_id, status, confidence, price, monthly_payment, term_months, notes)
        VALUES ($1, 'draft', $2, $3, $4, $5, $6)
        RETURNING %s
    `, quoteColumns)

	rec, err := scanRecord(s.pool.QueryRow(ctx, query,
		params.BriefID, params.Confidence, params.Price, params.MonthlyPayment, params.TermMonths, params.Notes))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Record{}, brief.ErrNotFound
		}
		return Record{}, fmt.Errorf("quote: insert: %w", err)
	}
	return rec, nil
}

// Publish moves a draft quote to published, superseding any previously
// published quote for the same brief, and nudges the brief into the offers
// stage if it is still sourcing.
func (s *Service) Publish(ctx context.Context, quoteID string) (Record, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("quote: begin publish tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rec, err := s.lockQuote(ctx, tx, quoteID)
	if err != nil {
		return Record{}, err
	}
	if rec.Status != StatusDraft {
		return Record{}, fmt.Errorf("%w: publish from %s", ErrBadStatus, rec.Status)
	}

	// Serialize publishes per brief so two drafts cannot both end up published.
	if _, err := tx.Exec(ctx, `SELECT 1 FROM briefs WHERE id = $1 FOR UPDATE`, rec.BriefID); err != nil {
		return Record{}, fmt.Errorf("quote: lock brief: %w", err)
	}

	if _, err := tx.Exec(ctx, `
        UPDATE quotes SET status = 'superseded', updated_at = now()
        WHERE brief_id = $1 AND status = 'published'
    `, rec.BriefID); err != nil {
		return Record{}, fmt.Errorf("quote: supersede prior: %w", err)
	}

	updated, err := s.setStatus(ctx, tx, quoteID, StatusPublished)
	if err != nil {
		return Record{}, err
	}

	// Forward-only guard lives in the WHERE clause: only a sourcing brief moves.
	if _, err := tx.Exec(ctx, `
        UPDATE briefs SET status = 'offers', updated_at = now()
        WHERE id = $1 AND status = 'sourcing'
    `, rec.BriefID); err != nil {
		return Record{}, fmt.Errorf("quote: advance brief: %w", err)
	}

	if s.timeline != nil {
		payload := map[string]any{"quote_id": updated.ID, "price": updated.Price}
		if err := s.timeline.AppendTx(ctx, tx, rec.BriefID, brief.EventQuotePublished, payload); err != nil {
			return Record{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Record{}, fmt.Errorf("quote: commit publish: %w", err)
	}
	return updated, nil
}

// Accept marks a published quote accepted. At most one quote per brief may be
// accepted; a second acceptance fails with ErrAcceptedExists.
func (s *Service) Accept(ctx context.Context, quoteID string) (Record, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("quote: begin accept tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rec, err := s.lockQuote(ctx, tx, quoteID)
	if err != nil {
		return Record{}, err
	}
	if rec.Status == StatusAccepted {
		return rec, tx.Commit(ctx)
	}
	if rec.Status != StatusPublished {
		return Record{}, fmt.Errorf("%w: accept from %s", ErrBadStatus, rec.Status)
	}

	updated, err := s.setStatus(ctx, tx, quoteID, StatusAccepted)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Record{}, ErrAcceptedExists
		}
		return Record{}, err
	}

	if _, err := tx.Exec(ctx, `
        UPDATE briefs SET status = 'negotiation', updated_at = now()
        WHERE id = $1 AND status IN ('sourcing', 'offers')
    `, rec.BriefID); err != nil {
		return Record{}, fmt.Errorf("quote: advance brief: %w", err)
	}

	if s.timeline != nil {
		payload := map[string]any{"quote_id": updated.ID, "price": updated.Price}
		if err := s.timeline.AppendTx(ctx, tx, rec.BriefID, brief.EventQuoteAccepted, payload); err != nil {
			return Record{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Record{}, fmt.Errorf("quote: commit accept: %w", err)
	}
	return updated, nil
}

// Reject moves a draft or published quote to rejected.
func (s *Service) Reject(ctx context.Context, quoteID string) (Record, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("quote: begin reject tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rec, err := s.lockQuote(ctx, tx, quoteID)
	if err != nil {
		return Record{}, err
	}
	if rec.Status != StatusDraft && rec.Status != StatusPublished {
		return Record{}, fmt.Errorf("%w: reject from %s", ErrBadStatus, rec.Status)
	}

	updated, err := s.setStatus(ctx, tx, quoteID, StatusRejected)
	if err != nil {
		return Record{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Record{}, fmt.Errorf("quote: commit reject: %w", err)
	}
	return updated, nil
}

// Get loads a single quote by id.
func (s *Service) Get(ctx context.Context, quoteID string) (Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM quotes WHERE id = $1`, quoteColumns)
	rec, err := scanRecord(s.pool.QueryRow(ctx, query, quoteID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("quote: get: %w", err)
	}
	return rec, nil
}

func (s *Service) List(ctx context.Context, briefID string) ([]Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM quotes WHERE brief_id = $1 ORDER BY created_at DESC`, quoteColumns)
	rows, err := s.pool.Query(ctx, query, briefID)
	if err != nil {
		return nil, fmt.Errorf("quote: list: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0, 8)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("quote: scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("quote: iterate: %w", err)
	}
	return out, nil
}

func (s *Service) lockQuote(ctx context.Context, tx pgx.Tx, quoteID string) (Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM quotes WHERE id = $1 FOR UPDATE`, quoteColumns)
	rec, err := scanRecord(tx.QueryRow(ctx, query, quoteID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("quote: lock: %w", err)
	}
	return rec, nil
}

func (s *Service) setStatus(ctx context.Context, tx pgx.Tx, quoteID string, status Status) (Record, error) {
	query := fmt.Sprintf(`
        UPDATE quotes SET status = $2::quote_status, updated_at = now()
        WHERE id = $1
        RETURNING %s
    `, quoteColumns)
	rec, err := scanRecord(tx.QueryRow(ctx, query, quoteID, status))
	if err != nil {
		return Record{}, fmt.Errorf("quote: set status: %w", err)
	}
	return rec, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.BriefID, &rec.Status, &rec.Confidence, &rec.Price,
		&rec.MonthlyPayment, &rec.TermMonths, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}
