package brief

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when no brief row exists for the identifier.
	ErrNotFound = errors.New("brief: not found")
	// ErrForbidden signals the caller does not own the brief.
	ErrForbidden = errors.New("brief: forbidden")
)

const briefColumns = `id, buyer_user_id, status::text, zip, payment_type, budget_ceiling,
	makes, models, trims, colors, must_haves, timeline_preference,
	down_payment, monthly_budget, term_months, created_at, updated_at`

type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, b Brief) (Brief, error)
	GetByID(ctx context.Context, id string) (Brief, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Brief, error)
	List(ctx context.Context, filters Filters) ([]Brief, int, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Create(ctx context.Context, tx pgx.Tx, b Brief) (Brief, error) {
	query := fmt.Sprintf(`
        INSERT INTO briefs (id, buyer_user_id, status, zip, payment_type, budget_ceiling,
            makes, models, trims, colors, must_haves, timeline_preference,
            down_payment, monthly_budget, term_months)
        VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3::brief_status, $4, $5, $6,
            $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING %s
    `, briefColumns)

	row := tx.QueryRow(ctx, query,
		b.ID,
		b.BuyerUserID,
		b.Status,
		b.Zip,
		b.PaymentType,
		b.BudgetCeiling,
		b.Makes,
		b.Models,
		b.Trims,
		b.Colors,
		b.MustHaves,
		b.TimelinePreference,
		b.DownPayment,
		b.MonthlyBudget,
		b.TermMonths,
	)

	return scanBrief(row)
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (Brief, error) {
	query := fmt.Sprintf(`SELECT %s FROM briefs WHERE id = $1`, briefColumns)
	b, err := scanBrief(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Brief{}, ErrNotFound
		}
		return Brief{}, fmt.Errorf("brief: get by id: %w", err)
	}
	return b, nil
}

func (r *PGRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Brief, error) {
	query := fmt.Sprintf(`SELECT %s FROM briefs WHERE id = $1 FOR UPDATE`, briefColumns)
	b, err := scanBrief(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Brief{}, ErrNotFound
		}
		return Brief{}, fmt.Errorf("brief: get for update: %w", err)
	}
	return b, nil
}

func (r *PGRepository) List(ctx context.Context, filters Filters) ([]Brief, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	where := []string{"1=1"}
	args := []any{}

	if filters.BuyerUserID != "" {
		where = append(where, fmt.Sprintf("buyer_user_id=$%d", len(args)+1))
		args = append(args, filters.BuyerUserID)
	}
	if filters.Status != "" {
		where = append(where, fmt.Sprintf("status=$%d::brief_status", len(args)+1))
		args = append(args, filters.Status)
	}
	if filters.Zip != "" {
		where = append(where, fmt.Sprintf("zip=$%d", len(args)+1))
		args = append(args, filters.Zip)
	}

	whereClause := " WHERE " + strings.Join(where, " AND ")
	limit := filters.PageSize
	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`SELECT %s FROM briefs%s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		briefColumns, whereClause, limit, offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("brief: query list: %w", err)
	}
	defer rows.Close()

	list := []Brief{}
	for rows.Next() {
		b, err := scanBrief(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("brief: scan list: %w", err)
		}
		list = append(list, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("brief: iterate list: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM briefs%s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("brief: count list: %w", err)
	}

	return list, total, nil
}

func scanBrief(row pgx.Row) (Brief, error) {
	var b Brief
	err := row.Scan(
		&b.ID,
		&b.BuyerUserID,
		&b.Status,
		&b.Zip,
		&b.PaymentType,
		&b.BudgetCeiling,
		&b.Makes,
		&b.Models,
		&b.Trims,
		&b.Colors,
		&b.MustHaves,
		&b.TimelinePreference,
		&b.DownPayment,
		&b.MonthlyBudget,
		&b.TermMonths,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	return b, err
}
