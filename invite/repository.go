package invite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrCodeNotFound signals the invite code does not exist.
	ErrCodeNotFound = errors.New("invite: code not found")
	// ErrCodeExhausted signals the code has no remaining uses or has expired.
	ErrCodeExhausted = errors.New("invite: code exhausted or expired")
	// ErrAlreadyListed signals the email is already on the waitlist.
	ErrAlreadyListed = errors.New("invite: email already on waitlist")
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Redeem consumes one use of the code. The guarded UPDATE makes concurrent
// redemptions of the last use race safely: only one wins.
func (r *Repository) Redeem(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrCodeNotFound
	}

	tag, err := r.pool.Exec(ctx, `
        UPDATE invite_codes
        SET used_count = used_count + 1
        WHERE code = $1
          AND used_count < max_uses
          AND (expires_at IS NULL OR expires_at > now())
    `, code)
	if err != nil {
		return fmt.Errorf("invite: redeem: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM invite_codes WHERE code = $1)`, code).Scan(&exists); err != nil {
		return fmt.Errorf("invite: verify code: %w", err)
	}
	if !exists {
		return ErrCodeNotFound
	}
	return ErrCodeExhausted
}

// Get returns the code record, primarily for ops inspection.
func (r *Repository) Get(ctx context.Context, code string) (Code, error) {
	const query = `
        SELECT code, max_uses, used_count, expires_at, created_at
        FROM invite_codes
        WHERE code = $1
    `
	var c Code
	err := r.pool.QueryRow(ctx, query, code).Scan(&c.Code, &c.MaxUses, &c.UsedCount, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Code{}, ErrCodeNotFound
		}
		return Code{}, fmt.Errorf("invite: get code: %w", err)
	}
	return c, nil
}

// JoinWaitlist records an email once; repeats fail with ErrAlreadyListed.
func (r *Repository) JoinWaitlist(ctx context.Context, email string) (WaitlistEntry, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return WaitlistEntry{}, fmt.Errorf("invite: invalid email")
	}

	const query = `
        INSERT INTO waitlist (email)
        VALUES ($1)
        RETURNING id, email, created_at
    `
	var entry WaitlistEntry
	err := r.pool.QueryRow(ctx, query, email).Scan(&entry.ID, &entry.Email, &entry.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return WaitlistEntry{}, ErrAlreadyListed
		}
		return WaitlistEntry{}, fmt.Errorf("invite: join waitlist: %w", err)
	}
	return entry, nil
}
