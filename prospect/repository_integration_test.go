package prospect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestRepository_Integration connects to a real PostgreSQL via DATABASE_URL
// and verifies the identity-upsert outcomes and the contacted guard.
func TestRepository_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	defer pool.Close()

	if !tableExists(ctx, t, pool, "dealer_prospects") || !tableExists(ctx, t, pool, "briefs") {
		t.Skip("database schema missing; apply migrations/ first")
	}

	var userID, briefID string
	if err := pool.QueryRow(ctx, `INSERT INTO users (email, full_name) VALUES ($1, $2) RETURNING id`,
		fmt.Sprintf("buyer+%d@example.com", time.Now().UnixNano()), "Integration Buyer").Scan(&userID); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := pool.QueryRow(ctx, `
        INSERT INTO briefs (buyer_user_id, zip, payment_type, budget_ceiling, makes)
        VALUES ($1, '94110', 'cash', 4200000, ARRAY['Toyota'])
        RETURNING id`, userID).Scan(&briefID); err != nil {
		t.Fatalf("seed brief: %v", err)
	}

	repo := NewRepository(pool)
	candidate := Candidate{Name: "City Toyota", City: "Daly City", State: "CA"}
	row := DealerProspect{
		BriefID:   briefID,
		DealerKey: DealerKey(candidate),
		Name:      candidate.Name,
		City:      candidate.City,
		State:     candidate.State,
	}

	inTx := func(fn func(tx pgx.Tx) error) {
		t.Helper()
		tx, err := pool.Begin(ctx)
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		defer tx.Rollback(ctx)
		if err := fn(tx); err != nil {
			t.Fatalf("tx: %v", err)
		}
		if err := tx.Commit(ctx); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}

	var created DealerProspect
	inTx(func(tx pgx.Tx) error {
		p, outcome, err := repo.Upsert(ctx, tx, row)
		if err != nil {
			return err
		}
		if outcome != OutcomeCreated {
			return fmt.Errorf("expected OutcomeCreated, got %v", outcome)
		}
		created = p
		return nil
	})
	if created.Status != StatusPending {
		t.Fatalf("expected new prospect pending, got %s", created.Status)
	}

	// Identical payload: unchanged, same row.
	inTx(func(tx pgx.Tx) error {
		p, outcome, err := repo.Upsert(ctx, tx, row)
		if err != nil {
			return err
		}
		if outcome != OutcomeUnchanged {
			return fmt.Errorf("expected OutcomeUnchanged, got %v", outcome)
		}
		if p.ID != created.ID {
			return fmt.Errorf("expected same row id, got %s vs %s", p.ID, created.ID)
		}
		return nil
	})

	// New email: updated, email filled in.
	row.Email = &[]string{"sales@citytoyota.example"}[0]
	inTx(func(tx pgx.Tx) error {
		p, outcome, err := repo.Upsert(ctx, tx, row)
		if err != nil {
			return err
		}
		if outcome != OutcomeUpdated {
			return fmt.Errorf("expected OutcomeUpdated, got %v", outcome)
		}
		if p.Email == nil || *p.Email != "sales@citytoyota.example" {
			return fmt.Errorf("expected email to be set, got %v", p.Email)
		}
		return nil
	})

	// Upsert without email must not blank the stored one.
	row.Email = nil
	inTx(func(tx pgx.Tx) error {
		p, outcome, err := repo.Upsert(ctx, tx, row)
		if err != nil {
			return err
		}
		if outcome != OutcomeUnchanged {
			return fmt.Errorf("expected contact-preserving upsert to be unchanged, got %v", outcome)
		}
		if p.Email == nil {
			return fmt.Errorf("expected stored email preserved")
		}
		return nil
	})

	pending, err := repo.ListPending(ctx, briefID)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending prospect, got %d", len(pending))
	}

	if err := repo.MarkContacted(ctx, created.ID); err != nil {
		t.Fatalf("mark contacted: %v", err)
	}
	// Second mark is a no-op, not an error.
	if err := repo.MarkContacted(ctx, created.ID); err != nil {
		t.Fatalf("repeat mark contacted: %v", err)
	}
	if err := repo.MarkContacted(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown prospect, got %v", err)
	}

	pending, err = repo.ListPending(ctx, briefID)
	if err != nil {
		t.Fatalf("list pending after contact: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected contacted prospect to leave the pending set, got %d", len(pending))
	}
}

func tableExists(ctx context.Context, t *testing.T, pool *pgxpool.Pool, name string) bool {
	t.Helper()
	var exists bool
	if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, name).Scan(&exists); err != nil {
		t.Fatalf("check table %s: %v", name, err)
	}
	return exists
}
