package brief

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Actor identifies the caller for ownership checks. Ops users may act on any
// brief; buyers only on their own.
type Actor struct {
	UserID string
	Role   string
}

const RoleOps = "ops"

type CreateParams struct {
	BuyerUserID        string
	Zip                string
	PaymentType        string
	BudgetCeiling      int64
	Makes              []string
	Models             []string
	Trims              []string
	Colors             []string
	MustHaves          []string
	TimelinePreference string
	DownPayment        int64
	MonthlyBudget      int64
	TermMonths         int
}

type ListResult struct {
	Items []Brief
	Total int
}

type Service struct {
	pool     TxBeginner
	repo     Repository
	timeline *Timeline
	idGen    func() string
	now      func() time.Time
}

func NewService(pool TxBeginner, repo Repository, timeline *Timeline) *Service {
	return &Service{
		pool:     pool,
		repo:     repo,
		timeline: timeline,
		idGen:    func() string { return uuid.NewString() },
		now:      time.Now,
	}
}

func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGen = gen
	return s
}

// ValidZip reports whether zip is a 5-digit string.
func ValidZip(zip string) bool {
	if len(zip) != 5 {
		return false
	}
	for _, c := range zip {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (s *Service) Create(ctx context.Context, params CreateParams) (Brief, error) {
	if params.BuyerUserID == "" {
		return Brief{}, fmt.Errorf("brief: missing buyer user id")
	}
	if !ValidZip(params.Zip) {
		return Brief{}, fmt.Errorf("brief: zip must be a 5-digit string")
	}
	if params.BudgetCeiling <= 0 {
		return Brief{}, fmt.Errorf("brief: budget ceiling must be positive")
	}
	makes := trimAll(params.Makes)
	if len(makes) == 0 {
		return Brief{}, fmt.Errorf("brief: at least one make required")
	}
	switch params.PaymentType {
	case "cash", "finance", "lease":
	default:
		return Brief{}, fmt.Errorf("brief: invalid payment type %q", params.PaymentType)
	}
	if params.TermMonths < 0 || params.DownPayment < 0 || params.MonthlyBudget < 0 {
		return Brief{}, fmt.Errorf("brief: payment preferences must not be negative")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Brief{}, fmt.Errorf("brief: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	b := Brief{
		ID:                 s.idGen(),
		BuyerUserID:        params.BuyerUserID,
		Status:             StatusSourcing,
		Zip:                params.Zip,
		PaymentType:        params.PaymentType,
		BudgetCeiling:      params.BudgetCeiling,
		Makes:              makes,
		Models:             trimAll(params.Models),
		Trims:              trimAll(params.Trims),
		Colors:             trimAll(params.Colors),
		MustHaves:          trimAll(params.MustHaves),
		TimelinePreference: params.TimelinePreference,
		DownPayment:        params.DownPayment,
		MonthlyBudget:      params.MonthlyBudget,
		TermMonths:         params.TermMonths,
	}

	created, err := s.repo.Create(ctx, tx, b)
	if err != nil {
		return Brief{}, fmt.Errorf("brief: insert: %w", err)
	}

	if s.timeline != nil {
		payload := map[string]any{
			"zip":          created.Zip,
			"makes":        created.Makes,
			"payment_type": created.PaymentType,
		}
		if err := s.timeline.AppendTx(ctx, tx, created.ID, EventBriefCreated, payload); err != nil {
			return Brief{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Brief{}, fmt.Errorf("brief: commit tx: %w", err)
	}

	return created, nil
}

// Get loads a brief and enforces ownership for non-ops actors.
func (s *Service) Get(ctx context.Context, id string, actor Actor) (Brief, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Brief{}, err
	}
	if actor.Role != RoleOps && b.BuyerUserID != actor.UserID {
		return Brief{}, ErrForbidden
	}
	return b, nil
}

func (s *Service) List(ctx context.Context, filters Filters, actor Actor) (ListResult, error) {
	if actor.Role != RoleOps {
		filters.BuyerUserID = actor.UserID
	}
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
