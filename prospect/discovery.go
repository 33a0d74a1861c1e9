package prospect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dealbrief/brief"
)

var (
	// ErrValidation signals malformed discovery parameters.
	ErrValidation = errors.New("prospect: invalid discovery parameters")
	// ErrUpstream signals the candidate service failed or returned malformed data.
	ErrUpstream = errors.New("prospect: candidate service failure")
)

const (
	DefaultLimit  = 8
	MaxLimit      = 12
	MinDriveHours = 0.5
	MaxDriveHours = 8
	MaxBrands     = 4
)

// CandidateFinder is the external dealership-candidate lookup collaborator.
type CandidateFinder interface {
	FindDealers(ctx context.Context, q DealerQuery) ([]Candidate, error)
}

// BriefReader is the subset of the brief repository discovery depends on.
type BriefReader interface {
	GetByID(ctx context.Context, id string) (brief.Brief, error)
}

type DiscoverParams struct {
	BriefID           string
	Zip               string // optional; defaults to the brief's zip
	DriveHours        float64
	Brands            []string
	Limit             int // optional; defaults to DefaultLimit
	AdditionalContext string
}

type DiscoverResult struct {
	Prospects []DealerProspect
	Created   int
	Updated   int
}

// Discovery turns one candidate-finder call into an atomic batch of prospect
// upserts. A finder error or malformed response writes nothing.
type Discovery struct {
	pool   TxBeginner
	repo   Repository
	briefs BriefReader
	finder CandidateFinder
}

func NewDiscovery(pool TxBeginner, repo Repository, briefs BriefReader, finder CandidateFinder) *Discovery {
	return &Discovery{pool: pool, repo: repo, briefs: briefs, finder: finder}
}

func (d *Discovery) Discover(ctx context.Context, params DiscoverParams) (DiscoverResult, error) {
	if params.BriefID == "" {
		return DiscoverResult{}, fmt.Errorf("%w: missing brief id", ErrValidation)
	}

	b, err := d.briefs.GetByID(ctx, params.BriefID)
	if err != nil {
		return DiscoverResult{}, err
	}

	zip := params.Zip
	if zip == "" {
		zip = b.Zip
	}
	if !brief.ValidZip(zip) {
		return DiscoverResult{}, fmt.Errorf("%w: zip must be a 5-digit string", ErrValidation)
	}
	if params.DriveHours < MinDriveHours || params.DriveHours > MaxDriveHours {
		return DiscoverResult{}, fmt.Errorf("%w: drive hours must be between %.1f and %d", ErrValidation, MinDriveHours, MaxDriveHours)
	}
	brands := make([]string, 0, len(params.Brands))
	for _, br := range params.Brands {
		if t := strings.TrimSpace(br); t != "" {
			brands = append(brands, t)
		}
	}
	if len(brands) == 0 || len(brands) > MaxBrands {
		return DiscoverResult{}, fmt.Errorf("%w: between 1 and %d brands required", ErrValidation, MaxBrands)
	}
	limit := params.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		return DiscoverResult{}, fmt.Errorf("%w: limit must be between 1 and %d", ErrValidation, MaxLimit)
	}

	candidates, err := d.finder.FindDealers(ctx, DealerQuery{
		Zip:               zip,
		DriveHours:        params.DriveHours,
		Brands:            brands,
		Limit:             limit,
		AdditionalContext: params.AdditionalContext,
	})
	if err != nil {
		return DiscoverResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	for _, c := range candidates {
		if strings.TrimSpace(c.Name) == "" {
			return DiscoverResult{}, fmt.Errorf("%w: candidate missing dealership name", ErrUpstream)
		}
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return DiscoverResult{}, fmt.Errorf("prospect: begin discovery tx: %w", err)
	}
	defer tx.Rollback(ctx)

	result := DiscoverResult{Prospects: make([]DealerProspect, 0, len(candidates))}
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		key := DealerKey(c)
		if seen[key] {
			continue
		}
		seen[key] = true

		row := DealerProspect{
			BriefID:   b.ID,
			DealerKey: key,
			Name:      strings.TrimSpace(c.Name),
			Address:   strings.TrimSpace(c.Address),
			City:      strings.TrimSpace(c.City),
			State:     strings.TrimSpace(c.State),
			Zip:       strings.TrimSpace(c.Zip),
			Email:     optional(c.Email),
			Phone:     optional(c.Phone),
		}

		upserted, outcome, err := d.repo.Upsert(ctx, tx, row)
		if err != nil {
			return DiscoverResult{}, err
		}
		switch outcome {
		case OutcomeCreated:
			result.Created++
		case OutcomeUpdated:
			result.Updated++
		}
		result.Prospects = append(result.Prospects, upserted)
	}

	if err := tx.Commit(ctx); err != nil {
		return DiscoverResult{}, fmt.Errorf("prospect: commit discovery tx: %w", err)
	}

	return result, nil
}

func optional(s string) *string {
	if t := strings.TrimSpace(s); t != "" {
		return &t
	}
	return nil
}
