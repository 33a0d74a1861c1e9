package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

// All returns the invariant queries. Each query selects violating rows, so an
// empty result set means the invariant holds.
func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_prospect_identity_unique",
			SQL: `SELECT brief_id, dealer_key, COUNT(*) FROM dealer_prospects
                  GROUP BY brief_id, dealer_key HAVING COUNT(*) > 1`,
		},
		{
			Name: "O2_single_accepted_quote",
			SQL: `SELECT brief_id, COUNT(*) FROM quotes
                  WHERE status = 'accepted'
                  GROUP BY brief_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O3_contacted_has_channel",
			SQL: `SELECT id FROM dealer_prospects
                  WHERE status = 'contacted' AND email IS NULL AND phone IS NULL`,
		},
		{
			Name: "O4_status_changes_forward_only",
			SQL: `WITH ranked AS (
                      SELECT id, brief_id,
                             CASE payload->>'previous_status'
                                  WHEN 'sourcing' THEN 0 WHEN 'offers' THEN 1
                                  WHEN 'negotiation' THEN 2 WHEN 'contract' THEN 3
                                  WHEN 'done' THEN 4 END AS prev_rank,
                             CASE payload->>'next_status'
                                  WHEN 'sourcing' THEN 0 WHEN 'offers' THEN 1
                                  WHEN 'negotiation' THEN 2 WHEN 'contract' THEN 3
                                  WHEN 'done' THEN 4 END AS next_rank
                      FROM timeline_events WHERE type = 'status_changed')
                  SELECT * FROM ranked
                  WHERE prev_rank IS NULL OR next_rank IS NULL OR next_rank < prev_rank`,
		},
		{
			Name: "O5_accepted_quote_brief_advanced",
			SQL: `SELECT q.id, b.status FROM quotes q
                  JOIN briefs b ON b.id = q.brief_id
                  WHERE q.status = 'accepted' AND b.status IN ('sourcing', 'offers')`,
		},
		{
			Name: "O6_published_at_most_one",
			SQL: `SELECT brief_id, COUNT(*) FROM quotes
                  WHERE status = 'published'
                  GROUP BY brief_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O7_timeline_never_orphaned",
			SQL: `SELECT e.id FROM timeline_events e
                  LEFT JOIN briefs b ON b.id = e.brief_id
                  WHERE b.id IS NULL`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row
// text), or an empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
