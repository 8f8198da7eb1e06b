package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/brandkit/internal/domain/social"
)

type snapshotRepo struct {
	pool *pgxpool.Pool
}

// Upsert pisa la fila del día; dos escritores concurrentes convergen.
func (r *snapshotRepo) Upsert(ctx context.Context, s social.DailySnapshot) error {
	day, err := time.Parse(social.SnapshotDateLayout, s.SnapshotDate)
	if err != nil {
		return fmt.Errorf("pg: snapshot date %q: %w", s.SnapshotDate, err)
	}
	const query = `
		INSERT INTO social_account_daily_snapshots
			(client_id, social_account_id, snapshot_date, followers, reach_7d, impressions_7d,
			 profile_views_7d, interactions_recent_posts, engagement_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (social_account_id, snapshot_date) DO UPDATE SET
			client_id = EXCLUDED.client_id,
			followers = EXCLUDED.followers,
			reach_7d = EXCLUDED.reach_7d,
			impressions_7d = EXCLUDED.impressions_7d,
			profile_views_7d = EXCLUDED.profile_views_7d,
			interactions_recent_posts = EXCLUDED.interactions_recent_posts,
			engagement_rate = EXCLUDED.engagement_rate,
			updated_at = now()`
	_, err = r.pool.Exec(ctx, query, s.ClientID, s.SocialAccountID, day, s.Followers, s.Reach7d,
		s.Impressions7d, s.ProfileViews7d, s.InteractionsRecentPosts, s.EngagementRate)
	return mapErr(err)
}

func (r *snapshotRepo) History(ctx context.Context, clientID string, accountIDs []string, fromDate string) (map[string][]social.DailySnapshot, error) {
	out := make(map[string][]social.DailySnapshot, len(accountIDs))
	if len(accountIDs) == 0 {
		return out, nil
	}
	from, err := time.Parse(social.SnapshotDateLayout, fromDate)
	if err != nil {
		return nil, fmt.Errorf("pg: history from %q: %w", fromDate, err)
	}
	const query = `
		SELECT client_id::text, social_account_id::text, to_char(snapshot_date, 'YYYY-MM-DD'),
			followers, reach_7d, impressions_7d, profile_views_7d,
			interactions_recent_posts, engagement_rate
		FROM social_account_daily_snapshots
		WHERE client_id = $1 AND social_account_id::text = ANY($2) AND snapshot_date >= $3
		ORDER BY social_account_id, snapshot_date ASC`
	rows, err := r.pool.Query(ctx, query, clientID, accountIDs, from)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		var s social.DailySnapshot
		if err := rows.Scan(&s.ClientID, &s.SocialAccountID, &s.SnapshotDate, &s.Followers, &s.Reach7d,
			&s.Impressions7d, &s.ProfileViews7d, &s.InteractionsRecentPosts, &s.EngagementRate); err != nil {
			return nil, mapErr(err)
		}
		out[s.SocialAccountID] = append(out[s.SocialAccountID], s)
	}
	return out, mapErr(rows.Err())
}
