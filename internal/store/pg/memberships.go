package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type membershipRepo struct {
	pool *pgxpool.Pool
}

func (r *membershipRepo) ClientIDForUser(ctx context.Context, userID string) (string, error) {
	const query = `SELECT client_id::text FROM client_users WHERE user_id = $1 LIMIT 1`
	var clientID string
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&clientID); err != nil {
		return "", mapErr(err)
	}
	return clientID, nil
}
