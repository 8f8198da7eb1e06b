package pg

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/brandkit/internal/domain/repository"
	"github.com/dropDatabas3/brandkit/internal/domain/social"
)

type accountRepo struct {
	pool *pgxpool.Pool
}

const accountColumns = `id::text, client_id::text, platform, account_name, account_handle,
	external_account_id, status, metadata, connected_at, updated_at`

func scanAccount(row pgx.Row) (*social.Account, error) {
	var (
		a        social.Account
		platform string
		status   string
		meta     []byte
	)
	err := row.Scan(&a.ID, &a.ClientID, &platform, &a.AccountName, &a.AccountHandle,
		&a.ExternalAccountID, &status, &meta, &a.ConnectedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	a.Platform = social.Platform(platform)
	a.Status = social.Status(status)
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &a.Metadata); err != nil {
			return nil, fmt.Errorf("pg: account %s metadata: %w", a.ID, err)
		}
	}
	return &a, nil
}

func (r *accountRepo) FindByExternalID(ctx context.Context, clientID string, platform social.Platform, externalID string) (*social.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM social_accounts
		WHERE client_id = $1 AND platform = $2 AND external_account_id = $3
		LIMIT 1`
	return scanAccount(r.pool.QueryRow(ctx, query, clientID, string(platform), externalID))
}

func (r *accountRepo) FindByHandle(ctx context.Context, clientID string, platform social.Platform, handle string) (*social.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM social_accounts
		WHERE client_id = $1 AND platform = $2 AND account_handle = $3
		ORDER BY (external_account_id IS NULL) DESC, connected_at DESC
		LIMIT 1`
	return scanAccount(r.pool.QueryRow(ctx, query, clientID, string(platform), handle))
}

func (r *accountRepo) Insert(ctx context.Context, in repository.InsertAccountInput) (*social.Account, error) {
	meta, err := json.Marshal(in.Metadata)
	if err != nil {
		return nil, fmt.Errorf("pg: marshal metadata: %w", err)
	}
	query := `INSERT INTO social_accounts
		(client_id, platform, account_name, account_handle, external_account_id, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + accountColumns
	return scanAccount(r.pool.QueryRow(ctx, query, in.ClientID, string(in.Platform), in.AccountName,
		in.AccountHandle, in.ExternalAccountID, string(in.Status), meta))
}

func (r *accountRepo) Update(ctx context.Context, in repository.UpdateAccountInput) (*social.Account, error) {
	meta, err := json.Marshal(in.Metadata)
	if err != nil {
		return nil, fmt.Errorf("pg: marshal metadata: %w", err)
	}
	query := `UPDATE social_accounts SET
			account_name = $3,
			account_handle = $4,
			external_account_id = $5,
			status = $6,
			metadata = $7,
			updated_at = now()
		WHERE id = $1 AND client_id = $2
		RETURNING ` + accountColumns
	return scanAccount(r.pool.QueryRow(ctx, query, in.ID, in.ClientID, in.AccountName,
		in.AccountHandle, in.ExternalAccountID, string(in.Status), meta))
}

func (r *accountRepo) ListByClient(ctx context.Context, clientID string) ([]social.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM social_accounts
		WHERE client_id = $1
		ORDER BY connected_at DESC`
	return r.list(ctx, query, clientID)
}

func (r *accountRepo) ListConnected(ctx context.Context, clientID string, platform social.Platform) ([]social.Account, error) {
	if clientID == "" {
		query := `SELECT ` + accountColumns + `
			FROM social_accounts
			WHERE platform = $1 AND status = 'connected'
			ORDER BY client_id, connected_at`
		return r.list(ctx, query, string(platform))
	}
	query := `SELECT ` + accountColumns + `
		FROM social_accounts
		WHERE client_id = $1 AND platform = $2 AND status = 'connected'
		ORDER BY connected_at DESC`
	return r.list(ctx, query, clientID, string(platform))
}

func (r *accountRepo) list(ctx context.Context, query string, args ...any) ([]social.Account, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []social.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, mapErr(rows.Err())
}
