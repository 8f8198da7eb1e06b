// Package pg implementa los repositorios sobre PostgreSQL con pgxpool.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/brandkit/internal/domain/repository"
)

// PoolConfig ajusta el pool de conexiones.
type PoolConfig struct {
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
}

// Store agrupa los repositorios PostgreSQL sobre un único pool.
type Store struct {
	pool        *pgxpool.Pool
	accounts    *accountRepo
	snapshots   *snapshotRepo
	memberships *membershipRepo
}

var _ repository.Store = (*Store)(nil)

// Open crea el pool y verifica la conexión.
func Open(ctx context.Context, dsn string, cfg PoolConfig) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: new pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return New(pool), nil
}

// New arma el store sobre un pool existente.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:        pool,
		accounts:    &accountRepo{pool: pool},
		snapshots:   &snapshotRepo{pool: pool},
		memberships: &membershipRepo{pool: pool},
	}
}

func (s *Store) Accounts() repository.AccountRepository       { return s.accounts }
func (s *Store) Snapshots() repository.SnapshotRepository     { return s.snapshots }
func (s *Store) Memberships() repository.MembershipRepository { return s.memberships }

// Pool expone el pool para el collector de métricas.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// mapErr traduce errores de pgx a errores de dominio.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", repository.ErrConflict, pgErr.ConstraintName)
		case "22P02", "23514": // invalid_text_representation, check_violation
			return fmt.Errorf("%w: %s", repository.ErrInvalidInput, pgErr.Message)
		}
	}
	return err
}
