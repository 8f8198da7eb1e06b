// Package store abre el backend de persistencia según la configuración.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/brandkit/internal/config"
	"github.com/dropDatabas3/brandkit/internal/domain/repository"
	"github.com/dropDatabas3/brandkit/internal/store/memory"
	"github.com/dropDatabas3/brandkit/internal/store/pg"
)

// Open devuelve el store configurado. Con storage.migrate=true aplica las
// migraciones de PostgreSQL antes de abrir el pool.
func Open(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch strings.ToLower(cfg.Storage.Driver) {
	case "postgres", "pg", "postgresql":
		if cfg.Storage.Migrate {
			if err := Migrate(cfg.Storage.DSN); err != nil {
				return nil, err
			}
		}
		return pg.Open(ctx, cfg.Storage.DSN, pg.PoolConfig{
			MaxConns:        cfg.Storage.Postgres.MaxOpenConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Storage.Driver)
	}
}

// Migrate aplica todas las migraciones pendientes.
func Migrate(dsn string) error {
	m, err := pg.NewMigrator(dsn)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}
