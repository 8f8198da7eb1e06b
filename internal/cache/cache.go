// Package cache provee un key/value con TTL y dos backends:
//   - Memory (in-process, go-cache) para una sola instancia o tests
//   - Redis (distribuido) cuando hay varias réplicas del servicio
//
// Lo usa el store de state de OAuth, que necesita Take atómico.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe o expiró.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor. ttl 0 usa el default del backend.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Take obtiene y borra la key atómicamente (single-use).
	// Retorna ErrNotFound si no existe.
	Take(ctx context.Context, key string) (string, error)

	// Delete elimina una key. No falla si no existe.
	Delete(ctx context.Context, key string) error

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close libera recursos.
	Close() error
}

// ErrNotFound se retorna cuando la key no existe.
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Config configuración para crear un cliente de cache.
type Config struct {
	Driver     string // "memory" | "redis"
	Prefix     string
	DefaultTTL time.Duration
	// Redis se reutiliza con el rate limiter; lo crea el wiring.
	Redis *rdb.Client
}

// New crea un cliente de cache según la configuración.
func New(cfg Config) (Client, error) {
	switch cfg.Driver {
	case "redis":
		if cfg.Redis == nil {
			return nil, fmt.Errorf("cache: redis driver without client")
		}
		return NewRedis(cfg.Redis, cfg.Prefix), nil
	case "memory", "":
		return NewMemory(cfg.DefaultTTL), nil
	default:
		return nil, fmt.Errorf("cache: unsupported driver %q", cfg.Driver)
	}
}
