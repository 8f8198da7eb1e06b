// Package health contiene el service para health checks.
package health

import (
	"context"
	"fmt"
	"os"
	"time"

	dto "github.com/dropDatabas3/brandkit/internal/http/dto/health"
	"github.com/dropDatabas3/brandkit/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Deps contiene las dependencias inyectables. Los checks nil se reportan
// como disabled.
type Deps struct {
	DBCheck    func(ctx context.Context) error
	CacheCheck func(ctx context.Context) error

	// Presencia de configuración: su falta degrada pero no tira el servicio,
	// cada flujo responde 500 por su cuenta.
	OAuthConfigured  bool
	CipherConfigured bool
	CronConfigured   bool

	Timeout time.Duration
}

type healthService struct {
	deps Deps
}

func NewHealthService(deps Deps) HealthService {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	return &healthService{deps: deps}
}

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("health"), logger.Op("Check"))

	resp := dto.HealthResponse{
		Version:    os.Getenv("SERVICE_VERSION"),
		Components: make(map[string]dto.HealthStatus),
		Timestamp:  time.Now().UTC(),
	}
	critical, degraded := false, false

	ping := func(name string, check func(context.Context) error) {
		if check == nil {
			resp.Components[name] = dto.HealthStatus{Status: "disabled"}
			return
		}
		cctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
		defer cancel()
		if err := check(cctx); err != nil {
			resp.Components[name] = dto.HealthStatus{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
			critical = true
			log.Error(name+" unavailable", logger.Err(err))
			return
		}
		resp.Components[name] = dto.HealthStatus{Status: "ok"}
	}
	ping("db", s.deps.DBCheck)
	ping("cache", s.deps.CacheCheck)

	present := func(name string, ok bool) {
		if ok {
			resp.Components[name] = dto.HealthStatus{Status: "ok"}
			return
		}
		resp.Components[name] = dto.HealthStatus{Status: "missing"}
		degraded = true
	}
	present("instagram_oauth", s.deps.OAuthConfigured)
	present("token_cipher", s.deps.CipherConfigured)
	present("cron_secret", s.deps.CronConfigured)

	switch {
	case critical:
		resp.Status = "unavailable"
	case degraded:
		resp.Status = "degraded"
	default:
		resp.Status = "ready"
	}
	return resp
}
