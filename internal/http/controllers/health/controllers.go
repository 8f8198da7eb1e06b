// Package health contiene el controller para health checks.
package health

import (
	"net/http"

	"github.com/dropDatabas3/brandkit/internal/http/helpers"
	svc "github.com/dropDatabas3/brandkit/internal/http/services/health"
	"github.com/dropDatabas3/brandkit/internal/observability/logger"
)

// HealthController maneja GET /readyz.
type HealthController struct {
	service svc.HealthService
}

func NewHealthController(service svc.HealthService) *HealthController {
	return &HealthController{service: service}
}

// Readyz responde 503 solo si falla un componente crítico (db o cache).
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Readyz"))

	resp := c.service.Check(ctx)
	if resp.Version != "" {
		w.Header().Set("X-Service-Version", resp.Version)
	}

	status := http.StatusOK
	if resp.Status == "unavailable" {
		status = http.StatusServiceUnavailable
	}
	log.Debug("health check completed", logger.String("status", resp.Status))

	helpers.NoStore(w)
	helpers.WriteJSON(w, status, resp)
}
