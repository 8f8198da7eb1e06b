// Package router arma el árbol de rutas HTTP con chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	cronctrl "github.com/dropDatabas3/brandkit/internal/http/controllers/cron"
	healthctrl "github.com/dropDatabas3/brandkit/internal/http/controllers/health"
	insightsctrl "github.com/dropDatabas3/brandkit/internal/http/controllers/insights"
	socialctrl "github.com/dropDatabas3/brandkit/internal/http/controllers/social"
	mw "github.com/dropDatabas3/brandkit/internal/http/middlewares"
	"github.com/dropDatabas3/brandkit/internal/rate"
)

// Deps contiene todo lo que necesita el router.
type Deps struct {
	Social   *socialctrl.Controllers
	Insights *insightsctrl.Controller
	Cron     *cronctrl.Controller
	Health   *healthctrl.HealthController

	Auth       mw.AuthConfig
	CronSecret string
	// RateLimiter es opcional; nil deshabilita el rate limit de OAuth.
	RateLimiter rate.Limiter
	// Metrics es el handler de /metrics; nil no registra la ruta.
	Metrics http.Handler
}

// New devuelve el handler raíz.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	// /readyz sin logging (muy frecuente)
	if d.Health != nil {
		r.With(mw.WithRecover(), mw.WithRequestID()).Get("/readyz", d.Health.Readyz)
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(
			mw.WithRecover(),
			mw.WithRequestID(),
			mw.WithLogging(),
			mw.WithSecurityHeaders(),
		)
		registerSocialRoutes(r, d)
		registerCronRoutes(r, d)
	})
	return r
}
