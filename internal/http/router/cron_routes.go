package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/brandkit/internal/http/middlewares"
)

func registerCronRoutes(r chi.Router, d Deps) {
	if d.Cron == nil {
		return
	}
	r.With(mw.RequireCronSecret(d.CronSecret)).Get("/api/cron/social-snapshots", d.Cron.SocialSnapshots)
}
