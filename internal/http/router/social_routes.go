package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/brandkit/internal/http/middlewares"
)

func registerSocialRoutes(r chi.Router, d Deps) {
	if d.Social == nil {
		return
	}
	auth := mw.WithAuth(d.Auth)
	limit := mw.WithRateLimit(d.RateLimiter, nil)

	r.Route("/api/client/social-accounts", func(r chi.Router) {
		r.Use(auth)

		// El callback no exige sesión en el middleware: sin sesión también
		// redirige al panel con ?reason=.
		r.Get("/instagram/callback", d.Social.OAuth.Callback)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireTenant(), mw.WithNoStore())

			r.Get("/", d.Social.Accounts.List)
			r.Post("/", d.Social.Accounts.Register)
			r.With(limit).Get("/instagram/start", d.Social.OAuth.Start)
			r.With(limit).Post("/instagram/business-complete", d.Social.OAuth.BusinessComplete)
			if d.Insights != nil {
				r.Get("/insights", d.Insights.Get)
			}
		})
	})
}
