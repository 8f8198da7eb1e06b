// Package cron expone el disparo externo del harvest diario.
package cron

import (
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/brandkit/internal/http/errors"
	"github.com/dropDatabas3/brandkit/internal/http/helpers"
	svc "github.com/dropDatabas3/brandkit/internal/http/services/insights"
	"github.com/dropDatabas3/brandkit/internal/observability/logger"
)

// Controller maneja GET /api/cron/social-snapshots. El secreto lo valida
// RequireCronSecret antes de llegar acá.
type Controller struct {
	runner svc.Runner
}

func NewController(runner svc.Runner) *Controller {
	return &Controller{runner: runner}
}

func (c *Controller) SocialSnapshots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CronController.SocialSnapshots"))

	report, err := c.runner.Run(ctx)
	if err != nil {
		if errors.Is(err, svc.ErrCipherMissing) {
			log.Error("token encryption key not configured")
			httperrors.WriteError(w, httperrors.ErrConfigMissing.WithDetail("INSTAGRAM_TOKEN_ENCRYPTION_KEY"))
			return
		}
		log.Error("harvest failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}
	helpers.NoStore(w)
	helpers.WriteJSON(w, http.StatusOK, report)
}
