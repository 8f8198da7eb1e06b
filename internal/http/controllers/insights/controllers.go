// Package insights expone las métricas on-demand del cliente autenticado.
package insights

import (
	"context"
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/brandkit/internal/http/dto/insights"
	httperrors "github.com/dropDatabas3/brandkit/internal/http/errors"
	"github.com/dropDatabas3/brandkit/internal/http/helpers"
	mw "github.com/dropDatabas3/brandkit/internal/http/middlewares"
	svc "github.com/dropDatabas3/brandkit/internal/http/services/insights"
	"github.com/dropDatabas3/brandkit/internal/observability/logger"
)

// Reader es lo que el controller necesita del engine.
type Reader interface {
	ForTenant(ctx context.Context, tenantID string) ([]dto.AccountInsights, error)
}

// Controller maneja GET /api/client/social-accounts/insights.
type Controller struct {
	reader Reader
}

func NewController(reader Reader) *Controller {
	return &Controller{reader: reader}
}

func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("InsightsController.Get"))

	items, err := c.reader.ForTenant(ctx, mw.GetTenantID(ctx))
	if err != nil {
		if errors.Is(err, svc.ErrCipherMissing) {
			log.Error("token encryption key not configured")
			httperrors.WriteError(w, httperrors.ErrConfigMissing.WithDetail("INSTAGRAM_TOKEN_ENCRYPTION_KEY"))
			return
		}
		log.Error("insights read failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}
	helpers.NoStore(w)
	helpers.WriteJSON(w, http.StatusOK, dto.Response{Insights: items})
}
