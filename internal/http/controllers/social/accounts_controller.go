package social

import (
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/brandkit/internal/http/dto/social"
	httperrors "github.com/dropDatabas3/brandkit/internal/http/errors"
	"github.com/dropDatabas3/brandkit/internal/http/helpers"
	mw "github.com/dropDatabas3/brandkit/internal/http/middlewares"
	svc "github.com/dropDatabas3/brandkit/internal/http/services/social"
	"github.com/dropDatabas3/brandkit/internal/observability/logger"
)

// AccountsController maneja GET/POST /api/client/social-accounts.
type AccountsController struct {
	service svc.AccountsService
}

func NewAccountsController(service svc.AccountsService) *AccountsController {
	return &AccountsController{service: service}
}

// List devuelve las cuentas del cliente con la metadata sanitizada.
func (c *AccountsController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AccountsController.List"))

	accounts, err := c.service.List(ctx, mw.GetTenantID(ctx))
	if err != nil {
		log.Error("list accounts failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}
	helpers.NoStore(w)
	helpers.WriteJSON(w, http.StatusOK, dto.ListResponse{Accounts: accounts})
}

// Register da de alta una cuenta manual (sin OAuth).
func (c *AccountsController) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AccountsController.Register"))

	var req dto.RegisterRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	acc, err := c.service.Register(ctx, mw.GetTenantID(ctx), req)
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrAccountInvalid):
			httperrors.WriteError(w, httperrors.ErrValidation.WithDetail(err.Error()))
		case errors.Is(err, svc.ErrAccountConflict):
			httperrors.WriteError(w, httperrors.ErrConflict)
		default:
			log.Error("register account failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, dto.RegisterResponse{Account: *acc})
}
