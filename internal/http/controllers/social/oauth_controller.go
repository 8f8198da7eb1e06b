package social

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	dto "github.com/dropDatabas3/brandkit/internal/http/dto/social"
	httperrors "github.com/dropDatabas3/brandkit/internal/http/errors"
	"github.com/dropDatabas3/brandkit/internal/http/helpers"
	mw "github.com/dropDatabas3/brandkit/internal/http/middlewares"
	svc "github.com/dropDatabas3/brandkit/internal/http/services/social"
	"github.com/dropDatabas3/brandkit/internal/observability/logger"
)

// OAuthController maneja start, callback y business-complete de Instagram.
type OAuthController struct {
	service svc.OAuthService
	cfg     Config
}

func NewOAuthController(service svc.OAuthService, cfg Config) *OAuthController {
	if cfg.AccountsPath == "" {
		cfg.AccountsPath = "/client/accounts"
	}
	if cfg.StateCookieName == "" {
		cfg.StateCookieName = "ig_oauth_state"
	}
	return &OAuthController{service: service, cfg: cfg}
}

// Start setea la cookie de state y redirige al diálogo de Meta.
func (c *OAuthController) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("OAuthController.Start"))

	res, err := c.service.Start(ctx, mw.GetTenantID(ctx))
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrStartMissingConfig):
			log.Error("instagram oauth not configured")
			httperrors.WriteError(w, httperrors.ErrConfigMissing)
		case errors.Is(err, svc.ErrStartNoTenant):
			httperrors.WriteError(w, httperrors.ErrNoClient)
		default:
			log.Error("oauth start failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
		}
		return
	}

	ttl := res.TTL
	if ttl <= 0 {
		ttl = c.cfg.StateTTL
	}
	http.SetCookie(w, helpers.BuildCookie(c.cfg.StateCookieName, res.State, c.cfg.Cookie, ttl))
	helpers.NoStore(w)
	http.Redirect(w, r, res.AuthorizeURL, http.StatusFound)
}

// Callback procesa el redirect de Meta y vuelve al panel con ?oauth=.
func (c *OAuthController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	out := c.service.Callback(ctx, svc.CallbackInput{
		TenantID:      mw.GetTenantID(ctx),
		UserID:        mw.GetUserID(ctx),
		ProviderError: strings.TrimSpace(q.Get("error")),
		State:         strings.TrimSpace(q.Get("state")),
		Code:          strings.TrimSpace(q.Get("code")),
		CookieState:   helpers.CookieValue(r, c.cfg.StateCookieName),
	})

	http.SetCookie(w, helpers.BuildDeletionCookie(c.cfg.StateCookieName, c.cfg.Cookie))
	helpers.NoStore(w)
	http.Redirect(w, r, c.resultURL(out), http.StatusFound)
}

// BusinessComplete es la variante en la que el front ya obtuvo el token de
// usuario (flujo Facebook Login for Business con token en el fragment).
func (c *OAuthController) BusinessComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// la cookie se consume siempre, aun con body inválido
	http.SetCookie(w, helpers.BuildDeletionCookie(c.cfg.StateCookieName, c.cfg.Cookie))

	var req dto.CompleteRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	out := c.service.CompleteFragment(ctx, svc.FragmentInput{
		TenantID:       mw.GetTenantID(ctx),
		UserID:         mw.GetUserID(ctx),
		State:          strings.TrimSpace(req.State),
		AccessToken:    req.AccessToken,
		LongLivedToken: req.LongLivedToken,
		CookieState:    helpers.CookieValue(r, c.cfg.StateCookieName),
	})
	if !out.OK() {
		httperrors.WriteError(w, outcomeError(out.Reason))
		return
	}
	helpers.NoStore(w)
	helpers.WriteJSON(w, http.StatusOK, dto.CompleteResponse{OK: true})
}

func (c *OAuthController) resultURL(out svc.Outcome) string {
	q := url.Values{}
	if out.OK() {
		q.Set("oauth", "success")
	} else {
		q.Set("oauth", "error")
		q.Set("reason", string(out.Reason))
	}
	u, err := url.Parse(c.cfg.AccountsPath)
	if err != nil {
		return "/client/accounts?" + q.Encode()
	}
	merged := u.Query()
	for k, v := range q {
		merged[k] = v
	}
	u.RawQuery = merged.Encode()
	return u.String()
}

// outcomeError traduce un reason de OAuth a la respuesta JSON.
func outcomeError(reason svc.Reason) *httperrors.AppError {
	switch reason {
	case svc.ReasonMissingEnv:
		return httperrors.ErrConfigMissing
	case svc.ReasonUnauthorized:
		return httperrors.ErrUnauthorized
	case svc.ReasonNoClient:
		return httperrors.ErrNoClient
	case svc.ReasonInvalidState:
		return httperrors.ErrInvalidState
	case svc.ReasonInvalidClient:
		return httperrors.ErrInvalidClientState
	case svc.ReasonEncryptFailed, svc.ReasonDBReadFailed, svc.ReasonDBUpdateFailed, svc.ReasonDBInsertFailed:
		return httperrors.ErrInternalServerError.WithReason(string(reason))
	case svc.ReasonInvalidRequest, svc.ReasonMissingToken:
		return httperrors.ErrValidation.WithReason(string(reason))
	default:
		return httperrors.ErrUpstream.WithReason(string(reason))
	}
}
