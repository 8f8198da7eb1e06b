package social

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dropDatabas3/brandkit/internal/audit"
	"github.com/dropDatabas3/brandkit/internal/domain/social"
	"github.com/dropDatabas3/brandkit/internal/metrics"
	"github.com/dropDatabas3/brandkit/internal/oauth/meta"
	"github.com/dropDatabas3/brandkit/internal/oauthstate"
	"github.com/dropDatabas3/brandkit/internal/observability/logger"
	"github.com/dropDatabas3/brandkit/internal/security/secretbox"
)

const mediaSampleLimit = 3

// GraphClient es el subconjunto de meta.Client que usa el flujo de vinculación.
type GraphClient interface {
	AuthorizeURL(state string) string
	ExchangeCode(ctx context.Context, code string) meta.Result[meta.TokenResponse]
	ExchangeLongLived(ctx context.Context, shortToken string) meta.Result[meta.TokenResponse]
	ListPages(ctx context.Context, userToken string) meta.Result[meta.PagesResponse]
	ReadProfile(ctx context.Context, igID, token, fields string) meta.Result[meta.Profile]
	ListMedia(ctx context.Context, igID, token, fields string, limit int) meta.Result[meta.MediaResponse]
}

// StateStore guarda el registro server-side de un solo uso del state.
type StateStore interface {
	Issue(ctx context.Context, clientID string) (string, error)
	Consume(ctx context.Context, state, clientID string) error
	Discard(ctx context.Context, state string)
	TTL() time.Duration
}

// Sealer cifra tokens antes de persistirlos.
type Sealer interface {
	Encrypt(plaintext string) (secretbox.EncryptedSecret, error)
}

// OAuthConfig son las credenciales de la app de Meta.
type OAuthConfig struct {
	AppID       string
	AppSecret   string
	RedirectURI string
}

// OAuthService maneja la vinculación de cuentas de Instagram Business.
type OAuthService interface {
	Start(ctx context.Context, tenantID string) (*StartResult, error)
	Callback(ctx context.Context, in CallbackInput) Outcome
	CompleteFragment(ctx context.Context, in FragmentInput) Outcome
}

// OAuthDeps contiene las dependencias del service. Cipher nil equivale a
// clave de cifrado no configurada.
type OAuthDeps struct {
	Graph  GraphClient
	States StateStore
	Cipher Sealer
	Linker *Linker
	Config OAuthConfig
	Now    func() time.Time
}

type oauthService struct {
	deps OAuthDeps
}

func NewOAuthService(deps OAuthDeps) OAuthService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &oauthService{deps: deps}
}

var (
	ErrStartMissingConfig = errors.New("oauth start: missing app id or redirect uri")
	ErrStartNoTenant      = errors.New("oauth start: no tenant")
)

// StartResult contiene la URL del diálogo y el state para la cookie.
type StartResult struct {
	AuthorizeURL string
	State        string
	TTL          time.Duration
}

// CallbackInput son los datos del redirect de Meta más la sesión y la cookie.
type CallbackInput struct {
	TenantID      string
	UserID        string
	ProviderError string
	State         string
	Code          string
	CookieState   string
}

// FragmentInput es la variante en la que el front ya tiene el token de usuario.
type FragmentInput struct {
	TenantID       string
	UserID         string
	State          string
	AccessToken    *string
	LongLivedToken *string
	CookieState    string
}

const (
	flowCallback = "callback"
	flowFragment = "fragment"
)

func (s *oauthService) Start(ctx context.Context, tenantID string) (*StartResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("social.oauth"), logger.Op("Start"))

	if tenantID == "" {
		return nil, ErrStartNoTenant
	}
	if strings.TrimSpace(s.deps.Config.AppID) == "" || strings.TrimSpace(s.deps.Config.RedirectURI) == "" {
		return nil, ErrStartMissingConfig
	}

	state, err := s.deps.States.Issue(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	log.Info("oauth flow started", logger.TenantID(tenantID), logger.Stage(StateStarted.String()))
	return &StartResult{
		AuthorizeURL: s.deps.Graph.AuthorizeURL(state),
		State:        state,
		TTL:          s.deps.States.TTL(),
	}, nil
}

func (s *oauthService) Callback(ctx context.Context, in CallbackInput) (out Outcome) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("social.oauth"), logger.Op("Callback"))
	defer func() { s.finish(ctx, flowCallback, in.CookieState, out) }()

	if in.ProviderError != "" {
		return rejected(ProviderReason(in.ProviderError))
	}
	if in.State == "" || in.Code == "" || in.CookieState == "" || in.State != in.CookieState {
		return rejected(ReasonInvalidState)
	}
	if r, ok := s.verify(ctx, in.TenantID, in.UserID, in.State); !ok {
		return rejected(r)
	}

	cfg := s.deps.Config
	if cfg.AppID == "" || cfg.AppSecret == "" || cfg.RedirectURI == "" || s.deps.Cipher == nil {
		log.Error("oauth config missing")
		return rejected(ReasonMissingEnv)
	}

	tok := s.deps.Graph.ExchangeCode(ctx, in.Code)
	if !tok.OK {
		log.Warn("code exchange failed", logger.Stage(string(ReasonTokenExchangeFailed)), logger.String("detail", tok.Failed()))
		return linkFailed(ReasonTokenExchangeFailed)
	}
	userToken := deref(tok.Data.AccessToken)
	if userToken == "" {
		return linkFailed(ReasonMissingAccessToken)
	}

	// Upgrade a long-lived: si falla seguimos con el token corto y sin vencimiento.
	var expiresIn int64
	if ll := s.deps.Graph.ExchangeLongLived(ctx, userToken); ll.OK && deref(ll.Data.AccessToken) != "" {
		userToken = *ll.Data.AccessToken
		if ll.Data.ExpiresIn != nil {
			expiresIn = *ll.Data.ExpiresIn
		}
	} else {
		log.Info("long-lived exchange skipped", logger.String("detail", ll.Failed()))
	}

	return s.link(ctx, in.TenantID, userToken, expiresIn, social.ConnectedViaOAuth)
}

func (s *oauthService) CompleteFragment(ctx context.Context, in FragmentInput) (out Outcome) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("social.oauth"), logger.Op("CompleteFragment"))
	defer func() { s.finish(ctx, flowFragment, in.CookieState, out) }()

	if in.UserID == "" {
		return rejected(ReasonUnauthorized)
	}
	if in.TenantID == "" {
		return rejected(ReasonNoClient)
	}
	if !validFragment(in) {
		return rejected(ReasonInvalidRequest)
	}
	if in.CookieState == "" || in.State != in.CookieState {
		return rejected(ReasonInvalidState)
	}
	if r, ok := s.verify(ctx, in.TenantID, in.UserID, in.State); !ok {
		return rejected(r)
	}

	userToken := deref(in.LongLivedToken)
	if userToken == "" {
		userToken = deref(in.AccessToken)
	}
	if userToken == "" {
		return rejected(ReasonMissingToken)
	}
	if s.deps.Cipher == nil {
		log.Error("token encryption key missing")
		return rejected(ReasonMissingEnv)
	}

	return s.link(ctx, in.TenantID, userToken, 0, social.ConnectedViaFragment)
}

func validFragment(in FragmentInput) bool {
	if len(in.State) < 8 {
		return false
	}
	if in.AccessToken != nil && len(*in.AccessToken) < 10 {
		return false
	}
	if in.LongLivedToken != nil && len(*in.LongLivedToken) < 10 {
		return false
	}
	return true
}

// verify chequea sesión, prefijo de cliente y consume el registro server-side.
func (s *oauthService) verify(ctx context.Context, tenantID, userID, state string) (Reason, bool) {
	if userID == "" {
		return ReasonUnauthorized, false
	}
	if tenantID == "" {
		return ReasonNoClient, false
	}
	if !oauthstate.HasClientPrefix(state, tenantID) {
		return ReasonInvalidClient, false
	}
	err := s.deps.States.Consume(ctx, state, tenantID)
	switch {
	case err == nil:
		return "", true
	case errors.Is(err, oauthstate.ErrClientMismatch):
		return ReasonInvalidClient, false
	case errors.Is(err, oauthstate.ErrUnknownState):
		return ReasonInvalidState, false
	default:
		logger.From(ctx).Error("state store unavailable", logger.Err(err))
		return ReasonInvalidState, false
	}
}

// link resuelve página, perfil y muestra de media con el token de usuario,
// cifra ambos tokens y hace el upsert de la cuenta.
func (s *oauthService) link(ctx context.Context, tenantID, userToken string, expiresIn int64, connectedVia string) Outcome {
	log := logger.From(ctx).With(logger.Component("social.oauth"), logger.TenantID(tenantID))

	pages := s.deps.Graph.ListPages(ctx, userToken)
	if !pages.OK {
		log.Warn("pages read failed", logger.String("detail", pages.Failed()))
		return linkFailed(ReasonPagesReadFailed)
	}
	page, ok := pages.Data.FirstWithBusinessAccount()
	if !ok {
		return linkFailed(ReasonNoBusinessAccount)
	}
	pageToken := deref(page.AccessToken)
	if pageToken == "" {
		return linkFailed(ReasonMissingPageAccessToken)
	}
	igID := deref(page.InstagramBusinessAccount.ID)

	prof := s.deps.Graph.ReadProfile(ctx, igID, pageToken, meta.ProfileLinkFields)
	if !prof.OK {
		log.Warn("profile read failed", logger.String("detail", prof.Failed()))
		return linkFailed(ReasonProfileReadFailed)
	}
	profile := prof.Data
	if deref(profile.ID) == "" || deref(profile.Username) == "" {
		return linkFailed(ReasonInvalidProfile)
	}

	samples := []social.MediaSample{}
	if media := s.deps.Graph.ListMedia(ctx, igID, pageToken, meta.MediaSampleFields, mediaSampleLimit); media.OK {
		samples = toMediaSamples(media.Data.Data)
	}

	sealedUser, err := s.deps.Cipher.Encrypt(userToken)
	if err != nil {
		log.Error("user token encryption failed", logger.Err(err))
		return linkFailed(ReasonEncryptFailed)
	}
	sealedPage, err := s.deps.Cipher.Encrypt(pageToken)
	if err != nil {
		log.Error("page token encryption failed", logger.Err(err))
		return linkFailed(ReasonEncryptFailed)
	}

	now := s.deps.Now().UTC()
	oauth := &social.OAuthMetadata{
		ConnectedVia:      connectedVia,
		VerifiedAt:        &now,
		Provider:          social.ProviderInstagramGraph,
		PageID:            deref(page.ID),
		PageName:          deref(page.Name),
		ProfileName:       profile.Name,
		ProfilePictureURL: profile.ProfilePictureURL,
		Biography:         profile.Biography,
		MediaSample:       samples,
		UserToken:         &sealedUser,
		PageToken:         &sealedPage,
	}
	if profile.MediaCount != nil {
		n := int(*profile.MediaCount)
		oauth.MediaCount = &n
	}
	if expiresIn > 0 {
		exp := now.Add(time.Duration(expiresIn) * time.Second)
		oauth.TokenExpiresAt = &exp
	}

	res, err := s.deps.Linker.Link(ctx, LinkInput{
		ClientID:   tenantID,
		Platform:   social.PlatformInstagram,
		ExternalID: *profile.ID,
		Username:   *profile.Username,
		OAuth:      oauth,
	})
	if err != nil {
		log.Error("account link failed", logger.Err(err))
		switch {
		case errors.Is(err, ErrLinkUpdate):
			return linkFailed(ReasonDBUpdateFailed)
		case errors.Is(err, ErrLinkLookup):
			return linkFailed(ReasonDBReadFailed)
		default:
			return linkFailed(ReasonDBInsertFailed)
		}
	}

	log.Info("instagram account linked",
		logger.AccountID(res.Account.ID),
		logger.Bool("created", res.Created),
		logger.String("connected_via", connectedVia),
	)
	return Outcome{State: StateLinked, Reason: ReasonSuccess, AccountID: res.Account.ID, Created: res.Created}
}

// finish registra el estado terminal y quema el registro del state.
func (s *oauthService) finish(ctx context.Context, flow, state string, out Outcome) {
	s.deps.States.Discard(ctx, state)
	metrics.RecordOAuthOutcome(flow, string(out.Reason))
	if out.OK() {
		audit.Log(ctx, audit.EventAccountLinked,
			logger.AccountID(out.AccountID),
			logger.String("flow", flow),
			logger.Bool("created", out.Created),
		)
		return
	}
	audit.Log(ctx, audit.EventOAuthRejected,
		logger.String("flow", flow),
		logger.Stage(out.State.String()),
		logger.Reason(string(out.Reason)),
	)
}

func toMediaSamples(items []meta.Media) []social.MediaSample {
	out := make([]social.MediaSample, 0, len(items))
	for _, m := range items {
		out = append(out, social.MediaSample{
			ID:           deref(m.ID),
			MediaType:    m.MediaType,
			MediaURL:     m.MediaURL,
			ThumbnailURL: m.ThumbnailURL,
			Permalink:    m.Permalink,
			Timestamp:    m.Timestamp,
			Caption:      m.Caption,
		})
	}
	return out
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
