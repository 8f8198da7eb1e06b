package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	httperrors "github.com/dropDatabas3/brandkit/internal/http/errors"
	"github.com/dropDatabas3/brandkit/internal/observability/logger"
)

// TenantResolver mapea un usuario autenticado a su client_id.
// Retorna "" sin error si el usuario no pertenece a ningún cliente.
type TenantResolver interface {
	ResolveTenant(ctx context.Context, userID string, claims map[string]any) (string, error)
}

// AuthConfig configura la validación de los JWT emitidos por el proveedor de auth.
type AuthConfig struct {
	Secret     []byte
	Issuer     string
	Audience   string
	CookieName string
	Leeway     time.Duration
	Resolver   TenantResolver
}

// WithAuth valida el token (Bearer o cookie de sesión) si existe e inyecta
// claims, user id y tenant en el contexto. Nunca rechaza: cada ruta decide
// con RequireTenant o inspeccionando el contexto (el callback redirige).
func WithAuth(cfg AuthConfig) Middleware {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"}), jwt.WithLeeway(cfg.Leeway), jwt.WithExpirationRequired()}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	parser := jwt.NewParser(opts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" && cfg.CookieName != "" {
				if c, err := r.Cookie(cfg.CookieName); err == nil {
					raw = c.Value
				}
			}
			if raw == "" || len(cfg.Secret) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := parseToken(parser, raw, cfg.Secret)
			if err != nil {
				logger.From(r.Context()).Debug("session token rejected", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			sub := ClaimString(claims, "sub")
			if sub == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithClaims(r.Context(), claims)
			ctx = WithUserID(ctx, sub)
			reqLog := logger.From(ctx).With(logger.UserID(sub))

			if cfg.Resolver != nil {
				tenantID, err := cfg.Resolver.ResolveTenant(ctx, sub, claims)
				if err != nil {
					logger.From(ctx).Error("tenant resolution failed", logger.UserID(sub), logger.Err(err))
					httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithCause(err))
					return
				}
				if tenantID != "" {
					ctx = WithTenantID(ctx, tenantID)
					reqLog = reqLog.With(logger.TenantID(tenantID))
				}
			}

			ctx = logger.ToContext(ctx, reqLog)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTenant exige usuario autenticado (401) con cliente asociado (400 no_client).
func RequireTenant() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetUserID(r.Context()) == "" {
				httperrors.WriteError(w, httperrors.ErrUnauthorized)
				return
			}
			if GetTenantID(r.Context()) == "" {
				httperrors.WriteError(w, httperrors.ErrNoClient)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

func parseToken(p *jwt.Parser, raw string, secret []byte) (map[string]any, error) {
	tk, err := p.Parse(raw, func(*jwt.Token) (any, error) { return secret, nil })
	if err != nil {
		return nil, err
	}
	mc, ok := tk.Claims.(jwt.MapClaims)
	if !ok || !tk.Valid {
		return nil, errors.New("invalid token claims")
	}
	return map[string]any(mc), nil
}
