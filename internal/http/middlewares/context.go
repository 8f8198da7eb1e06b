package middlewares

import "context"

type ctxKey string

const (
	ctxClaimsKey    ctxKey = "claims"
	ctxUserIDKey    ctxKey = "user_id"
	ctxTenantIDKey  ctxKey = "tenant_id"
	ctxRequestIDKey ctxKey = "request_id"
)

// WithClaims inyecta claims en el contexto
func WithClaims(ctx context.Context, claims map[string]any) context.Context {
	return context.WithValue(ctx, ctxClaimsKey, claims)
}

// WithUserID inyecta el user ID (sub) en el contexto
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserIDKey, userID)
}

// WithTenantID inyecta el client_id del usuario en el contexto
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ctxTenantIDKey, tenantID)
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetClaims retorna nil si el token no fue validado.
func GetClaims(ctx context.Context) map[string]any {
	if m, ok := ctx.Value(ctxClaimsKey).(map[string]any); ok {
		return m
	}
	return nil
}

// GetUserID retorna "" si no hay usuario autenticado.
func GetUserID(ctx context.Context) string {
	s, _ := ctx.Value(ctxUserIDKey).(string)
	return s
}

// GetTenantID retorna "" si el usuario no pertenece a ningún cliente.
func GetTenantID(ctx context.Context) string {
	s, _ := ctx.Value(ctxTenantIDKey).(string)
	return s
}

func GetRequestID(ctx context.Context) string {
	s, _ := ctx.Value(ctxRequestIDKey).(string)
	return s
}

// ClaimString extrae un string de las claims.
func ClaimString(claims map[string]any, key string) string {
	if claims == nil {
		return ""
	}
	s, _ := claims[key].(string)
	return s
}
