package middlewares

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dropDatabas3/brandkit/internal/http/errors"
)

// RequireCronSecret acepta "Authorization: Bearer <secret>" o "X-Cron-Secret: <secret>".
// Sin secreto configurado responde 500 (config faltante), nunca deja pasar.
func RequireCronSecret(secret string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				errors.WriteError(w, errors.ErrConfigMissing.WithDetail("CRON_SECRET"))
				return
			}
			if !cronAuthorized(r, secret) {
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func cronAuthorized(r *http.Request, secret string) bool {
	var bearer string
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		bearer = strings.TrimSpace(h[len("Bearer "):])
	}
	return constantEqual(bearer, secret) || constantEqual(r.Header.Get("X-Cron-Secret"), secret)
}

func constantEqual(a, b string) bool {
	if a == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
