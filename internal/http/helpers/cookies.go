package helpers

import (
	"net/http"
	"time"
)

// CookieOptions configura cookies httpOnly de la app.
type CookieOptions struct {
	Path   string
	Secure bool
}

// BuildCookie arma una cookie httpOnly SameSite=Lax con vida ttl.
func BuildCookie(name, value string, opts CookieOptions, ttl time.Duration) *http.Cookie {
	path := opts.Path
	if path == "" {
		path = "/"
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(ttl).UTC(),
		MaxAge:   int(ttl.Seconds()),
	}
}

// BuildDeletionCookie borra la cookie en el browser (Max-Age=0).
func BuildDeletionCookie(name string, opts CookieOptions) *http.Cookie {
	path := opts.Path
	if path == "" {
		path = "/"
	}
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
	}
}

// CookieValue devuelve el valor de la cookie o "".
func CookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
