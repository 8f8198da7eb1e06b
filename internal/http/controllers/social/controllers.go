// Package social contiene los controllers de cuentas sociales y del flujo
// OAuth de Instagram Business.
package social

import (
	"time"

	"github.com/dropDatabas3/brandkit/internal/http/helpers"
	svc "github.com/dropDatabas3/brandkit/internal/http/services/social"
)

// Config son los datos de cookie y redirect que necesitan los controllers OAuth.
type Config struct {
	// AccountsPath es la pantalla del panel a la que vuelve el callback.
	AccountsPath    string
	StateCookieName string
	Cookie          helpers.CookieOptions
	StateTTL        time.Duration
}

// Controllers agrupa los controllers del dominio social.
type Controllers struct {
	Accounts *AccountsController
	OAuth    *OAuthController
}

func NewControllers(s svc.Services, cfg Config) *Controllers {
	return &Controllers{
		Accounts: NewAccountsController(s.Accounts),
		OAuth:    NewOAuthController(s.OAuth, cfg),
	}
}
