// Package social contiene los services de cuentas sociales: alta manual,
// listado sanitizado y vinculación de Instagram Business vía OAuth.
package social

import "github.com/dropDatabas3/brandkit/internal/domain/repository"

// Deps contiene las dependencias para crear los services social.
type Deps struct {
	Accounts repository.AccountRepository
	Graph    GraphClient
	States   StateStore
	Cipher   Sealer
	OAuth    OAuthConfig
}

// Services agrupa los services del dominio social.
type Services struct {
	Accounts AccountsService
	OAuth    OAuthService
}

func NewServices(d Deps) Services {
	return Services{
		Accounts: NewAccountsService(d.Accounts),
		OAuth: NewOAuthService(OAuthDeps{
			Graph:  d.Graph,
			States: d.States,
			Cipher: d.Cipher,
			Linker: NewLinker(d.Accounts),
			Config: d.OAuth,
		}),
	}
}
