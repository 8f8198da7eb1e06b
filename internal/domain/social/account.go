// Package social contiene el modelo de cuentas sociales vinculadas por cliente
// y sus snapshots diarios de métricas.
package social

import (
	"time"
)

type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
)

// Valid reporta si p es una plataforma soportada.
func (p Platform) Valid() bool {
	return p == PlatformInstagram || p == PlatformFacebook
}

type Status string

const (
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
	StatusDisconnected Status = "disconnected"
)

// Account es una cuenta social de un cliente (tenant).
//
// Unicidad: (client_id, platform, external_account_id) cuando el id es conocido;
// para filas legacy sin id se usa (client_id, platform, account_handle).
type Account struct {
	ID                string
	ClientID          string
	Platform          Platform
	AccountName       string
	AccountHandle     *string
	ExternalAccountID *string
	Status            Status
	ConnectedAt       time.Time
	UpdatedAt         time.Time
	Metadata          Metadata
}

// Handle devuelve el handle o "" si es nulo.
func (a *Account) Handle() string {
	if a.AccountHandle == nil {
		return ""
	}
	return *a.AccountHandle
}

// ExternalID devuelve el id del proveedor o "" si es nulo.
func (a *Account) ExternalID() string {
	if a.ExternalAccountID == nil {
		return ""
	}
	return *a.ExternalAccountID
}

// HandleFor arma el handle canónico "@username".
func HandleFor(username string) string {
	return "@" + username
}

// NullIfEmpty convierte "" en nil para columnas nullable.
func NullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
