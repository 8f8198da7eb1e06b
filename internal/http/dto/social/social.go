// Package social contiene los DTOs de /api/client/social-accounts.
package social

import (
	"encoding/json"
	"time"
)

// Account es una cuenta social ya sanitizada. Mantiene los nombres de columna.
type Account struct {
	ID                string         `json:"id"`
	ClientID          string         `json:"client_id"`
	Platform          string         `json:"platform"`
	AccountName       string         `json:"account_name"`
	AccountHandle     *string        `json:"account_handle"`
	ExternalAccountID *string        `json:"external_account_id"`
	Status            string         `json:"status"`
	ConnectedAt       time.Time      `json:"connected_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	Metadata          map[string]any `json:"metadata"`
}

// ListResponse es la respuesta de GET /api/client/social-accounts.
type ListResponse struct {
	Accounts []Account `json:"accounts"`
}

// RegisterRequest es el alta manual (POST /api/client/social-accounts).
type RegisterRequest struct {
	Platform          string                     `json:"platform"`
	AccountName       string                     `json:"accountName"`
	AccountHandle     *string                    `json:"accountHandle,omitempty"`
	ExternalAccountID *string                    `json:"externalAccountId,omitempty"`
	Metadata          map[string]json.RawMessage `json:"metadata,omitempty"`
}

// RegisterResponse devuelve la fila creada.
type RegisterResponse struct {
	Account Account `json:"account"`
}

// CompleteRequest es el body de business-complete (token del fragmento de login).
type CompleteRequest struct {
	State          string  `json:"state"`
	AccessToken    *string `json:"accessToken,omitempty"`
	LongLivedToken *string `json:"longLivedToken,omitempty"`
}

// CompleteResponse es {"ok": true}.
type CompleteResponse struct {
	OK bool `json:"ok"`
}
