package social

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dropDatabas3/brandkit/internal/security/secretbox"
)

const (
	ConnectedViaOAuth    = "oauth"
	ConnectedViaFragment = "facebook_login_business"

	ProviderInstagramGraph = "facebook_login_instagram_graph"
)

// Metadata es el bag JSON de social_accounts.metadata.
// La clave "oauth" es tipada; el resto se conserva tal cual en Extra.
type Metadata struct {
	OAuth *OAuthMetadata
	Extra map[string]json.RawMessage
}

// OAuthMetadata guarda la procedencia de la vinculación y los tokens cifrados.
type OAuthMetadata struct {
	ConnectedVia      string                     `json:"connected_via,omitempty"`
	VerifiedAt        *time.Time                 `json:"verified_at,omitempty"`
	Provider          string                     `json:"provider,omitempty"`
	PageID            string                     `json:"page_id,omitempty"`
	PageName          string                     `json:"page_name,omitempty"`
	ProfileName       *string                    `json:"profile_name"`
	ProfilePictureURL *string                    `json:"profile_picture_url"`
	Biography         *string                    `json:"biography"`
	MediaCount        *int                       `json:"media_count"`
	MediaSample       []MediaSample              `json:"media_sample,omitempty"`
	TokenExpiresAt    *time.Time                 `json:"token_expires_at,omitempty"`
	UserToken         *secretbox.EncryptedSecret `json:"user_token,omitempty"`
	PageToken         *secretbox.EncryptedSecret `json:"page_token,omitempty"`

	// Extra conserva claves desconocidas de filas viejas.
	Extra map[string]json.RawMessage `json:"-"`
}

// MediaSample es una publicación guardada al momento de vincular.
type MediaSample struct {
	ID           string  `json:"id"`
	MediaType    *string `json:"media_type,omitempty"`
	MediaURL     *string `json:"media_url,omitempty"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
	Permalink    *string `json:"permalink,omitempty"`
	Timestamp    *string `json:"timestamp,omitempty"`
	Caption      *string `json:"caption,omitempty"`
}

// oauthKnown son las claves que mapean a campos de OAuthMetadata.
var oauthKnown = map[string]struct{}{
	"connected_via": {}, "verified_at": {}, "provider": {}, "page_id": {},
	"page_name": {}, "profile_name": {}, "profile_picture_url": {}, "biography": {},
	"media_count": {}, "media_sample": {}, "token_expires_at": {},
	"user_token": {}, "page_token": {},
}

type oauthAlias OAuthMetadata

func (o OAuthMetadata) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(oauthAlias(o))
	if err != nil {
		return nil, err
	}
	if len(o.Extra) == 0 {
		return known, nil
	}
	out := make(map[string]json.RawMessage, len(o.Extra)+len(oauthKnown))
	for k, v := range o.Extra {
		out[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		out[k] = v
	}
	return json.Marshal(out)
}

func (o *OAuthMetadata) UnmarshalJSON(b []byte) error {
	var a oauthAlias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		if _, ok := oauthKnown[k]; ok {
			continue
		}
		if a.Extra == nil {
			a.Extra = make(map[string]json.RawMessage)
		}
		a.Extra[k] = v
	}
	*o = OAuthMetadata(a)
	return nil
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+1)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.OAuth != nil {
		out["oauth"] = m.OAuth
	}
	return json.Marshal(out)
}

// UnmarshalJSON tolera "null" y un "oauth" con forma inesperada: en ese caso
// lo deja en Extra y OAuth queda nil.
func (m *Metadata) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	*m = Metadata{}
	for k, v := range raw {
		if k == "oauth" {
			var o OAuthMetadata
			if err := json.Unmarshal(v, &o); err == nil && string(v) != "null" {
				m.OAuth = &o
				continue
			}
		}
		if m.Extra == nil {
			m.Extra = make(map[string]json.RawMessage)
		}
		m.Extra[k] = v
	}
	return nil
}

// WithOAuth devuelve una copia con el bloque oauth reemplazado y las demás claves intactas.
func (m Metadata) WithOAuth(o *OAuthMetadata) Metadata {
	out := Metadata{OAuth: o}
	if len(m.Extra) > 0 {
		out.Extra = make(map[string]json.RawMessage, len(m.Extra))
		for k, v := range m.Extra {
			if k == "oauth" {
				continue
			}
			out.Extra[k] = v
		}
	}
	return out
}

// PageToken devuelve el token de página cifrado si está completo.
func (m Metadata) PageToken() (secretbox.EncryptedSecret, bool) {
	if m.OAuth == nil || !m.OAuth.PageToken.Complete() {
		return secretbox.EncryptedSecret{}, false
	}
	return *m.OAuth.PageToken, true
}
