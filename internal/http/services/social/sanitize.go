package social

import (
	"encoding/json"

	"github.com/dropDatabas3/brandkit/internal/domain/social"
)

// secretKeys nunca salen del servidor bajo metadata.oauth.
var secretKeys = map[string]struct{}{
	"access_token":     {},
	"refresh_token":    {},
	"token":            {},
	"token_ciphertext": {},
	"token_iv":         {},
	"token_tag":        {},
	"user_token":       {},
	"page_token":       {},
}

// SanitizeMetadata devuelve la metadata lista para el browser: sin secretos
// en ningún nivel de "oauth". El resto de las claves pasa intacto.
func SanitizeMetadata(m social.Metadata) map[string]any {
	raw, err := json.Marshal(m)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return map[string]any{}
	}
	if oauth, ok := out["oauth"]; ok {
		out["oauth"] = stripSecrets(oauth)
	}
	return out
}

func stripSecrets(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if _, secret := secretKeys[k]; secret {
				delete(t, k)
				continue
			}
			t[k] = stripSecrets(child)
		}
		return t
	case []any:
		for i := range t {
			t[i] = stripSecrets(t[i])
		}
		return t
	default:
		return v
	}
}
