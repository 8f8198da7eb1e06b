package logger

import (
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(v int64) zap.Field {
	return zap.Int64("duration_ms", v)
}

// Duration crea un campo para una duración.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// Bytes crea un campo para los bytes de respuesta.
func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

// ClientIP crea un campo para la IP del cliente.
func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - NEGOCIO
// =================================================================================

// TenantID crea un campo para el cliente (tenant) dueño de las cuentas.
func TenantID(v string) zap.Field {
	return zap.String("tenant_id", v)
}

// UserID crea un campo para el ID del usuario autenticado.
func UserID(v string) zap.Field {
	return zap.String("user_id", v)
}

// AccountID crea un campo para el ID de una cuenta social.
func AccountID(v string) zap.Field {
	return zap.String("account_id", v)
}

// Platform crea un campo para la plataforma social (instagram, facebook).
func Platform(v string) zap.Field {
	return zap.String("platform", v)
}

// Reason crea un campo para el código de motivo de un resultado.
func Reason(v string) zap.Field {
	return zap.String("reason", v)
}

// Stage crea un campo para la etapa de un flujo (oauth, harvest).
func Stage(v string) zap.Field {
	return zap.String("stage", v)
}

// GraphURL registra una URL de la Graph API sin el access_token.
func GraphURL(raw string) zap.Field {
	return zap.String("graph_url", RedactURL(raw))
}

// RedactURL elimina parámetros sensibles de una URL antes de loguearla.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid-url>"
	}
	q := u.Query()
	for k := range q {
		switch strings.ToLower(k) {
		case "access_token", "client_secret", "fb_exchange_token", "code":
			q.Set(k, "REDACTED")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer crea un campo para la capa (controller, service, repository).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Int crea un campo int genérico.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}
