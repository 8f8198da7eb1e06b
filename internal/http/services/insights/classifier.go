package insights

import (
	"strings"

	"github.com/dropDatabas3/brandkit/internal/oauth/meta"
)

// FailureKind clasifica una falla de lectura de insights. Es heurístico:
// Meta no documenta un contrato estable de códigos para falta de acceso.
type FailureKind int

const (
	FailureTransient FailureKind = iota
	FailurePermission
	FailureTokenExpired
)

// Códigos de Graph asociados a permisos o acceso avanzado.
var permissionCodes = map[int]struct{}{
	3:   {}, // capability
	10:  {}, // permission denied
	200: {}, // permissions error
}

const tokenExpiredCode = 190

var permissionHints = []string{
	"permission",
	"(#10)",
	"(#200)",
	"advanced access",
	"not authorized",
	"app review",
}

// Classify decide el tipo de falla a partir del status y el error de Meta.
func Classify(status int, gerr *meta.GraphError) FailureKind {
	if gerr != nil {
		if gerr.Code == tokenExpiredCode {
			return FailureTokenExpired
		}
		if _, ok := permissionCodes[gerr.Code]; ok {
			return FailurePermission
		}
		if gerr.Code >= 200 && gerr.Code <= 299 {
			return FailurePermission
		}
		msg := strings.ToLower(gerr.Message)
		for _, h := range permissionHints {
			if strings.Contains(msg, h) {
				return FailurePermission
			}
		}
	}
	if status == 403 {
		return FailurePermission
	}
	return FailureTransient
}

// Mensajes que ve el cliente cuando insightsStatus != "ok".
const (
	MessagePermission   = "Meta no devolvio insights avanzados para esta cuenta. Revisa permisos y estado de revision de la app."
	MessageTokenExpired = "El token de Meta vencio o fue revocado. Vuelve a conectar la cuenta de Instagram."
	MessageTransient    = "Meta no respondio la lectura de insights. Se reintentara en la proxima actualizacion."
	MessageLimited      = "Meta no devolvio metricas de los ultimos 7 dias. La cuenta puede no tener actividad suficiente o requerir acceso avanzado."
)

// Guidance devuelve el mensaje para una falla de insights.
func Guidance(kind FailureKind) string {
	switch kind {
	case FailurePermission:
		return MessagePermission
	case FailureTokenExpired:
		return MessageTokenExpired
	default:
		return MessageTransient
	}
}
