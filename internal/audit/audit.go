// Package audit emite eventos de auditoría sobre cuentas sociales como
// entradas de log estructuradas (component=audit). El logger del contexto ya
// trae request_id, tenant y usuario.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/brandkit/internal/observability/logger"
)

// Eventos.
const (
	EventAccountLinked     = "social_account.linked"
	EventAccountRegistered = "social_account.registered"
	EventOAuthRejected     = "social_oauth.rejected"
)

// Log escribe el evento a nivel info.
func Log(ctx context.Context, event string, fields ...zap.Field) {
	all := make([]zap.Field, 0, len(fields)+2)
	all = append(all, logger.Component("audit"), zap.String("event", event))
	all = append(all, fields...)
	logger.From(ctx).Info("audit", all...)
}
