package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dropDatabas3/brandkit/internal/observability/logger"
)

func TestLogUsesContextLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core).With(logger.TenantID("t1")))

	Log(ctx, EventAccountLinked, logger.AccountID("a1"))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "audit", fields["component"])
	assert.Equal(t, EventAccountLinked, fields["event"])
	assert.Equal(t, "a1", fields["account_id"])
	assert.Equal(t, "t1", fields["tenant_id"])
}
