package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndScrape(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := Register(Config{Registry: reg, Gatherer: reg})
	require.NoError(t, err)

	ObserveGraphCall("read_profile", "ok", 120*time.Millisecond)
	RecordOAuthOutcome("callback", "invalid_state")
	RecordHarvestAccount("decrypt_failed")
	ObserveHTTP("GET", "/readyz", 200, time.Millisecond)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `meta_graph_calls_total{op="read_profile",result="ok"} 1`)
	assert.Contains(t, body, `oauth_flow_outcomes_total{flow="callback",reason="invalid_state"} 1`)
	assert.Contains(t, body, `harvest_accounts_total{result="decrypt_failed"} 1`)
}
