package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/pickem/internal/config"
	"github.com/riskibarqy/pickem/internal/platform/logging"
)

func TestSetupAllDisabled(t *testing.T) {
	stack, err := Setup(config.Config{
		ServiceName:    "pickem-api",
		ServiceVersion: "dev",
		AppEnv:         config.EnvDev,
	}, logging.NewNop())
	require.NoError(t, err)

	assert.Nil(t, stack.pprof)
	assert.NoError(t, stack.Shutdown(context.Background()))
}

func TestSetupRejectsMalformedDSN(t *testing.T) {
	_, err := Setup(config.Config{UptraceEnabled: true, UptraceDSN: "project-token@uptrace"}, logging.NewNop())
	assert.Error(t, err)
}

func TestNilStackShutdown(t *testing.T) {
	var stack *Stack
	assert.NoError(t, stack.Shutdown(context.Background()))
}

func TestPprofMuxServesIndex(t *testing.T) {
	rec := httptest.NewRecorder()
	pprofMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	pprofMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
