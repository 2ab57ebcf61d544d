package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/prediction-league/internal/config"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
)

func TestStart_AllDisabled(t *testing.T) {
	cfg := config.Config{
		ServiceName:    "prediction-league-api",
		ServiceVersion: "dev",
		AppEnv:         config.EnvDev,
	}

	rt, err := Start(cfg, logging.NewNop())
	require.NoError(t, err)
	assert.Empty(t, rt.stoppers)
	require.NoError(t, rt.Shutdown(context.Background()))
}

func TestShutdown_ReverseOrderAndJoinedErrors(t *testing.T) {
	t.Parallel()

	var order []string
	errFlush := errors.New("flush failed")
	rt := &Runtime{logger: logging.NewNop(), stoppers: []stopper{
		{name: "uptrace", stop: func(context.Context) error { order = append(order, "uptrace"); return errFlush }},
		{name: "pprof", stop: func(context.Context) error { order = append(order, "pprof"); return nil }},
	}}

	err := rt.Shutdown(context.Background())
	require.ErrorIs(t, err, errFlush)
	assert.Equal(t, []string{"pprof", "uptrace"}, order)
	assert.Nil(t, rt.stoppers)

	var nilRuntime *Runtime
	assert.NoError(t, nilRuntime.Shutdown(context.Background()))
}

func TestPprofMux_ServesIndex(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	pprofMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}
}
