package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/prediction-league/internal/config"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
)

func memoryConfig() config.Config {
	return config.Config{
		AppEnv:              config.EnvDev,
		ServiceName:         "prediction-league-api",
		HTTPAddr:            ":0",
		CacheEnabled:        true,
		CacheTTL:            time.Minute,
		CORSAllowedOrigins:  []string{"*"},
		ShutdownTimeout:     time.Second,
		GammaBaseURL:        "http://127.0.0.1:1",
		GammaTimeout:        time.Second,
		GammaRatePerSecond:  1,
		GammaRateBurst:      1,
		SwapFeeRate:         decimal.RequireFromString("0.01"),
		JobPriceInterval:    time.Hour,
		JobScoringInterval:  time.Hour,
		JobRunTimeout:       time.Second,
		JobMaxWorkers:       1,
		JobMetricCapacity:   10,
		RateLimitPerSecond:  100,
		RateLimitBurst:      100,
		RateLimitMaxClients: 10,
		InternalJobToken:    "job-secret",
	}
}

func TestNew_InMemoryServesSeededLeagues(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), memoryConfig(), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/leagues", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sim-daily-2026")

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "swagger is off unless configured")
}

func TestNew_RejectsEmptyAddr(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig()
	cfg.HTTPAddr = ""
	if _, err := New(context.Background(), cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for empty http addr")
	}
}

func TestNew_QStashRequiresValidURLs(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig()
	cfg.QStashEnabled = true
	cfg.QStashBaseURL = "ftp://qstash"
	cfg.QStashTargetBaseURL = "https://prediction-league.fly.dev"
	if _, err := New(context.Background(), cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for unsupported qstash scheme")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.JobSchedulerEnabled = true
	a, err := New(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
}
