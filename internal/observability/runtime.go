// Package observability owns process-wide telemetry: Uptrace traces and logs,
// Pyroscope continuous profiling and an optional pprof listener.
package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/grafana/pyroscope-go"
	"github.com/uptrace/uptrace-go/uptrace"

	"github.com/riskibarqy/prediction-league/internal/config"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
)

// Runtime holds whatever was started so Shutdown can undo it in reverse order.
type Runtime struct {
	logger   *logging.Logger
	stoppers []stopper
}

type stopper struct {
	name string
	stop func(context.Context) error
}

var profileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocObjects,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
	pyroscope.ProfileMutexDuration,
	pyroscope.ProfileBlockDuration,
}

// Start brings up every enabled telemetry backend. On error, anything already
// started is shut down before returning.
func Start(cfg config.Config, logger *logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Default()
	}
	rt := &Runtime{logger: logger}

	steps := []struct {
		name  string
		start func(config.Config) (func(context.Context) error, error)
	}{
		{name: "uptrace", start: rt.startUptrace},
		{name: "pyroscope", start: rt.startPyroscope},
		{name: "pprof", start: rt.startPprof},
	}
	for _, step := range steps {
		stop, err := step.start(cfg)
		if err != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = rt.Shutdown(ctx)
			cancel()
			return nil, errors.Join(errors.New("start "+step.name), err)
		}
		if stop != nil {
			rt.stoppers = append(rt.stoppers, stopper{name: step.name, stop: stop})
		}
	}
	return rt, nil
}

// Shutdown flushes and stops backends in reverse start order. It is safe on a nil Runtime.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	if rt == nil {
		return nil
	}
	var errs []error
	for i := len(rt.stoppers) - 1; i >= 0; i-- {
		s := rt.stoppers[i]
		if err := s.stop(ctx); err != nil {
			rt.logger.Warn("telemetry shutdown failed", "component", s.name, "error", err)
			errs = append(errs, err)
		}
	}
	rt.stoppers = nil
	return errors.Join(errs...)
}

func (rt *Runtime) startUptrace(cfg config.Config) (func(context.Context) error, error) {
	logging.SetMirror(nil)
	if !cfg.UptraceEnabled || strings.TrimSpace(cfg.UptraceDSN) == "" {
		rt.logger.Info("uptrace disabled", "enabled", cfg.UptraceEnabled, "dsn_set", cfg.UptraceDSN != "")
		return nil, nil
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithLoggingEnabled(cfg.UptraceLogsEnabled),
	)
	if cfg.UptraceLogsEnabled {
		logging.SetMirror(newUptraceLogMirror(cfg.ServiceVersion))
	}
	rt.logger.Info("uptrace enabled", "environment", cfg.AppEnv, "logs_enabled", cfg.UptraceLogsEnabled)

	return func(ctx context.Context) error {
		logging.SetMirror(nil)
		return uptrace.Shutdown(ctx)
	}, nil
}

func (rt *Runtime) startPyroscope(cfg config.Config) (func(context.Context) error, error) {
	if !cfg.PyroscopeEnabled {
		return nil, nil
	}
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags:              map[string]string{"env": cfg.AppEnv, "version": cfg.ServiceVersion},
		ProfileTypes:      profileTypes,
	})
	if err != nil {
		return nil, err
	}
	rt.logger.Info("pyroscope enabled", "server_address", cfg.PyroscopeServerAddress, "application", cfg.PyroscopeAppName)
	return func(context.Context) error { return profiler.Stop() }, nil
}

func (rt *Runtime) startPprof(cfg config.Config) (func(context.Context) error, error) {
	if !cfg.PprofEnabled {
		return nil, nil
	}
	srv := &http.Server{
		Addr:              cfg.PprofAddr,
		Handler:           pprofMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		rt.logger.Info("pprof listening", "addr", cfg.PprofAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.logger.Error("pprof server failed", "error", err)
		}
	}()
	return srv.Shutdown, nil
}

func pprofMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /debug/pprof/", pprof.Index)
	mux.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	return mux
}
