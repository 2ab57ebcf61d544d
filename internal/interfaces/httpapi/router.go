package httpapi

import (
	"net/http"

	"github.com/riskibarqy/prediction-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
)

type RouterConfig struct {
	SwaggerEnabled     bool
	CORSAllowedOrigins []string
	InternalJobToken   string
	RateLimits         RateLimitStore
}

type route struct {
	pattern  string
	handle   http.HandlerFunc
	internal bool
}

func (h *Handler) routes(swaggerEnabled bool) []route {
	routes := []route{
		{pattern: "GET /healthz", handle: h.Healthz},

		{pattern: "GET /v1/leagues", handle: h.ListLeagues},
		{pattern: "GET /v1/leagues/{leagueID}/period", handle: h.GetCurrentPeriod},
		{pattern: "GET /v1/leagues/{leagueID}/leaderboard", handle: h.GetLeaderboard},
		{pattern: "GET /v1/leagues/{leagueID}/state", handle: h.GetLeagueState},
		{pattern: "GET /v1/leagues/{leagueID}/transparency", handle: h.GetTransparency},
		{pattern: "GET /v1/leagues/{leagueID}/picks", handle: h.ListPicks},
		{pattern: "POST /v1/leagues/{leagueID}/picks", handle: h.RecordPick},
		{pattern: "GET /v1/leagues/{leagueID}/swaps", handle: h.ListSwaps},
		{pattern: "POST /v1/leagues/{leagueID}/swaps", handle: h.RecordSwap},

		{pattern: "POST " + jobscheduler.PathPriceRefresh, handle: h.RunRefreshPricesJob, internal: true},
		{pattern: "POST " + jobscheduler.PathScoring, handle: h.RunRecomputeScoresJob, internal: true},
		{pattern: "GET /v1/internal/jobs/metrics", handle: h.ListJobMetrics, internal: true},
		{pattern: "GET /v1/internal/jobs/dispatches", handle: h.ListJobDispatches, internal: true},
	}
	if swaggerEnabled {
		routes = append(routes,
			route{pattern: "GET /openapi.yaml", handle: h.OpenAPI},
			route{pattern: "GET /docs", handle: h.SwaggerUI},
			route{pattern: "GET /docs/", handle: h.SwaggerUI},
		)
	}
	return routes
}

// NewRouter wires the league API behind, outermost first: tracing, access
// logging, CORS, rate limiting and panic recovery.
func NewRouter(handler *Handler, logger *logging.Logger, cfg RouterConfig) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	for _, rt := range handler.routes(cfg.SwaggerEnabled) {
		var h http.Handler = rt.handle
		if rt.internal {
			h = RequireInternalJobToken(cfg.InternalJobToken, h)
		}
		mux.Handle(rt.pattern, h)
	}

	var chain http.Handler = recoverPanic(logger, mux)
	chain = RateLimit(cfg.RateLimits, chain)
	chain = CORS(cfg.CORSAllowedOrigins, chain)
	chain = RequestLogging(logger, chain)
	return RequestTracing(chain)
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(r.Context(), "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(r.Context(), w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
