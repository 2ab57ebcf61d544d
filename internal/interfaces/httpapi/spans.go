package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const handlerSpanPrefix = "httpapi.Handler."

var apiTracer = otel.Tracer("prediction-league/internal/interfaces/httpapi")

// startSpan opens a child span for handler entry points. Anything else, or a
// request that was never traced (health checks), gets the parent back unchanged.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() || !isHandlerSpan(name) {
		return ctx, trace.SpanFromContext(context.Background())
	}
	return apiTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func isHandlerSpan(name string) bool {
	return strings.HasPrefix(name, handlerSpanPrefix) && len(name) > len(handlerSpanPrefix)
}

func leagueAttr(leagueID string) attribute.KeyValue {
	return attribute.String("league.id", leagueID)
}

// isHealthPath reports liveness and readiness check paths. Those requests are neither
// traced nor rate limited.
func isHealthPath(path string) bool {
	switch strings.ToLower(strings.TrimSpace(path)) {
	case "/healthz", "/livez", "/readyz":
		return true
	default:
		return false
	}
}
