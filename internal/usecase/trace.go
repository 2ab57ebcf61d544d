package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("prediction-league/internal/usecase")

// startUsecaseSpan only opens a child when the caller is already traced, so
// scheduler ticks and tests without a parent stay span-free.
func startUsecaseSpan(ctx context.Context, name string, leagueID ...string) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if name == "" || !parent.SpanContext().IsValid() {
		return ctx, trace.SpanFromContext(context.Background())
	}

	var attrs []attribute.KeyValue
	if len(leagueID) > 0 && leagueID[0] != "" {
		attrs = append(attrs, attribute.String("league.id", leagueID[0]))
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
