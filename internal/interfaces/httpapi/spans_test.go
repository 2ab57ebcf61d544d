package httpapi

import (
	"context"
	"testing"
)

func TestIsHandlerSpan(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"httpapi.Handler.RecordSwap": true,
		"httpapi.Handler.":           false,
		"httpapi.RateLimit":          false,
		"usecase.ScoringService.Run": false,
	}
	for name, want := range cases {
		if got := isHandlerSpan(name); got != want {
			t.Fatalf("isHandlerSpan(%q) got=%v want=%v", name, got, want)
		}
	}
}

func TestStartSpan_NoParentIsNoop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	got, span := startSpan(ctx, "httpapi.Handler.ListLeagues", leagueAttr("sim-daily-2026"))
	defer span.End()

	if got != ctx {
		t.Fatalf("expected the same context without a parent span")
	}
	if span.SpanContext().IsValid() {
		t.Fatalf("expected a non-recording span")
	}
}

func TestIsHealthPath(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"/healthz":                         true,
		" /READYZ ":                        true,
		"/livez":                           true,
		"/v1/leagues":                      false,
		"/v1/leagues/sim-daily-2026/swaps": false,
		"/docs":                            false,
	}
	for path, want := range cases {
		if got := isHealthPath(path); got != want {
			t.Fatalf("isHealthPath(%q) got=%v want=%v", path, got, want)
		}
	}
}
