package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/prediction-league/internal/usecase"
)

func TestWriteSuccess_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	if _, ok := body["data"]; !ok {
		t.Fatalf("expected data key in success response")
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("did not expect error key in success response")
	}
}

func TestWriteError_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("%w: bad payload", usecase.ErrInvalidInput))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	errorObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response")
	}
	if got, _ := errorObj["status"].(string); got != "INVALID_ARGUMENT" {
		t.Fatalf("expected error status INVALID_ARGUMENT, got %v", errorObj["status"])
	}
}

func TestMapError_StatusTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status int
		reason string
	}{
		{name: "invalid", err: fmt.Errorf("%w: side", usecase.ErrInvalidInput), status: http.StatusBadRequest, reason: "invalidInput"},
		{name: "not found", err: fmt.Errorf("%w: league", usecase.ErrNotFound), status: http.StatusNotFound, reason: "notFound"},
		{name: "period cap", err: fmt.Errorf("%w: 3 picks", usecase.ErrPeriodCapExceeded), status: http.StatusConflict, reason: "capExceeded"},
		{name: "swap cap", err: fmt.Errorf("%w: 3 swaps", usecase.ErrSwapCapExceeded), status: http.StatusConflict, reason: "capExceeded"},
		{name: "duplicate", err: fmt.Errorf("%w: m1", usecase.ErrDuplicateMarketPick), status: http.StatusConflict, reason: "duplicatePick"},
		{name: "live league", err: fmt.Errorf("%w: live", usecase.ErrLeagueNotSimulated), status: http.StatusConflict, reason: "leagueState"},
		{name: "inactive league", err: fmt.Errorf("%w: open", usecase.ErrLeagueInactive), status: http.StatusConflict, reason: "leagueState"},
		{name: "slippage", err: fmt.Errorf("%w: 0.43", usecase.ErrSlippageExceeded), status: http.StatusConflict, reason: "slippageExceeded"},
		{name: "busy", err: fmt.Errorf("%w: scoring", usecase.ErrRecomputeInProgress), status: http.StatusConflict, reason: "recomputeInProgress"},
		{name: "invariant", err: fmt.Errorf("%w: policy", usecase.ErrInvariantViolation), status: http.StatusUnprocessableEntity, reason: "invariantViolation"},
		{name: "upstream", err: fmt.Errorf("%w: gamma", usecase.ErrDependencyUnavailable), status: http.StatusServiceUnavailable, reason: "dependencyUnavailable"},
		{name: "rate limited", err: errRateLimited, status: http.StatusTooManyRequests, reason: "rateLimited"},
		{name: "unknown", err: fmt.Errorf("disk on fire"), status: http.StatusInternalServerError, reason: "internalError"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := mapError(tc.err)
			if got.HTTPStatus != tc.status || got.Reason != tc.reason {
				t.Fatalf("unexpected mapping: got=%d/%s want=%d/%s", got.HTTPStatus, got.Reason, tc.status, tc.reason)
			}
		})
	}
}

func TestWriteInternalError_HidesCause(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	writeInternalError(context.Background(), rec)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusInternalServerError)
	}
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if body.Error.Message != "internal server error" {
		t.Fatalf("unexpected message: got=%q want=%q", body.Error.Message, "internal server error")
	}
}
