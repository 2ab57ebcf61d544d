package httpapi

import (
	"context"
	"net/http"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/prediction-league/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "prediction-league"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

var internalError = mappedError{HTTPStatus: http.StatusInternalServerError, Reason: "internalError", Status: "INTERNAL"}

// errorMappings is checked in order; the first sentinel that matches wins.
var errorMappings = []struct {
	target error
	mapped mappedError
}{
	{usecase.ErrInvalidInput, mappedError{http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"}},
	{usecase.ErrNotFound, mappedError{http.StatusNotFound, "notFound", "NOT_FOUND"}},
	{usecase.ErrUnauthorized, mappedError{http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"}},
	{usecase.ErrCapExceeded, mappedError{http.StatusConflict, "capExceeded", "FAILED_PRECONDITION"}},
	{usecase.ErrDuplicateMarketPick, mappedError{http.StatusConflict, "duplicatePick", "ALREADY_EXISTS"}},
	{usecase.ErrLeagueNotSimulated, mappedError{http.StatusConflict, "leagueState", "FAILED_PRECONDITION"}},
	{usecase.ErrLeagueInactive, mappedError{http.StatusConflict, "leagueState", "FAILED_PRECONDITION"}},
	{usecase.ErrSlippageExceeded, mappedError{http.StatusConflict, "slippageExceeded", "ABORTED"}},
	{usecase.ErrRecomputeInProgress, mappedError{http.StatusConflict, "recomputeInProgress", "ABORTED"}},
	{usecase.ErrInvariantViolation, mappedError{http.StatusUnprocessableEntity, "invariantViolation", "FAILED_PRECONDITION"}},
	{usecase.ErrDependencyUnavailable, mappedError{http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"}},
	{errRateLimited, mappedError{http.StatusTooManyRequests, "rateLimited", "RESOURCE_EXHAUSTED"}},
}

func mapError(err error) mappedError {
	for _, m := range errorMappings {
		if crerr.Is(err, m.target) {
			return m.mapped
		}
	}
	return internalError
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(_ context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, googleResponseEnvelope{APIVersion: googleAPIVersion, Data: data})
}

func writeError(_ context.Context, w http.ResponseWriter, err error) {
	writeFailure(w, mapError(err), err.Error())
}

// writeInternalError hides the cause; callers log it.
func writeInternalError(_ context.Context, w http.ResponseWriter) {
	writeFailure(w, internalError, "internal server error")
}

func writeFailure(w http.ResponseWriter, mapped mappedError, message string) {
	writeJSON(w, mapped.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: message,
			Status:  mapped.Status,
			Errors:  []googleErrorItem{{Domain: errorDomain, Reason: mapped.Reason, Message: message}},
		},
	})
}
