package usecase

import (
	crerr "github.com/cockroachdb/errors"
)

var (
	ErrInvalidInput          = crerr.New("invalid input")
	ErrNotFound              = crerr.New("resource not found")
	ErrUnauthorized          = crerr.New("unauthorized")
	ErrDependencyUnavailable = crerr.New("dependency unavailable")

	ErrCapExceeded         = crerr.New("cap exceeded")
	ErrPeriodCapExceeded   = crerr.Mark(crerr.New("period pick cap exceeded"), ErrCapExceeded)
	ErrSwapCapExceeded     = crerr.Mark(crerr.New("swap cap exceeded"), ErrCapExceeded)
	ErrDuplicateMarketPick = crerr.New("market already picked this period")

	ErrLeagueNotSimulated = crerr.New("league is not in simulated mode")
	ErrLeagueInactive     = crerr.New("league is not active")

	ErrSlippageExceeded    = crerr.New("slippage exceeded")
	ErrInvariantViolation  = crerr.New("invariant violation")
	ErrRecomputeInProgress = crerr.New("recompute already in progress")
)
