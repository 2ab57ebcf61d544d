package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/valyala/bytebufferpool"

	"github.com/riskibarqy/prediction-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
	"github.com/riskibarqy/prediction-league/internal/usecase"
)

const maxRequestBodyBytes = 1 << 20

var strictJSON = sonic.Config{DisallowUnknownFields: true}.Froze()

type Handler struct {
	leagueService       *usecase.LeagueService
	pickService         *usecase.PickService
	swapService         *usecase.SwapService
	scoringService      *usecase.ScoringService
	transparencyService *usecase.TransparencyService
	jobScheduler        *usecase.JobScheduler
	jobDispatchRepo     jobscheduler.Repository
	logger              *logging.Logger
	validator           *validator.Validate
	now                 func() time.Time
}

func NewHandler(
	leagueService *usecase.LeagueService,
	pickService *usecase.PickService,
	swapService *usecase.SwapService,
	scoringService *usecase.ScoringService,
	transparencyService *usecase.TransparencyService,
	jobScheduler *usecase.JobScheduler,
	jobDispatchRepo jobscheduler.Repository,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		leagueService:       leagueService,
		pickService:         pickService,
		swapService:         swapService,
		scoringService:      scoringService,
		transparencyService: transparencyService,
		jobScheduler:        jobScheduler,
		jobDispatchRepo:     jobDispatchRepo,
		logger:              logger,
		validator:           validator.New(),
		now:                 time.Now,
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeJSON reads a bounded body into out. An empty body is accepted when allowEmpty is set.
func decodeJSON(r *http.Request, out any, allowEmpty bool) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if r.Body != nil {
		if _, err := buf.ReadFrom(io.LimitReader(r.Body, maxRequestBodyBytes+1)); err != nil {
			return fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
		}
	}
	if buf.Len() > maxRequestBodyBytes {
		return fmt.Errorf("%w: request body exceeds %d bytes", usecase.ErrInvalidInput, maxRequestBodyBytes)
	}
	if len(strings.TrimSpace(string(buf.B))) == 0 {
		if allowEmpty {
			return nil
		}
		return fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
	}
	if err := strictJSON.Unmarshal(buf.B, out); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func queryLimit(r *http.Request, fallback, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", usecase.ErrInvalidInput)
	}
	if value > max {
		value = max
	}
	return value, nil
}

type recordPickRequest struct {
	MemberID string `json:"member_id" validate:"required,max=128"`
	MarketID string `json:"market_id" validate:"required,max=256"`
	Side     string `json:"side" validate:"required,oneof=yes no YES NO Yes No"`
}

type recordSwapRequest struct {
	MemberID       string `json:"member_id" validate:"required,max=128"`
	MarketID       string `json:"market_id" validate:"required,max=256"`
	OutcomeID      string `json:"outcome_id" validate:"required,max=256"`
	Side           string `json:"side" validate:"required,oneof=yes no YES NO Yes No"`
	NotionalIn     string `json:"notional_in" validate:"required,numeric"`
	RequestedPrice string `json:"requested_price" validate:"required,numeric"`
}

type internalJobRequest struct {
	LeagueID   string `json:"league_id" validate:"omitempty,max=128"`
	DispatchID string `json:"dispatch_id" validate:"omitempty,max=200"`
}

type transparencyQuery struct {
	Wallet string `validate:"omitempty,eth_addr"`
}
