package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/riskibarqy/prediction-league/internal/domain/league"
	"github.com/riskibarqy/prediction-league/internal/domain/pick"
	"github.com/riskibarqy/prediction-league/internal/domain/price"
	"github.com/riskibarqy/prediction-league/internal/domain/swap"
	"github.com/riskibarqy/prediction-league/internal/platform/id"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
	"github.com/riskibarqy/prediction-league/internal/platform/resilience"
)

const (
	shareScale = 8
	pnlScale   = 6
)

// MaxSlippage is the tolerated relative deviation from the stored price.
var MaxSlippage = decimal.RequireFromString("0.05")

type RecordSwapInput struct {
	LeagueID       string
	MemberID       string
	MarketID       string
	OutcomeID      string
	Side           string
	NotionalIn     decimal.Decimal
	RequestedPrice decimal.Decimal
}

type RecordSwapResult struct {
	Swap        swap.Swap
	Position    swap.Position
	SeededQuote bool
}

type SwapService struct {
	gate      leagueGate
	swapRepo  swap.Repository
	priceRepo price.Repository
	fees      FeePolicy
	locks     *resilience.KeyedMutex
	idGen     id.Generator
	logger    *logging.Logger
	now       func() time.Time
}

func NewSwapService(
	leagueRepo league.Repository,
	swapRepo swap.Repository,
	priceRepo price.Repository,
	fees FeePolicy,
	locks *resilience.KeyedMutex,
	idGen id.Generator,
	logger *logging.Logger,
) *SwapService {
	if logger == nil {
		logger = logging.Default()
	}
	if fees == nil {
		fees = NewProportionalFee(DefaultSwapFeeRate)
	}
	if locks == nil {
		locks = resilience.NewKeyedMutex()
	}
	if idGen == nil {
		idGen = id.WithPrefix("swap_", nil)
	}

	return &SwapService{
		gate:      leagueGate{leagueRepo: leagueRepo},
		swapRepo:  swapRepo,
		priceRepo: priceRepo,
		fees:      fees,
		locks:     locks,
		idGen:     idGen,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *SwapService) RecordSwap(ctx context.Context, input RecordSwapInput) (RecordSwapResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SwapService.RecordSwap", input.LeagueID)
	defer span.End()

	side, err := validateSwapInput(&input)
	if err != nil {
		return RecordSwapResult{}, err
	}

	now := s.now().UTC()
	if _, err := s.gate.openForWrites(ctx, input.LeagueID, input.MemberID, now); err != nil {
		return RecordSwapResult{}, err
	}

	unlock := s.locks.Lock(memberLockKey(input.LeagueID, input.MemberID))
	defer unlock()

	count, err := s.swapRepo.CountByMember(ctx, input.LeagueID, input.MemberID)
	if err != nil {
		return RecordSwapResult{}, fmt.Errorf("count member swaps: %w", err)
	}
	if count >= swap.LifetimeCap {
		return RecordSwapResult{}, fmt.Errorf("%w: %d of %d swaps used", ErrSwapCapExceeded, count, swap.LifetimeCap)
	}

	stored, hasStored, err := s.priceRepo.GetQuote(ctx, input.OutcomeID)
	if err != nil {
		return RecordSwapResult{}, fmt.Errorf("get stored quote: %w", err)
	}
	if hasStored {
		if err := checkSlippage(input.RequestedPrice, stored.Price); err != nil {
			return RecordSwapResult{}, err
		}
	}

	executedPrice := input.RequestedPrice
	fee := s.fees.Fee(input.NotionalIn)
	notionalOut := input.NotionalIn.Sub(fee)
	if !notionalOut.IsPositive() {
		return RecordSwapResult{}, fmt.Errorf("%w: notional out %s after fee %s", ErrInvariantViolation, notionalOut, fee)
	}
	sidePrice := swap.SidePrice(side, executedPrice)
	shares := notionalOut.DivRound(sidePrice, shareScale)

	prior, hasPrior, err := s.swapRepo.GetPosition(ctx, input.LeagueID, input.MemberID, input.MarketID)
	if err != nil {
		return RecordSwapResult{}, fmt.Errorf("get prior position: %w", err)
	}

	pnlDelta := decimal.Zero
	next := swap.Position{
		LeagueID:  input.LeagueID,
		MemberID:  input.MemberID,
		MarketID:  input.MarketID,
		OutcomeID: input.OutcomeID,
		Side:      side,
		Shares:    shares,
		CostBasis: input.NotionalIn,
		OpenedAt:  now,
		UpdatedAt: now,
	}
	switch {
	case !hasPrior:
	case prior.Matches(input.OutcomeID, side):
		next.Shares = prior.Shares.Add(shares)
		next.CostBasis = prior.CostBasis.Add(input.NotionalIn)
		next.OpenedAt = prior.OpenedAt
	default:
		mark, err := s.effectivePrice(ctx, prior.OutcomeID)
		if err != nil {
			return RecordSwapResult{}, err
		}
		pnlDelta = prior.Unrealized(mark).Round(pnlScale)
	}

	swapID, err := s.idGen.NewID()
	if err != nil {
		return RecordSwapResult{}, fmt.Errorf("generate swap id: %w", err)
	}
	item := swap.Swap{
		ID:            swapID,
		LeagueID:      input.LeagueID,
		MemberID:      input.MemberID,
		MarketID:      input.MarketID,
		OutcomeID:     input.OutcomeID,
		Side:          side,
		NotionalIn:    input.NotionalIn,
		NotionalOut:   notionalOut,
		ExecutedPrice: executedPrice,
		Fee:           fee,
		PnLDelta:      pnlDelta,
		Shares:        shares,
		CreatedAt:     now,
	}
	var seed *price.Quote
	if !hasStored {
		seed = &price.Quote{
			OutcomeID: input.OutcomeID,
			MarketID:  input.MarketID,
			Price:     executedPrice,
			Source:    price.SourceSeed,
			FetchedAt: now,
		}
	}
	seeded, err := s.swapRepo.Apply(ctx, item, next, seed)
	if err != nil {
		if crerr.Is(err, swap.ErrLifetimeCapReached) {
			return RecordSwapResult{}, fmt.Errorf("%w: %v", ErrSwapCapExceeded, err)
		}
		return RecordSwapResult{}, fmt.Errorf("apply swap: %w", err)
	}
	result := RecordSwapResult{Swap: item, Position: next, SeededQuote: seeded}

	s.logger.InfoContext(ctx, "swap recorded",
		"league_id", item.LeagueID,
		"member_id", item.MemberID,
		"market_id", item.MarketID,
		"outcome_id", item.OutcomeID,
		"side", string(item.Side),
		"notional_in", item.NotionalIn,
		"executed_price", item.ExecutedPrice,
		"pnl_delta", item.PnLDelta,
		"seeded_quote", result.SeededQuote,
	)
	return result, nil
}

func (s *SwapService) ListSwaps(ctx context.Context, leagueID, memberID string) ([]swap.Swap, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SwapService.ListSwaps", leagueID)
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	memberID = strings.TrimSpace(memberID)
	if leagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	var (
		items []swap.Swap
		err   error
	)
	if memberID == "" {
		items, err = s.swapRepo.ListByLeague(ctx, leagueID)
	} else {
		items, err = s.swapRepo.ListByMember(ctx, leagueID, memberID)
	}
	if err != nil {
		return nil, fmt.Errorf("list swaps: %w", err)
	}

	sortSwaps(items)
	return items, nil
}

func (s *SwapService) effectivePrice(ctx context.Context, outcomeID string) (decimal.Decimal, error) {
	quote, ok, err := s.priceRepo.GetQuote(ctx, outcomeID)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("get mark quote: %w", err)
	}
	if !ok {
		return price.FallbackPrice, nil
	}
	return quote.Price, nil
}

func validateSwapInput(input *RecordSwapInput) (pick.Side, error) {
	input.LeagueID = strings.TrimSpace(input.LeagueID)
	input.MemberID = strings.TrimSpace(input.MemberID)
	input.MarketID = strings.TrimSpace(input.MarketID)
	input.OutcomeID = strings.TrimSpace(input.OutcomeID)
	if input.LeagueID == "" || input.MemberID == "" || input.MarketID == "" || input.OutcomeID == "" {
		return "", fmt.Errorf("%w: league_id, member_id, market_id and outcome_id are required", ErrInvalidInput)
	}

	side, err := pick.ParseSide(input.Side)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !input.RequestedPrice.IsPositive() || !input.RequestedPrice.LessThan(decimal.NewFromInt(1)) {
		return "", fmt.Errorf("%w: requested price %s must be in (0,1)", ErrInvalidInput, input.RequestedPrice)
	}
	if !input.NotionalIn.IsPositive() {
		return "", fmt.Errorf("%w: notional in %s must be > 0", ErrInvariantViolation, input.NotionalIn)
	}
	return side, nil
}

// checkSlippage rejects requested when it deviates from stored by more than MaxSlippage.
func checkSlippage(requested, stored decimal.Decimal) error {
	if !stored.IsPositive() {
		return fmt.Errorf("%w: stored price %s cannot anchor a swap", ErrSlippageExceeded, stored)
	}
	deviation := requested.Sub(stored).Abs().Div(stored)
	if deviation.GreaterThan(MaxSlippage) {
		return fmt.Errorf("%w: requested=%s stored=%s deviation=%s", ErrSlippageExceeded, requested, stored, deviation.StringFixed(4))
	}
	return nil
}

func sortSwaps(items []swap.Swap) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}
