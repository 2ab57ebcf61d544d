package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/prediction-league/internal/domain/league"
	"github.com/riskibarqy/prediction-league/internal/domain/pick"
	"github.com/riskibarqy/prediction-league/internal/platform/id"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
	"github.com/riskibarqy/prediction-league/internal/platform/resilience"
)

type RecordPickInput struct {
	LeagueID string
	MemberID string
	MarketID string
	Side     string
}

type PickService struct {
	gate     leagueGate
	pickRepo pick.Repository
	locks    *resilience.KeyedMutex
	idGen    id.Generator
	logger   *logging.Logger
	now      func() time.Time
}

func NewPickService(
	leagueRepo league.Repository,
	pickRepo pick.Repository,
	locks *resilience.KeyedMutex,
	idGen id.Generator,
	logger *logging.Logger,
) *PickService {
	if logger == nil {
		logger = logging.Default()
	}
	if locks == nil {
		locks = resilience.NewKeyedMutex()
	}
	if idGen == nil {
		idGen = id.WithPrefix("pick_", nil)
	}

	return &PickService{
		gate:     leagueGate{leagueRepo: leagueRepo},
		pickRepo: pickRepo,
		locks:    locks,
		idGen:    idGen,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *PickService) RecordPick(ctx context.Context, input RecordPickInput) (pick.Pick, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.RecordPick", input.LeagueID)
	defer span.End()

	input.LeagueID = strings.TrimSpace(input.LeagueID)
	input.MemberID = strings.TrimSpace(input.MemberID)
	input.MarketID = strings.TrimSpace(input.MarketID)
	if input.LeagueID == "" || input.MemberID == "" || input.MarketID == "" {
		return pick.Pick{}, fmt.Errorf("%w: league_id, member_id and market_id are required", ErrInvalidInput)
	}
	side, err := pick.ParseSide(input.Side)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := s.now().UTC()
	gated, err := s.gate.openForWrites(ctx, input.LeagueID, input.MemberID, now)
	if err != nil {
		return pick.Pick{}, err
	}

	unlock := s.locks.Lock(memberLockKey(input.LeagueID, input.MemberID))
	defer unlock()

	existing, err := s.pickRepo.ListByMember(ctx, input.LeagueID, input.MemberID)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("list member picks: %w", err)
	}

	count, duplicate := pick.CountInPeriod(existing, gated.period, input.MarketID)
	if duplicate {
		return pick.Pick{}, fmt.Errorf("%w: market=%s period=%d", ErrDuplicateMarketPick, input.MarketID, gated.period)
	}
	if count >= gated.league.MarketsPerPeriod {
		return pick.Pick{}, fmt.Errorf("%w: %d of %d picks used in period %d", ErrPeriodCapExceeded, count, gated.league.MarketsPerPeriod, gated.period)
	}

	pickID, err := s.idGen.NewID()
	if err != nil {
		return pick.Pick{}, fmt.Errorf("generate pick id: %w", err)
	}

	item := pick.Pick{
		ID:        pickID,
		LeagueID:  input.LeagueID,
		MemberID:  input.MemberID,
		MarketID:  input.MarketID,
		Side:      side,
		Period:    gated.period,
		Sequence:  count + 1,
		CreatedAt: now,
	}
	if err := s.pickRepo.Append(ctx, item); err != nil {
		if crerr.Is(err, pick.ErrDuplicate) {
			return pick.Pick{}, fmt.Errorf("%w: market=%s period=%d", ErrDuplicateMarketPick, input.MarketID, gated.period)
		}
		return pick.Pick{}, fmt.Errorf("append pick: %w", err)
	}

	s.logger.InfoContext(ctx, "pick recorded",
		"league_id", item.LeagueID,
		"member_id", item.MemberID,
		"market_id", item.MarketID,
		"period", item.Period,
		"sequence", item.Sequence,
	)
	return item, nil
}

func (s *PickService) ListPicks(ctx context.Context, leagueID, memberID string) ([]pick.Pick, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.ListPicks", leagueID)
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	memberID = strings.TrimSpace(memberID)
	if leagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	var (
		items []pick.Pick
		err   error
	)
	if memberID == "" {
		items, err = s.pickRepo.ListByLeague(ctx, leagueID)
	} else {
		items, err = s.pickRepo.ListByMember(ctx, leagueID, memberID)
	}
	if err != nil {
		return nil, fmt.Errorf("list picks: %w", err)
	}

	sortPicks(items)
	return items, nil
}

func sortPicks(items []pick.Pick) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Period != items[j].Period {
			return items[i].Period < items[j].Period
		}
		if items[i].Sequence != items[j].Sequence {
			return items[i].Sequence < items[j].Sequence
		}
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].MemberID < items[j].MemberID
	})
}
