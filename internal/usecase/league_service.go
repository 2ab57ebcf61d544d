package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/prediction-league/internal/domain/league"
)

type PeriodInfo struct {
	Index        int       `json:"index"`
	StartAt      time.Time `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
	SeasonLength int       `json:"season_length"`
	SeasonEndAt  time.Time `json:"season_end_at"`
	InSeason     bool      `json:"in_season"`
}

type LeagueService struct {
	gate       leagueGate
	leagueRepo league.Repository
	now        func() time.Time
}

func NewLeagueService(leagueRepo league.Repository) *LeagueService {
	return &LeagueService{
		gate:       leagueGate{leagueRepo: leagueRepo},
		leagueRepo: leagueRepo,
		now:        time.Now,
	}
}

func (s *LeagueService) ListLeagues(ctx context.Context) ([]league.League, error) {
	leagues, err := s.leagueRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}

	return leagues, nil
}

// ListActiveSimLeagues returns leagues the background jobs should process.
func (s *LeagueService) ListActiveSimLeagues(ctx context.Context) ([]league.League, error) {
	leagues, err := s.ListLeagues(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]league.League, 0, len(leagues))
	for _, item := range leagues {
		if item.IsSimulated() && item.IsActive() {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *LeagueService) CurrentPeriod(ctx context.Context, leagueID string) (league.League, PeriodInfo, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.CurrentPeriod", leagueID)
	defer span.End()

	item, err := s.gate.getLeague(ctx, leagueID)
	if err != nil {
		return league.League{}, PeriodInfo{}, err
	}

	info, err := periodInfo(item, s.now().UTC())
	if err != nil {
		return league.League{}, PeriodInfo{}, err
	}
	return item, info, nil
}

func periodInfo(item league.League, now time.Time) (PeriodInfo, error) {
	index, err := league.PeriodIndex(item, now)
	if err != nil {
		return PeriodInfo{}, fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}
	start, end, err := league.PeriodBounds(item, index)
	if err != nil {
		return PeriodInfo{}, fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}
	length, err := league.SeasonLength(item.Cadence)
	if err != nil {
		return PeriodInfo{}, fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}
	seasonEnd, err := league.SeasonEnd(item)
	if err != nil {
		return PeriodInfo{}, fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}

	return PeriodInfo{
		Index:        index,
		StartAt:      start,
		EndAt:        end,
		SeasonLength: length,
		SeasonEndAt:  seasonEnd,
		InSeason:     !now.Before(item.StartAt) && now.Before(seasonEnd),
	}, nil
}
