package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/prediction-league/internal/domain/league"
	"github.com/riskibarqy/prediction-league/internal/platform/resilience"
)

// leagueGate resolves a league and member for ledger writes and enforces mode and season.
type leagueGate struct {
	leagueRepo league.Repository
}

type gatedMember struct {
	league league.League
	member league.Member
	period int
}

func (g leagueGate) getLeague(ctx context.Context, leagueID string) (league.League, error) {
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return league.League{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	item, exists, err := g.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return league.League{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return league.League{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}
	return item, nil
}

func (g leagueGate) openForWrites(ctx context.Context, leagueID, memberID string, now time.Time) (gatedMember, error) {
	item, err := g.getLeague(ctx, leagueID)
	if err != nil {
		return gatedMember{}, err
	}

	members, err := g.leagueRepo.ListMembers(ctx, item.ID)
	if err != nil {
		return gatedMember{}, fmt.Errorf("list league members: %w", err)
	}
	member, ok := league.FindMember(members, memberID)
	if !ok {
		return gatedMember{}, fmt.Errorf("%w: member=%s league=%s", ErrNotFound, memberID, item.ID)
	}

	if !item.IsSimulated() {
		return gatedMember{}, fmt.Errorf("%w: league=%s mode=%s", ErrLeagueNotSimulated, item.ID, item.Mode)
	}
	if !item.IsActive() {
		return gatedMember{}, fmt.Errorf("%w: league=%s status=%s", ErrLeagueInactive, item.ID, item.Status)
	}
	inSeason, err := league.InSeason(item, now)
	if err != nil {
		return gatedMember{}, fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}
	if !inSeason {
		return gatedMember{}, fmt.Errorf("%w: league=%s outside season window", ErrLeagueInactive, item.ID)
	}

	period, err := league.PeriodIndex(item, now)
	if err != nil {
		return gatedMember{}, fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}

	return gatedMember{league: item, member: member, period: period}, nil
}

func memberLockKey(leagueID, memberID string) string {
	return resilience.Key("member", leagueID, memberID)
}
