package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/riskibarqy/prediction-league/internal/domain/league"
)

// LeagueRepository is read-only after construction; leagues keep seed order.
type LeagueRepository struct {
	mu      sync.RWMutex
	leagues []league.League
	members map[string][]league.Member
}

func NewLeagueRepository(leagues []league.League, members []league.Member) *LeagueRepository {
	r := &LeagueRepository{
		leagues: slices.Clone(leagues),
		members: make(map[string][]league.Member, len(leagues)),
	}
	for _, m := range members {
		r.members[m.LeagueID] = append(r.members[m.LeagueID], m)
	}
	return r
}

func (r *LeagueRepository) List(context.Context) ([]league.League, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.leagues), nil
}

func (r *LeagueRepository) GetByID(_ context.Context, leagueID string) (league.League, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := slices.IndexFunc(r.leagues, func(l league.League) bool { return l.ID == leagueID })
	if i < 0 {
		return league.League{}, false, nil
	}
	return r.leagues[i], true, nil
}

func (r *LeagueRepository) ListMembers(_ context.Context, leagueID string) ([]league.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.members[leagueID]), nil
}
