package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/prediction-league/internal/domain/pick"
)

type PickRepository struct {
	mu    sync.RWMutex
	items map[string][]pick.Pick
}

func NewPickRepository() *PickRepository {
	return &PickRepository{items: make(map[string][]pick.Pick)}
}

func (r *PickRepository) Append(_ context.Context, item pick.Pick) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items[item.LeagueID] {
		if existing.MemberID == item.MemberID && existing.Period == item.Period && existing.MarketID == item.MarketID {
			return pick.ErrDuplicate
		}
	}
	r.items[item.LeagueID] = append(r.items[item.LeagueID], item)
	return nil
}

func (r *PickRepository) ListByMember(_ context.Context, leagueID, memberID string) ([]pick.Pick, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pick.Pick, 0)
	for _, item := range r.items[leagueID] {
		if item.MemberID == memberID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *PickRepository) ListByLeague(_ context.Context, leagueID string) ([]pick.Pick, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]pick.Pick(nil), r.items[leagueID]...), nil
}

// applyResolved stores settlement fields. Picks that already resolved keep their values.
func (r *PickRepository) applyResolved(leagueID string, resolved []pick.Pick) {
	if len(resolved) == 0 {
		return
	}
	byID := make(map[string]pick.Pick, len(resolved))
	for _, item := range resolved {
		byID[item.ID] = item
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.items[leagueID]
	for i, item := range items {
		next, ok := byID[item.ID]
		if !ok || item.IsResolved() {
			continue
		}
		items[i].Correct = next.Correct
		items[i].PointsEarned = next.PointsEarned
		items[i].ResolvedAt = next.ResolvedAt
	}
}
