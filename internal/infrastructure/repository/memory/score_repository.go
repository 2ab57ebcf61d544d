package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/prediction-league/internal/domain/score"
)

// ScoreRepository settles picks through picks so a run lands in one critical section.
type ScoreRepository struct {
	mu        sync.RWMutex
	scores    map[string]map[string]score.Score
	snapshots map[string][]score.Snapshot
	picks     *PickRepository
}

func NewScoreRepository(picks *PickRepository) *ScoreRepository {
	return &ScoreRepository{
		scores:    make(map[string]map[string]score.Score),
		snapshots: make(map[string][]score.Snapshot),
		picks:     picks,
	}
}

func (r *ScoreRepository) SaveRun(_ context.Context, run score.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.picks != nil {
		r.picks.applyResolved(run.LeagueID, run.ResolvedPicks)
	}

	rows := r.scores[run.LeagueID]
	if rows == nil {
		rows = make(map[string]score.Score, len(run.Scores))
		r.scores[run.LeagueID] = rows
	}
	for _, item := range run.Scores {
		rows[item.MemberID] = item
	}
	r.snapshots[run.LeagueID] = append(r.snapshots[run.LeagueID], run.Snapshots...)
	return nil
}

func (r *ScoreRepository) ListByLeague(_ context.Context, leagueID string) ([]score.Score, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]score.Score, 0, len(r.scores[leagueID]))
	for _, item := range r.scores[leagueID] {
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out, nil
}

func (r *ScoreRepository) ListRecentSnapshots(_ context.Context, leagueID string, limit int) ([]score.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.snapshots[leagueID]
	if limit <= 0 || limit > len(items) {
		limit = len(items)
	}

	out := make([]score.Snapshot, 0, limit)
	for i := len(items) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, items[i])
	}
	return out, nil
}
