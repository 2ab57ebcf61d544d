// Package cache decorates read-heavy repositories with the in-process TTL store.
// Slices are cloned on the way out so callers cannot mutate cached state.
package cache

import (
	"context"
	"slices"
	"strconv"

	"github.com/riskibarqy/prediction-league/internal/domain/league"
	"github.com/riskibarqy/prediction-league/internal/domain/score"
	basecache "github.com/riskibarqy/prediction-league/internal/platform/cache"
)

type LeagueRepository struct {
	next  league.Repository
	store *basecache.Store
}

func NewLeagueRepository(next league.Repository, store *basecache.Store) *LeagueRepository {
	return &LeagueRepository{next: next, store: store}
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	items, err := basecache.Load(ctx, r.store, "league:list", r.next.List)
	return slices.Clone(items), err
}

type leagueLookup struct {
	item   league.League
	exists bool
}

// GetByID caches misses too, so unknown ids do not reach storage on every request.
func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	found, err := basecache.Load(ctx, r.store, "league:id:"+leagueID, func(ctx context.Context) (leagueLookup, error) {
		item, exists, err := r.next.GetByID(ctx, leagueID)
		return leagueLookup{item: item, exists: exists}, err
	})
	return found.item, found.exists, err
}

func (r *LeagueRepository) ListMembers(ctx context.Context, leagueID string) ([]league.Member, error) {
	items, err := basecache.Load(ctx, r.store, "league:members:"+leagueID, func(ctx context.Context) ([]league.Member, error) {
		return r.next.ListMembers(ctx, leagueID)
	})
	return slices.Clone(items), err
}

// ScoreRepository serves leaderboard reads from cache until the league's next scoring run.
type ScoreRepository struct {
	next  score.Repository
	store *basecache.Store
}

func NewScoreRepository(next score.Repository, store *basecache.Store) *ScoreRepository {
	return &ScoreRepository{next: next, store: store}
}

func (r *ScoreRepository) SaveRun(ctx context.Context, run score.Run) error {
	if err := r.next.SaveRun(ctx, run); err != nil {
		return err
	}
	r.store.DeletePrefix(ctx, scoreKeyPrefix(run.LeagueID))
	return nil
}

func (r *ScoreRepository) ListByLeague(ctx context.Context, leagueID string) ([]score.Score, error) {
	items, err := basecache.Load(ctx, r.store, scoreKeyPrefix(leagueID)+"list", func(ctx context.Context) ([]score.Score, error) {
		return r.next.ListByLeague(ctx, leagueID)
	})
	return slices.Clone(items), err
}

func (r *ScoreRepository) ListRecentSnapshots(ctx context.Context, leagueID string, limit int) ([]score.Snapshot, error) {
	key := scoreKeyPrefix(leagueID) + "snapshots:" + strconv.Itoa(limit)
	items, err := basecache.Load(ctx, r.store, key, func(ctx context.Context) ([]score.Snapshot, error) {
		return r.next.ListRecentSnapshots(ctx, leagueID, limit)
	})
	return slices.Clone(items), err
}

func scoreKeyPrefix(leagueID string) string {
	return "score:league:" + leagueID + ":"
}
