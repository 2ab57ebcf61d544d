package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/prediction-league/internal/domain/league"
	"github.com/riskibarqy/prediction-league/internal/domain/pick"
	"github.com/riskibarqy/prediction-league/internal/domain/price"
	"github.com/riskibarqy/prediction-league/internal/domain/score"
	"github.com/riskibarqy/prediction-league/internal/domain/swap"
	"github.com/riskibarqy/prediction-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/prediction-league/internal/platform/resilience"
)

type scoringFixture struct {
	service *ScoringService
	picks   *memory.PickRepository
	swaps   *memory.SwapRepository
	prices  *memory.PriceRepository
	scores  *memory.ScoreRepository
	locks   *resilience.KeyedMutex
}

func newScoringFixture(t *testing.T, extra ...league.League) scoringFixture {
	t.Helper()

	picks := memory.NewPickRepository()
	prices := memory.NewPriceRepository()
	swaps := memory.NewSwapRepository(prices)
	scores := memory.NewScoreRepository(picks)
	locks := resilience.NewKeyedMutex()

	service := NewScoringService(seededLeagues(extra...), picks, swaps, prices, scores, nil, locks, &sequenceIDs{prefix: "snap-"}, nil)
	service.now = fixedClock(testSeasonStart.Add(time.Hour))
	return scoringFixture{service: service, picks: picks, swaps: swaps, prices: prices, scores: scores, locks: locks}
}

func (fx scoringFixture) addPick(t *testing.T, id, memberID, marketID string, side pick.Side) {
	t.Helper()
	require.NoError(t, fx.picks.Append(context.Background(), pick.Pick{
		ID:        id,
		LeagueID:  memory.LeagueIDDailySim,
		MemberID:  memberID,
		MarketID:  marketID,
		Side:      side,
		Sequence:  1,
		CreatedAt: testSeasonStart,
	}))
}

func (fx scoringFixture) resolve(t *testing.T, marketID string, side pick.Side, at time.Time) {
	t.Helper()
	require.NoError(t, fx.prices.UpsertResolutions(context.Background(), []price.Resolution{{MarketID: marketID, WinningSide: side, ResolvedAt: at}}))
}

func scoreOf(t *testing.T, scores []score.Score, memberID string) score.Score {
	t.Helper()
	for _, item := range scores {
		if item.MemberID == memberID {
			return item
		}
	}
	t.Fatalf("member %s missing from scores", memberID)
	return score.Score{}
}

func TestScoringService_RecomputeScores_MarkToMarket(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newScoringFixture(t)

	require.NoError(t, fx.prices.UpsertQuotes(ctx, []price.Quote{{OutcomeID: "tok-a", MarketID: "m1", Price: dec("0.55"), Source: price.SourceGamma}}))
	applySwap(t, fx.swaps,
		swap.Swap{ID: "swap-1", LeagueID: memory.LeagueIDDailySim, MemberID: testAlice, MarketID: "m1", PnLDelta: dec("0.2")},
		swap.Position{LeagueID: memory.LeagueIDDailySim, MemberID: testAlice, MarketID: "m1", OutcomeID: "tok-a", Side: pick.SideYes, Shares: dec("100"), CostBasis: dec("40")},
	)
	applySwap(t, fx.swaps,
		swap.Swap{ID: "swap-2", LeagueID: memory.LeagueIDDailySim, MemberID: testAlice, MarketID: "m2"},
		swap.Position{LeagueID: memory.LeagueIDDailySim, MemberID: testAlice, MarketID: "m2", OutcomeID: "tok-b", Side: pick.SideNo, Shares: dec("100"), CostBasis: dec("45")},
	)

	result, err := fx.service.RecomputeScores(ctx, memory.LeagueIDDailySim)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Members)
	assert.Equal(t, PointsPolicyStandard, result.Policy)

	alice := scoreOf(t, result.Scores, testAlice)
	if !alice.PortfolioValue.Equal(dec("105")) {
		t.Fatalf("unexpected portfolio value: got=%s want=105", alice.PortfolioValue)
	}
	if !alice.UnrealizedPnL.Equal(dec("20")) {
		t.Fatalf("unexpected unrealized pnl: got=%s want=20", alice.UnrealizedPnL)
	}
	if !alice.RealizedPnL.Equal(dec("0.2")) || !alice.Points.Equal(dec("20")) {
		t.Fatalf("unexpected realized or points: realized=%s points=%s", alice.RealizedPnL, alice.Points)
	}
	if alice.Rank != 1 {
		t.Fatalf("unexpected rank: got=%d want=1", alice.Rank)
	}

	bob := scoreOf(t, result.Scores, testBob)
	if !bob.PortfolioValue.IsZero() || !bob.Points.IsZero() || bob.Rank != 2 {
		t.Fatalf("member without activity must score zero: %+v", bob)
	}
}

// interleavedSwapRepo lands one write right after the first read of the league's swaps.
type interleavedSwapRepo struct {
	*memory.SwapRepository
	once  sync.Once
	write func()
}

func (r *interleavedSwapRepo) ListByLeague(ctx context.Context, leagueID string) ([]swap.Swap, error) {
	items, err := r.SwapRepository.ListByLeague(ctx, leagueID)
	r.once.Do(r.write)
	return items, err
}

func (r *interleavedSwapRepo) Snapshot(ctx context.Context, leagueID string) ([]swap.Swap, []swap.Position, error) {
	items, positions, err := r.SwapRepository.Snapshot(ctx, leagueID)
	r.once.Do(r.write)
	return items, positions, err
}

func TestScoringService_RecomputeScores_ReadsSwapsAndPositionsTogether(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newScoringFixture(t)
	require.NoError(t, fx.prices.UpsertQuotes(ctx, []price.Quote{{OutcomeID: "tok-a", MarketID: "m1", Price: dec("0.55"), Source: price.SourceGamma}}))
	applySwap(t, fx.swaps,
		swap.Swap{ID: "swap-1", LeagueID: memory.LeagueIDDailySim, MemberID: testAlice, MarketID: "m1"},
		swap.Position{LeagueID: memory.LeagueIDDailySim, MemberID: testAlice, MarketID: "m1", OutcomeID: "tok-a", Side: pick.SideYes, Shares: dec("100"), CostBasis: dec("40")},
	)

	// The flip realizes the 15 held as unrealized and opens a position worth its cost.
	repo := &interleavedSwapRepo{SwapRepository: fx.swaps}
	repo.write = func() {
		applySwap(t, fx.swaps,
			swap.Swap{ID: "swap-2", LeagueID: memory.LeagueIDDailySim, MemberID: testAlice, MarketID: "m1", PnLDelta: dec("15")},
			swap.Position{LeagueID: memory.LeagueIDDailySim, MemberID: testAlice, MarketID: "m1", OutcomeID: "tok-c", Side: pick.SideNo, Shares: dec("200"), CostBasis: dec("100")},
		)
	}
	service := NewScoringService(seededLeagues(), fx.picks, repo, fx.prices, fx.scores, nil, fx.locks, &sequenceIDs{prefix: "snap-"}, nil)
	service.now = fixedClock(testSeasonStart.Add(time.Hour))

	result, err := service.RecomputeScores(ctx, memory.LeagueIDDailySim)
	require.NoError(t, err)

	alice := scoreOf(t, result.Scores, testAlice)
	if !alice.RealizedPnL.IsZero() || !alice.UnrealizedPnL.Equal(dec("15")) {
		t.Fatalf("scores mixed two ledger states: realized=%s unrealized=%s", alice.RealizedPnL, alice.UnrealizedPnL)
	}

	count, err := fx.swaps.CountByMember(ctx, memory.LeagueIDDailySim, testAlice)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestScoringService_RecomputeScores_ResolvesPicks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newScoringFixture(t)
	fx.addPick(t, "pick-1", testAlice, "m1", pick.SideYes)
	fx.addPick(t, "pick-2", testBob, "m1", pick.SideNo)
	fx.addPick(t, "pick-3", testBob, "m2", pick.SideYes)
	resolvedAt := testSeasonStart.Add(30 * time.Minute)
	fx.resolve(t, "m1", pick.SideYes, resolvedAt)

	result, err := fx.service.RecomputeScores(ctx, memory.LeagueIDDailySim)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ResolvedPicks)

	alice := scoreOf(t, result.Scores, testAlice)
	bob := scoreOf(t, result.Scores, testBob)
	if !alice.Points.Equal(dec("10")) || alice.CorrectPicks != 1 || alice.TotalPicks != 1 {
		t.Fatalf("unexpected winner score: %+v", alice)
	}
	if !bob.Points.IsZero() || bob.CorrectPicks != 0 || bob.TotalPicks != 2 {
		t.Fatalf("unexpected loser score: %+v", bob)
	}

	stored, err := fx.picks.ListByLeague(ctx, memory.LeagueIDDailySim)
	require.NoError(t, err)
	for _, item := range stored {
		switch item.MarketID {
		case "m1":
			if !item.IsResolved() || !item.ResolvedAt.Equal(resolvedAt) {
				t.Fatalf("pick %s must be resolved at %s: %+v", item.ID, resolvedAt, item)
			}
		default:
			if item.IsResolved() {
				t.Fatalf("pick %s has no resolution yet", item.ID)
			}
		}
	}

	again, err := fx.service.RecomputeScores(ctx, memory.LeagueIDDailySim)
	require.NoError(t, err)
	assert.Equal(t, 0, again.ResolvedPicks)
	assert.True(t, scoreOf(t, again.Scores, testAlice).Points.Equal(dec("10")))
}

func TestScoringService_RecomputeScores_IdempotentWithSnapshotHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newScoringFixture(t)
	fx.addPick(t, "pick-1", testAlice, "m1", pick.SideYes)
	fx.resolve(t, "m1", pick.SideYes, testSeasonStart)

	first := testSeasonStart.Add(time.Hour)
	fx.service.now = fixedClock(first)
	_, err := fx.service.RecomputeScores(ctx, memory.LeagueIDDailySim)
	require.NoError(t, err)
	before, err := fx.scores.ListByLeague(ctx, memory.LeagueIDDailySim)
	require.NoError(t, err)

	second := testSeasonStart.Add(26 * time.Hour)
	fx.service.now = fixedClock(second)
	_, err = fx.service.RecomputeScores(ctx, memory.LeagueIDDailySim)
	require.NoError(t, err)
	after, err := fx.scores.ListByLeague(ctx, memory.LeagueIDDailySim)
	require.NoError(t, err)

	require.Len(t, after, len(before))
	for i := range before {
		if !score.SameValues(before[i], after[i]) || before[i].Rank != after[i].Rank {
			t.Fatalf("recompute changed scores: before=%+v after=%+v", before[i], after[i])
		}
		if !after[i].UpdatedAt.Equal(first) {
			t.Fatalf("unchanged points must keep UpdatedAt: got=%s want=%s", after[i].UpdatedAt, first)
		}
	}

	snapshots, err := fx.scores.ListRecentSnapshots(ctx, memory.LeagueIDDailySim, 0)
	require.NoError(t, err)
	require.Len(t, snapshots, 4)
	if !snapshots[0].AsOf.Equal(second) || snapshots[0].Period != 1 {
		t.Fatalf("newest snapshot must come first: %+v", snapshots[0])
	}
	if !snapshots[3].AsOf.Equal(first) || snapshots[3].Period != 0 {
		t.Fatalf("oldest snapshot must come last: %+v", snapshots[3])
	}
}

func TestScoringService_RecomputeScores_TieBreakByEarlierUpdate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newScoringFixture(t)
	fx.addPick(t, "pick-1", testBob, "m1", pick.SideYes)
	fx.addPick(t, "pick-2", testAlice, "m2", pick.SideYes)

	run := func(at time.Time) []score.Score {
		t.Helper()
		fx.service.now = fixedClock(at)
		result, err := fx.service.RecomputeScores(ctx, memory.LeagueIDDailySim)
		require.NoError(t, err)
		return result.Scores
	}

	tied := run(testSeasonStart.Add(time.Hour))
	if tied[0].MemberID != testAlice {
		t.Fatalf("equal points and time must fall back to member id: %+v", tied)
	}

	fx.resolve(t, "m1", pick.SideYes, testSeasonStart.Add(90*time.Minute))
	bobAhead := run(testSeasonStart.Add(2 * time.Hour))
	if bobAhead[0].MemberID != testBob {
		t.Fatalf("higher points must rank first: %+v", bobAhead)
	}

	fx.resolve(t, "m2", pick.SideYes, testSeasonStart.Add(150*time.Minute))
	final := run(testSeasonStart.Add(3 * time.Hour))
	if !final[0].Points.Equal(final[1].Points) {
		t.Fatalf("expected tied points: %+v", final)
	}
	if final[0].MemberID != testBob || final[0].Rank != 1 || final[1].Rank != 2 {
		t.Fatalf("member who reached the score first must rank first: %+v", final)
	}
}

func TestScoringService_RecomputeScores_InProgress(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newScoringFixture(t)

	unlock, ok := fx.locks.TryLock(resilience.Key("recompute", memory.LeagueIDDailySim))
	require.True(t, ok)

	_, err := fx.service.RecomputeScores(ctx, memory.LeagueIDDailySim)
	if !crerr.Is(err, ErrRecomputeInProgress) {
		t.Fatalf("expected recompute in progress, got %v", err)
	}

	// Other leagues are unaffected.
	_, err = fx.service.RecomputeScores(ctx, memory.LeagueIDWeeklySim)
	require.NoError(t, err)

	unlock()
	_, err = fx.service.RecomputeScores(ctx, memory.LeagueIDDailySim)
	require.NoError(t, err)
}

func TestScoringService_RecomputeScores_UnknownPolicy(t *testing.T) {
	t.Parallel()

	fx := newScoringFixture(t, league.League{
		ID:               "sim-mystery",
		Mode:             league.ModeSim,
		Cadence:          league.CadenceDaily,
		MarketsPerPeriod: 1,
		StartAt:          testSeasonStart,
		Status:           league.StatusActive,
		PointsPolicy:     "mystery",
	})

	_, err := fx.service.RecomputeScores(context.Background(), "sim-mystery")
	if !crerr.Is(err, ErrInvariantViolation) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
	if _, err := fx.service.RecomputeScores(context.Background(), "missing"); !crerr.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestScoringService_LeaderboardAndState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newScoringFixture(t)
	fx.addPick(t, "pick-1", testBob, "m1", pick.SideNo)
	fx.resolve(t, "m1", pick.SideNo, testSeasonStart)

	_, err := fx.service.RecomputeScores(ctx, memory.LeagueIDDailySim)
	require.NoError(t, err)

	board, err := fx.service.Leaderboard(ctx, memory.LeagueIDDailySim)
	require.NoError(t, err)
	require.Len(t, board.Scores, 2)
	assert.Equal(t, testBob, board.Scores[0].MemberID)
	assert.Len(t, board.Snapshots, 2)

	state, err := fx.service.LeagueState(ctx, memory.LeagueIDDailySim)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Period.Index)
	assert.True(t, state.Period.InSeason)
	require.Len(t, state.Picks, 1)
	assert.True(t, state.Picks[0].IsResolved())
	assert.Equal(t, 1, state.Scores[0].Rank)
}
