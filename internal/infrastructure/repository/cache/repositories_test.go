package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/prediction-league/internal/domain/league"
	"github.com/riskibarqy/prediction-league/internal/domain/score"
	leaguemock "github.com/riskibarqy/prediction-league/internal/mocks/domain/league"
	scoremock "github.com/riskibarqy/prediction-league/internal/mocks/domain/score"
	basecache "github.com/riskibarqy/prediction-league/internal/platform/cache"
)

func TestLeagueRepository_GetByIDCachesMisses(t *testing.T) {
	t.Parallel()

	next := leaguemock.NewRepository(t)
	next.On("GetByID", mock.Anything, "missing").Return(league.League{}, false, nil).Once()

	repo := NewLeagueRepository(next, basecache.NewStore(time.Minute))
	for i := 0; i < 3; i++ {
		_, exists, err := repo.GetByID(context.Background(), "missing")
		require.NoError(t, err)
		require.False(t, exists)
	}
}

func TestLeagueRepository_ListMembersReturnsCopies(t *testing.T) {
	t.Parallel()

	next := leaguemock.NewRepository(t)
	next.On("ListMembers", mock.Anything, "l1").
		Return([]league.Member{{LeagueID: "l1", MemberID: "m1"}}, nil).Once()

	repo := NewLeagueRepository(next, basecache.NewStore(time.Minute))
	first, err := repo.ListMembers(context.Background(), "l1")
	require.NoError(t, err)
	first[0].MemberID = "mutated"

	second, err := repo.ListMembers(context.Background(), "l1")
	require.NoError(t, err)
	require.Equal(t, "m1", second[0].MemberID)
}

func TestScoreRepository_SaveRunInvalidatesLeague(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	next := scoremock.NewRepository(t)
	before := []score.Score{{LeagueID: "l1", MemberID: "m1", Points: decimal.NewFromInt(10), Rank: 1}}
	after := []score.Score{{LeagueID: "l1", MemberID: "m1", Points: decimal.NewFromInt(20), Rank: 1}}

	next.On("ListByLeague", mock.Anything, "l1").Return(before, nil).Once()
	next.On("SaveRun", mock.Anything, mock.AnythingOfType("score.Run")).Return(nil).Once()
	next.On("ListByLeague", mock.Anything, "l1").Return(after, nil).Once()

	repo := NewScoreRepository(next, basecache.NewStore(time.Minute))

	got, err := repo.ListByLeague(ctx, "l1")
	require.NoError(t, err)
	require.True(t, got[0].Points.Equal(decimal.NewFromInt(10)))

	got, err = repo.ListByLeague(ctx, "l1")
	require.NoError(t, err)
	require.True(t, got[0].Points.Equal(decimal.NewFromInt(10)))

	require.NoError(t, repo.SaveRun(ctx, score.Run{LeagueID: "l1"}))

	got, err = repo.ListByLeague(ctx, "l1")
	require.NoError(t, err)
	require.True(t, got[0].Points.Equal(decimal.NewFromInt(20)))
}
