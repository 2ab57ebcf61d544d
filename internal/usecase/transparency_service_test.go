package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/prediction-league/internal/domain/pick"
	"github.com/riskibarqy/prediction-league/internal/domain/swap"
	"github.com/riskibarqy/prediction-league/internal/domain/transparency"
	"github.com/riskibarqy/prediction-league/internal/infrastructure/repository/memory"
)

const testEscrow = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"

type stubChainReader struct {
	err       error
	transfers []transparency.Transfer
	queries   []transparency.TransferQuery
	holders   []string
}

func (c *stubChainReader) Metadata(context.Context) (transparency.ChainMeta, error) {
	if c.err != nil {
		return transparency.ChainMeta{}, c.err
	}
	return transparency.ChainMeta{ChainID: 137, TokenSymbol: "USDC", TokenDecimals: 6}, nil
}

func (c *stubChainReader) Balance(_ context.Context, holder string) (decimal.Decimal, error) {
	c.holders = append(c.holders, holder)
	return decimal.RequireFromString("250.5"), nil
}

func (c *stubChainReader) Transfers(_ context.Context, query transparency.TransferQuery) ([]transparency.Transfer, error) {
	c.queries = append(c.queries, query)
	return c.transfers, nil
}

type transparencyFixture struct {
	picks *memory.PickRepository
	swaps *memory.SwapRepository
}

func newTransparencyFixture(t *testing.T) transparencyFixture {
	t.Helper()

	ctx := context.Background()
	picks := memory.NewPickRepository()
	swaps := memory.NewSwapRepository(nil)
	resolvedAt := testSeasonStart.Add(3 * time.Hour)
	points := dec("5")
	correct := true

	require.NoError(t, picks.Append(ctx, pick.Pick{
		ID: "pick-1", LeagueID: memory.LeagueIDWeeklySim, MemberID: testAlice, MarketID: "m1", Side: pick.SideYes,
		Sequence: 1, CreatedAt: testSeasonStart.Add(time.Hour),
		PointsEarned: &points, Correct: &correct, ResolvedAt: &resolvedAt,
	}))
	require.NoError(t, picks.Append(ctx, pick.Pick{
		ID: "pick-2", LeagueID: memory.LeagueIDWeeklySim, MemberID: testBob, MarketID: "m2", Side: pick.SideNo,
		Sequence: 1, CreatedAt: testSeasonStart.Add(2 * time.Hour),
	}))
	applySwap(t, swaps,
		swap.Swap{
			ID: "swap-1", LeagueID: memory.LeagueIDWeeklySim, MemberID: testAlice, MarketID: "m3", OutcomeID: "m3-yes",
			Side: pick.SideYes, NotionalIn: dec("100"), CreatedAt: testSeasonStart.Add(90 * time.Minute),
		},
		swap.Position{LeagueID: memory.LeagueIDWeeklySim, MemberID: testAlice, MarketID: "m3", OutcomeID: "m3-yes", Side: pick.SideYes},
	)
	return transparencyFixture{picks: picks, swaps: swaps}
}

func (fx transparencyFixture) service(chain ChainReader) *TransparencyService {
	service := NewTransparencyService(TransparencyServiceConfig{ChainTimeout: time.Second}, seededLeagues(), fx.picks, fx.swaps, chain, nil)
	service.now = fixedClock(testSeasonStart.Add(4 * time.Hour))
	return service
}

func TestTransparencyService_Reconcile_MergesBothSources(t *testing.T) {
	t.Parallel()

	fx := newTransparencyFixture(t)
	chain := &stubChainReader{transfers: []transparency.Transfer{{
		TxHash:     "0xabc",
		From:       "0x1111111111111111111111111111111111111111",
		To:         testEscrow,
		Amount:     dec("25"),
		OccurredAt: testSeasonStart.Add(30 * time.Minute),
	}}}

	feed, err := fx.service(chain).Reconcile(context.Background(), memory.LeagueIDWeeklySim, "")
	require.NoError(t, err)
	assert.False(t, feed.Degraded)
	require.NotNil(t, feed.Onchain.Meta)
	assert.Equal(t, testEscrow, feed.Onchain.Meta.EscrowAddress)
	assert.Equal(t, []string{testEscrow}, chain.holders)
	assert.Equal(t, []transparency.TransferQuery{{Contract: testEscrow}}, chain.queries)

	kinds := make([]transparency.Kind, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		kinds = append(kinds, entry.Kind)
	}
	want := []transparency.Kind{
		transparency.KindTransferIn,
		transparency.KindPick,
		transparency.KindSwap,
		transparency.KindPick,
		transparency.KindSettlement,
	}
	if !assert.Equal(t, want, kinds) {
		return
	}
	assert.Equal(t, "settle:pick-1", feed.Entries[4].Reference)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", feed.Entries[0].Wallet)
}

func TestTransparencyService_Reconcile_DegradesOnChainFailure(t *testing.T) {
	t.Parallel()

	fx := newTransparencyFixture(t)
	feed, err := fx.service(&stubChainReader{err: errors.New("rpc unavailable")}).
		Reconcile(context.Background(), memory.LeagueIDWeeklySim, "")
	require.NoError(t, err)

	assert.True(t, feed.Degraded)
	assert.Contains(t, feed.Onchain.Error, "rpc unavailable")
	assert.Len(t, feed.Offchain.Picks, 2)
	assert.Len(t, feed.Offchain.Swaps, 1)
	assert.Len(t, feed.Offchain.Settlements, 1)
	assert.Len(t, feed.Entries, 4)

	unconfigured, err := fx.service(nil).Reconcile(context.Background(), memory.LeagueIDWeeklySim, "")
	require.NoError(t, err)
	assert.True(t, unconfigured.Degraded)
	assert.Len(t, unconfigured.Entries, 4)
}

func TestTransparencyService_Reconcile_WalletFilter(t *testing.T) {
	t.Parallel()

	fx := newTransparencyFixture(t)
	chain := &stubChainReader{}
	wallet := "0x2222222222222222222222222222222222222222"

	feed, err := fx.service(chain).Reconcile(context.Background(), memory.LeagueIDWeeklySim, wallet)
	require.NoError(t, err)
	assert.Equal(t, testBob, feed.MemberID)
	assert.Equal(t, []string{wallet}, chain.holders)
	assert.Equal(t, []transparency.TransferQuery{{Contract: testEscrow, Wallet: wallet}}, chain.queries)
	require.Len(t, feed.Entries, 1)
	assert.Equal(t, "pick-2", feed.Entries[0].Reference)
}

func TestTransparencyService_Reconcile_Errors(t *testing.T) {
	t.Parallel()

	fx := newTransparencyFixture(t)
	service := fx.service(&stubChainReader{})

	tests := []struct {
		name     string
		leagueID string
		wallet   string
		wantErr  error
	}{
		{name: "not a hex address", leagueID: memory.LeagueIDWeeklySim, wallet: "alice.eth", wantErr: ErrInvalidInput},
		{name: "wallet not in league", leagueID: memory.LeagueIDWeeklySim, wallet: "0x3333333333333333333333333333333333333333", wantErr: ErrNotFound},
		{name: "unknown league", leagueID: "missing", wantErr: ErrNotFound},
		{name: "blank league", leagueID: " ", wantErr: ErrInvalidInput},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Reconcile(context.Background(), tc.leagueID, tc.wallet)
			if !crerr.Is(err, tc.wantErr) {
				t.Fatalf("unexpected error: got=%v want=%v", err, tc.wantErr)
			}
		})
	}
}
