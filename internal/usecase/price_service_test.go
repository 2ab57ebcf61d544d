package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/prediction-league/internal/domain/pick"
	"github.com/riskibarqy/prediction-league/internal/domain/price"
	"github.com/riskibarqy/prediction-league/internal/domain/swap"
	"github.com/riskibarqy/prediction-league/internal/infrastructure/repository/memory"
	pricemock "github.com/riskibarqy/prediction-league/internal/mocks/domain/price"
)

type stubPriceFeed struct {
	markets []price.Market
	err     error
	calls   [][]string
}

func (f *stubPriceFeed) FetchMarkets(ctx context.Context, marketIDs []string) ([]price.Market, error) {
	f.calls = append(f.calls, append([]string(nil), marketIDs...))
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("feed called without a deadline")
	}
	return f.markets, f.err
}

func decPtr(raw string) *decimal.Decimal {
	v := decimal.RequireFromString(raw)
	return &v
}

func TestPriceService_RefreshPrices(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	prices := memory.NewPriceRepository()
	require.NoError(t, prices.UpsertQuotes(ctx, []price.Quote{{OutcomeID: "m2-no", MarketID: "m2", Price: dec("0.33"), Source: price.SourceSeed}}))

	feed := &stubPriceFeed{markets: []price.Market{
		{MarketID: "m1", Outcomes: []price.Outcome{
			{OutcomeID: "m1-yes", Label: "Yes", Price: decPtr("0.62")},
			{OutcomeID: "m1-no", Label: "No", Price: decPtr("0.38")},
		}},
		{MarketID: "m2", Outcomes: []price.Outcome{
			{OutcomeID: "m2-yes", Label: "Yes", Price: decPtr("0.70")},
			{OutcomeID: "m2-no", Label: "No"},
		}},
		{MarketID: "m3", Closed: true, Outcomes: []price.Outcome{
			{OutcomeID: "m3-yes", Label: "Yes", Price: decPtr("0")},
			{OutcomeID: "m3-no", Label: "No", Price: decPtr("1")},
		}},
		{MarketID: "unrequested", Outcomes: []price.Outcome{{OutcomeID: "x", Label: "Yes", Price: decPtr("0.5")}}},
	}}

	service := NewPriceService(PriceServiceConfig{FetchTimeout: time.Second}, feed, prices, memory.NewPickRepository(), memory.NewSwapRepository(nil), nil)
	refreshedAt := testSeasonStart.Add(time.Hour)
	service.now = fixedClock(refreshedAt)

	result, err := service.RefreshPrices(ctx, []string{"m3", "m1", "m2", "m4", "m1", " "})
	require.NoError(t, err)

	want := RefreshResult{Requested: 4, Updated: 5, Missing: 2, Resolved: 1}
	if result != want {
		t.Fatalf("unexpected result: got=%+v want=%+v", result, want)
	}
	require.Len(t, feed.calls, 1)
	require.Equal(t, []string{"m1", "m2", "m3", "m4"}, feed.calls[0])

	quote, ok, err := prices.GetQuote(ctx, "m1-yes")
	require.NoError(t, err)
	if !ok || !quote.Price.Equal(dec("0.62")) || quote.Source != price.SourceGamma || !quote.FetchedAt.Equal(refreshedAt) {
		t.Fatalf("unexpected refreshed quote: ok=%v %+v", ok, quote)
	}

	kept, ok, err := prices.GetQuote(ctx, "m2-no")
	require.NoError(t, err)
	if !ok || !kept.Price.Equal(dec("0.33")) {
		t.Fatalf("outcome without data must keep its stored quote: ok=%v %+v", ok, kept)
	}

	if _, ok, _ := prices.GetQuote(ctx, "x"); ok {
		t.Fatalf("unrequested markets must be ignored")
	}

	resolutions, err := prices.ListResolutions(ctx, []string{"m3"})
	require.NoError(t, err)
	require.Len(t, resolutions, 1)
	if resolutions[0].WinningSide != pick.SideNo {
		t.Fatalf("unexpected winning side: %s", resolutions[0].WinningSide)
	}
}

func TestPriceService_RefreshPrices_FeedFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	priceRepo := pricemock.NewRepository(t)
	feed := &stubPriceFeed{err: errors.New("connection reset")}
	service := NewPriceService(PriceServiceConfig{}, feed, priceRepo, memory.NewPickRepository(), memory.NewSwapRepository(nil), nil)

	_, err := service.RefreshPrices(ctx, []string{"m1"})
	if !crerr.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("unexpected error: got=%v want=%v", err, ErrDependencyUnavailable)
	}
	priceRepo.AssertNotCalled(t, "UpsertQuotes", mock.Anything, mock.Anything)

	noFeed := NewPriceService(PriceServiceConfig{}, nil, priceRepo, nil, nil, nil)
	if _, err := noFeed.RefreshPrices(ctx, []string{"m1"}); !crerr.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("missing feed must be a dependency error: %v", err)
	}

	empty, err := noFeed.RefreshPrices(ctx, nil)
	require.NoError(t, err)
	if empty != (RefreshResult{}) {
		t.Fatalf("empty refresh must be a no-op: %+v", empty)
	}
}

func TestPriceService_TrackedMarkets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	picks := memory.NewPickRepository()
	swaps := memory.NewSwapRepository(nil)
	resolvedAt := testSeasonStart

	require.NoError(t, picks.Append(ctx, pick.Pick{ID: "p1", LeagueID: memory.LeagueIDDailySim, MemberID: testAlice, MarketID: "m-open", Side: pick.SideYes}))
	require.NoError(t, picks.Append(ctx, pick.Pick{ID: "p2", LeagueID: memory.LeagueIDDailySim, MemberID: testAlice, MarketID: "m-done", Side: pick.SideYes, ResolvedAt: &resolvedAt}))
	require.NoError(t, picks.Append(ctx, pick.Pick{ID: "p3", LeagueID: memory.LeagueIDWeeklySim, MemberID: testAlice, MarketID: "m-other", Side: pick.SideYes}))
	applySwap(t, swaps,
		swap.Swap{ID: "s1", LeagueID: memory.LeagueIDDailySim, MemberID: testBob, MarketID: "m-pos"},
		swap.Position{LeagueID: memory.LeagueIDDailySim, MemberID: testBob, MarketID: "m-pos", OutcomeID: "m-pos-yes", Side: pick.SideYes},
	)

	service := NewPriceService(PriceServiceConfig{}, &stubPriceFeed{}, memory.NewPriceRepository(), picks, swaps, nil)
	got, err := service.TrackedMarkets(ctx, memory.LeagueIDDailySim)
	require.NoError(t, err)
	require.Equal(t, []string{"m-open", "m-pos"}, got)

	if _, err := service.TrackedMarkets(ctx, ""); !crerr.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
