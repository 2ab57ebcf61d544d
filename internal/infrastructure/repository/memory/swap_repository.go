package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/riskibarqy/prediction-league/internal/domain/price"
	"github.com/riskibarqy/prediction-league/internal/domain/swap"
)

var errNoQuoteStore = errors.New("swap repository has no quote store to seed")

type SwapRepository struct {
	mu        sync.RWMutex
	swaps     map[string][]swap.Swap
	positions map[string]swap.Position
	prices    *PriceRepository
}

// NewSwapRepository seeds quotes into prices during Apply. A nil prices rejects seeds.
func NewSwapRepository(prices *PriceRepository) *SwapRepository {
	return &SwapRepository{
		swaps:     make(map[string][]swap.Swap),
		positions: make(map[string]swap.Position),
		prices:    prices,
	}
}

func (r *SwapRepository) CountByMember(_ context.Context, leagueID, memberID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, item := range r.swaps[leagueID] {
		if item.MemberID == memberID {
			count++
		}
	}
	return count, nil
}

func (r *SwapRepository) ListByMember(_ context.Context, leagueID, memberID string) ([]swap.Swap, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]swap.Swap, 0)
	for _, item := range r.swaps[leagueID] {
		if item.MemberID == memberID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *SwapRepository) ListByLeague(_ context.Context, leagueID string) ([]swap.Swap, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]swap.Swap(nil), r.swaps[leagueID]...), nil
}

func (r *SwapRepository) GetPosition(_ context.Context, leagueID, memberID, marketID string) (swap.Position, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.positions[positionKey(leagueID, memberID, marketID)]
	return item, ok, nil
}

func (r *SwapRepository) ListPositions(_ context.Context, leagueID string) ([]swap.Position, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.leaguePositions(leagueID), nil
}

func (r *SwapRepository) Snapshot(_ context.Context, leagueID string) ([]swap.Swap, []swap.Position, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]swap.Swap(nil), r.swaps[leagueID]...), r.leaguePositions(leagueID), nil
}

// Apply holds the write lock across the seed so readers never see the swap without its quote.
func (r *SwapRepository) Apply(ctx context.Context, s swap.Swap, position swap.Position, seed *price.Quote) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, item := range r.swaps[s.LeagueID] {
		if item.MemberID == s.MemberID {
			count++
		}
	}
	if count >= swap.LifetimeCap {
		return false, swap.ErrLifetimeCapReached
	}

	seeded := false
	if seed != nil {
		if r.prices == nil {
			return false, errNoQuoteStore
		}
		var err error
		if seeded, err = r.prices.SeedQuoteIfAbsent(ctx, *seed); err != nil {
			return false, err
		}
	}

	r.swaps[s.LeagueID] = append(r.swaps[s.LeagueID], s)
	r.positions[positionKey(position.LeagueID, position.MemberID, position.MarketID)] = position
	return seeded, nil
}

func (r *SwapRepository) leaguePositions(leagueID string) []swap.Position {
	out := make([]swap.Position, 0)
	for _, item := range r.positions {
		if item.LeagueID == leagueID {
			out = append(out, item)
		}
	}
	return out
}

func positionKey(leagueID, memberID, marketID string) string {
	return leagueID + "::" + memberID + "::" + marketID
}
