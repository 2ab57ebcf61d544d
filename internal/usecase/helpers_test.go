package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/prediction-league/internal/domain/league"
	"github.com/riskibarqy/prediction-league/internal/domain/swap"
	"github.com/riskibarqy/prediction-league/internal/infrastructure/repository/memory"
)

const (
	testAlice = "member-alice"
	testBob   = "member-bob"
)

// testSeasonStart is the UTC midnight every seeded league starts at.
var testSeasonStart = time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// seededLeagues returns the dev seed plus extra leagues. Alice and Bob are members of every extra league.
func seededLeagues(extra ...league.League) *memory.LeagueRepository {
	leagues := append(memory.SeedLeagues(testSeasonStart), extra...)
	members := memory.SeedMembers(testSeasonStart)
	for _, item := range extra {
		members = append(members,
			league.Member{LeagueID: item.ID, MemberID: testAlice, WalletAddress: "0x1111111111111111111111111111111111111111", JoinedAt: testSeasonStart},
			league.Member{LeagueID: item.ID, MemberID: testBob, WalletAddress: "0x2222222222222222222222222222222222222222", JoinedAt: testSeasonStart},
		)
	}
	return memory.NewLeagueRepository(leagues, members)
}

// sequenceIDs issues prefix-1, prefix-2, ... and is safe for concurrent use.
type sequenceIDs struct {
	prefix string

	mu   sync.Mutex
	next int
}

func (g *sequenceIDs) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s%d", g.prefix, g.next), nil
}

func applySwap(t *testing.T, repo *memory.SwapRepository, s swap.Swap, position swap.Position) {
	t.Helper()

	_, err := repo.Apply(context.Background(), s, position, nil)
	require.NoError(t, err)
}
