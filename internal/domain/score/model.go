package score

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/riskibarqy/prediction-league/internal/domain/pick"
)

// Score is the current leaderboard row of one member.
type Score struct {
	LeagueID       string
	MemberID       string
	Points         decimal.Decimal
	Rank           int
	CorrectPicks   int
	TotalPicks     int
	PortfolioValue decimal.Decimal
	RealizedPnL    decimal.Decimal
	UnrealizedPnL  decimal.Decimal
	UpdatedAt      time.Time
}

// Snapshot is an immutable copy of a Score taken by one recompute.
type Snapshot struct {
	ID string
	Score
	Period int
	AsOf   time.Time
}

// Run is the complete write set of one recompute.
type Run struct {
	LeagueID      string
	Scores        []Score
	Snapshots     []Snapshot
	ResolvedPicks []pick.Pick
}

// Rank orders scores by points desc, earlier UpdatedAt, then MemberID and assigns 1..n.
func Rank(scores []Score) []Score {
	out := make([]Score, len(scores))
	copy(out, scores)

	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Points.Cmp(out[j].Points); c != 0 {
			return c > 0
		}
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		}
		return out[i].MemberID < out[j].MemberID
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// SameValues compares everything except Rank and UpdatedAt.
func SameValues(a, b Score) bool {
	return a.LeagueID == b.LeagueID &&
		a.MemberID == b.MemberID &&
		a.Points.Equal(b.Points) &&
		a.CorrectPicks == b.CorrectPicks &&
		a.TotalPicks == b.TotalPicks &&
		a.PortfolioValue.Equal(b.PortfolioValue) &&
		a.RealizedPnL.Equal(b.RealizedPnL) &&
		a.UnrealizedPnL.Equal(b.UnrealizedPnL)
}
