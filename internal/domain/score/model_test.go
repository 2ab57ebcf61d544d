package score

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRank_TieBreaks(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	scores := []Score{
		{MemberID: "carol", Points: decimal.NewFromInt(20), UpdatedAt: base.Add(2 * time.Minute)},
		{MemberID: "bob", Points: decimal.NewFromInt(20), UpdatedAt: base.Add(time.Minute)},
		{MemberID: "alice", Points: decimal.NewFromInt(10), UpdatedAt: base},
		{MemberID: "dave", Points: decimal.NewFromInt(20), UpdatedAt: base.Add(time.Minute)},
	}

	got := Rank(scores)

	order := make([]string, 0, len(got))
	for i, s := range got {
		assert.Equal(t, i+1, s.Rank)
		order = append(order, s.MemberID)
	}
	assert.Equal(t, []string{"bob", "dave", "carol", "alice"}, order)
	assert.Equal(t, "carol", scores[0].MemberID, "input must not be reordered")
}

func TestRank_Deterministic(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	a := []Score{
		{MemberID: "m2", Points: decimal.NewFromInt(5), UpdatedAt: at},
		{MemberID: "m1", Points: decimal.NewFromInt(5), UpdatedAt: at},
	}
	b := []Score{a[1], a[0]}

	assert.Equal(t, Rank(a), Rank(b))
}

func TestSameValues(t *testing.T) {
	t.Parallel()

	a := Score{MemberID: "m1", Points: decimal.RequireFromString("1.50"), Rank: 1, UpdatedAt: time.Unix(1, 0)}
	b := Score{MemberID: "m1", Points: decimal.RequireFromString("1.5"), Rank: 2, UpdatedAt: time.Unix(2, 0)}
	assert.True(t, SameValues(a, b))

	b.TotalPicks = 1
	assert.False(t, SameValues(a, b))
}
