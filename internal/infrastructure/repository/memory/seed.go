package memory

import (
	"time"

	"github.com/riskibarqy/prediction-league/internal/domain/league"
)

const (
	LeagueIDDailySim  = "sim-daily-2026"
	LeagueIDWeeklySim = "sim-weekly-2026"
	LeagueIDLive      = "live-weekly-2026"
)

// SeedLeagues builds development leagues whose seasons start at the beginning of start's UTC day.
func SeedLeagues(start time.Time) []league.League {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	return []league.League{
		{
			ID:               LeagueIDDailySim,
			Name:             "Daily Sim Sprint",
			Mode:             league.ModeSim,
			Cadence:          league.CadenceDaily,
			MarketsPerPeriod: 3,
			StartAt:          day,
			EndAt:            day.Add(7 * 24 * time.Hour),
			Status:           league.StatusActive,
			PointsPolicy:     "standard",
			CreatedAt:        day,
			UpdatedAt:        day,
		},
		{
			ID:               LeagueIDWeeklySim,
			Name:             "Weekly Sim Marathon",
			Mode:             league.ModeSim,
			Cadence:          league.CadenceWeekly,
			MarketsPerPeriod: 5,
			StartAt:          day,
			EndAt:            day.Add(28 * 24 * time.Hour),
			Status:           league.StatusActive,
			PointsPolicy:     "pnl-weighted",
			EscrowAddress:    "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E",
			CreatedAt:        day,
			UpdatedAt:        day,
		},
		{
			ID:               LeagueIDLive,
			Name:             "Weekly Live League",
			Mode:             league.ModeLive,
			Cadence:          league.CadenceWeekly,
			MarketsPerPeriod: 5,
			StartAt:          day,
			EndAt:            day.Add(28 * 24 * time.Hour),
			Status:           league.StatusActive,
			CreatedAt:        day,
			UpdatedAt:        day,
		},
	}
}

func SeedMembers(start time.Time) []league.Member {
	joined := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	members := make([]league.Member, 0, 8)
	for _, leagueID := range []string{LeagueIDDailySim, LeagueIDWeeklySim, LeagueIDLive} {
		members = append(members,
			league.Member{LeagueID: leagueID, MemberID: "member-alice", WalletAddress: "0x1111111111111111111111111111111111111111", JoinedAt: joined},
			league.Member{LeagueID: leagueID, MemberID: "member-bob", WalletAddress: "0x2222222222222222222222222222222222222222", JoinedAt: joined},
		)
	}
	return members
}
