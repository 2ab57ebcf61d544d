package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/prediction-league/internal/infrastructure/repository/memory"
)

// BootstrapSeed inserts the development leagues and members into an empty database.
func BootstrapSeed(ctx context.Context, db *sqlx.DB, now time.Time) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM leagues WHERE deleted_at IS NULL`); err != nil {
		return fmt.Errorf("count leagues for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, l := range memory.SeedLeagues(now) {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO leagues (public_id, name, mode, cadence, markets_per_period, start_at, end_at, status, points_policy, escrow_address)
VALUES (:public_id, :name, :mode, :cadence, :markets_per_period, :start_at, :end_at, :status, :points_policy, :escrow_address)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id":          l.ID,
			"name":               l.Name,
			"mode":               string(l.Mode),
			"cadence":            string(l.Cadence),
			"markets_per_period": l.MarketsPerPeriod,
			"start_at":           l.StartAt.UTC(),
			"end_at":             l.EndAt.UTC(),
			"status":             string(l.Status),
			"points_policy":      l.PointsPolicy,
			"escrow_address":     optionalString(l.EscrowAddress),
		})
		if err != nil {
			return fmt.Errorf("bind seed league %s query: %w", l.ID, err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(sqlQuery), args...); err != nil {
			return fmt.Errorf("insert seed league %s: %w", l.ID, err)
		}
	}

	for _, m := range memory.SeedMembers(now) {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO league_members (league_public_id, member_id, wallet_address, joined_at)
VALUES (:league_public_id, :member_id, :wallet_address, :joined_at)
ON CONFLICT (league_public_id, member_id) DO NOTHING`, map[string]any{
			"league_public_id": m.LeagueID,
			"member_id":        m.MemberID,
			"wallet_address":   m.WalletAddress,
			"joined_at":        m.JoinedAt.UTC(),
		})
		if err != nil {
			return fmt.Errorf("bind seed member %s query: %w", m.MemberID, err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(sqlQuery), args...); err != nil {
			return fmt.Errorf("insert seed member %s/%s: %w", m.LeagueID, m.MemberID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}
