package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/prediction-league/internal/domain/score"
	qb "github.com/riskibarqy/prediction-league/internal/platform/querybuilder"
)

type ScoreRepository struct {
	db *sqlx.DB
}

func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// SaveRun settles picks, upserts scores and appends snapshots in a single transaction.
func (r *ScoreRepository) SaveRun(ctx context.Context, run score.Run) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx save scoring run: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range run.ResolvedPicks {
		if item.ResolvedAt == nil || item.PointsEarned == nil || item.Correct == nil {
			continue
		}
		query, args, err := qb.Update("picks").
			Set("points_earned", *item.PointsEarned).
			Set("correct", *item.Correct).
			Set("resolved_at", item.ResolvedAt.UTC()).
			Where(
				qb.Eq("public_id", item.ID),
				qb.IsNull("resolved_at"),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build resolve pick query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("resolve pick id=%s: %w", item.ID, err)
		}
	}

	for _, item := range run.Scores {
		query, args, err := qb.InsertModel("scores", scoreTableModel{
			LeagueID:       run.LeagueID,
			MemberID:       item.MemberID,
			Points:         item.Points,
			Rank:           item.Rank,
			CorrectPicks:   item.CorrectPicks,
			TotalPicks:     item.TotalPicks,
			PortfolioValue: item.PortfolioValue,
			RealizedPnL:    item.RealizedPnL,
			UnrealizedPnL:  item.UnrealizedPnL,
			UpdatedAt:      item.UpdatedAt.UTC(),
		}, qb.OnConflict("league_public_id", "member_id").DoUpdate(
			"points", "rank", "correct_picks", "total_picks",
			"portfolio_value", "realized_pnl", "unrealized_pnl", "updated_at",
		))
		if err != nil {
			return fmt.Errorf("build upsert score query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert score member=%s: %w", item.MemberID, err)
		}
	}

	for _, item := range run.Snapshots {
		query, args, err := qb.InsertModel("score_snapshots", scoreSnapshotInsertModel{
			PublicID:       item.ID,
			LeagueID:       run.LeagueID,
			MemberID:       item.MemberID,
			Points:         item.Points,
			Rank:           item.Rank,
			CorrectPicks:   item.CorrectPicks,
			TotalPicks:     item.TotalPicks,
			PortfolioValue: item.PortfolioValue,
			RealizedPnL:    item.RealizedPnL,
			UnrealizedPnL:  item.UnrealizedPnL,
			Period:         item.Period,
			AsOf:           item.AsOf.UTC(),
		}, nil)
		if err != nil {
			return fmt.Errorf("build insert snapshot query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert snapshot member=%s: %w", item.MemberID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save scoring run tx: %w", err)
	}
	return nil
}

func (r *ScoreRepository) ListByLeague(ctx context.Context, leagueID string) ([]score.Score, error) {
	query, args, err := qb.Select("*").From("scores").
		Where(qb.Eq("league_public_id", leagueID)).
		OrderBy("rank", "member_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list scores query: %w", err)
	}

	var rows []scoreTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}

	out := make([]score.Score, 0, len(rows))
	for _, row := range rows {
		out = append(out, score.Score{
			LeagueID:       row.LeagueID,
			MemberID:       row.MemberID,
			Points:         row.Points,
			Rank:           row.Rank,
			CorrectPicks:   row.CorrectPicks,
			TotalPicks:     row.TotalPicks,
			PortfolioValue: row.PortfolioValue,
			RealizedPnL:    row.RealizedPnL,
			UnrealizedPnL:  row.UnrealizedPnL,
			UpdatedAt:      row.UpdatedAt.UTC(),
		})
	}
	return out, nil
}

func (r *ScoreRepository) ListRecentSnapshots(ctx context.Context, leagueID string, limit int) ([]score.Snapshot, error) {
	builder := qb.Select("*").From("score_snapshots").
		Where(qb.Eq("league_public_id", leagueID)).
		OrderBy("as_of DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list snapshots query: %w", err)
	}

	var rows []scoreSnapshotTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	out := make([]score.Snapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, score.Snapshot{
			ID: row.PublicID,
			Score: score.Score{
				LeagueID:       row.LeagueID,
				MemberID:       row.MemberID,
				Points:         row.Points,
				Rank:           row.Rank,
				CorrectPicks:   row.CorrectPicks,
				TotalPicks:     row.TotalPicks,
				PortfolioValue: row.PortfolioValue,
				RealizedPnL:    row.RealizedPnL,
				UnrealizedPnL:  row.UnrealizedPnL,
				UpdatedAt:      row.AsOf.UTC(),
			},
			Period: row.Period,
			AsOf:   row.AsOf.UTC(),
		})
	}
	return out, nil
}
