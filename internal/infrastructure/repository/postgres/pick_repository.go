package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/prediction-league/internal/domain/pick"
	qb "github.com/riskibarqy/prediction-league/internal/platform/querybuilder"
)

type PickRepository struct {
	db *sqlx.DB
}

func NewPickRepository(db *sqlx.DB) *PickRepository {
	return &PickRepository{db: db}
}

func (r *PickRepository) Append(ctx context.Context, item pick.Pick) error {
	query, args, err := qb.InsertModel("picks", pickInsertModel{
		PublicID:  item.ID,
		LeagueID:  item.LeagueID,
		MemberID:  item.MemberID,
		MarketID:  item.MarketID,
		Side:      string(item.Side),
		Period:    item.Period,
		Sequence:  item.Sequence,
		CreatedAt: item.CreatedAt.UTC(),
	}, nil)
	if err != nil {
		return fmt.Errorf("build insert pick query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: market=%s period=%d", pick.ErrDuplicate, item.MarketID, item.Period)
		}
		return fmt.Errorf("insert pick: %w", err)
	}
	return nil
}

func (r *PickRepository) ListByMember(ctx context.Context, leagueID, memberID string) ([]pick.Pick, error) {
	return r.list(ctx, qb.Eq("league_public_id", leagueID), qb.Eq("member_id", memberID))
}

func (r *PickRepository) ListByLeague(ctx context.Context, leagueID string) ([]pick.Pick, error) {
	return r.list(ctx, qb.Eq("league_public_id", leagueID))
}

func (r *PickRepository) list(ctx context.Context, conditions ...qb.Condition) ([]pick.Pick, error) {
	query, args, err := qb.Select("*").From("picks").
		Where(conditions...).
		OrderBy("period", "sequence", "created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list picks query: %w", err)
	}

	var rows []pickTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list picks: %w", err)
	}

	out := make([]pick.Pick, 0, len(rows))
	for _, row := range rows {
		out = append(out, pickFromRow(row))
	}
	return out, nil
}

func pickFromRow(row pickTableModel) pick.Pick {
	item := pick.Pick{
		ID:         row.PublicID,
		LeagueID:   row.LeagueID,
		MemberID:   row.MemberID,
		MarketID:   row.MarketID,
		Side:       pick.Side(row.Side),
		Period:     row.Period,
		Sequence:   row.Sequence,
		Correct:    nullBoolToBoolPtr(row.Correct),
		ResolvedAt: nullTimeToTimePtr(row.ResolvedAt),
		CreatedAt:  row.CreatedAt.UTC(),
	}
	if row.PointsEarned.Valid {
		points := row.PointsEarned.Decimal
		item.PointsEarned = &points
	}
	return item
}
