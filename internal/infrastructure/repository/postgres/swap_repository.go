package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/prediction-league/internal/domain/pick"
	"github.com/riskibarqy/prediction-league/internal/domain/price"
	"github.com/riskibarqy/prediction-league/internal/domain/swap"
	qb "github.com/riskibarqy/prediction-league/internal/platform/querybuilder"
)

type SwapRepository struct {
	db *sqlx.DB
}

func NewSwapRepository(db *sqlx.DB) *SwapRepository {
	return &SwapRepository{db: db}
}

func (r *SwapRepository) CountByMember(ctx context.Context, leagueID, memberID string) (int, error) {
	return countMemberSwaps(ctx, r.db, leagueID, memberID)
}

func (r *SwapRepository) ListByMember(ctx context.Context, leagueID, memberID string) ([]swap.Swap, error) {
	return listSwaps(ctx, r.db, qb.Eq("league_public_id", leagueID), qb.Eq("member_id", memberID))
}

func (r *SwapRepository) ListByLeague(ctx context.Context, leagueID string) ([]swap.Swap, error) {
	return listSwaps(ctx, r.db, qb.Eq("league_public_id", leagueID))
}

func (r *SwapRepository) GetPosition(ctx context.Context, leagueID, memberID, marketID string) (swap.Position, bool, error) {
	query, args, err := qb.Select("*").From("positions").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("member_id", memberID),
			qb.Eq("market_id", marketID),
		).
		ToSQL()
	if err != nil {
		return swap.Position{}, false, fmt.Errorf("build get position query: %w", err)
	}

	var row positionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return swap.Position{}, false, nil
		}
		return swap.Position{}, false, fmt.Errorf("get position: %w", err)
	}
	return positionFromRow(row), true, nil
}

func (r *SwapRepository) ListPositions(ctx context.Context, leagueID string) ([]swap.Position, error) {
	return listPositions(ctx, r.db, leagueID)
}

// Snapshot reads both tables inside one REPEATABLE READ transaction.
func (r *SwapRepository) Snapshot(ctx context.Context, leagueID string) ([]swap.Swap, []swap.Position, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx swap snapshot: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	swaps, err := listSwaps(ctx, tx, qb.Eq("league_public_id", leagueID))
	if err != nil {
		return nil, nil, err
	}
	positions, err := listPositions(ctx, tx, leagueID)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit swap snapshot tx: %w", err)
	}
	return swaps, positions, nil
}

// Apply serializes writers of one member with a transaction-scoped advisory lock and
// rechecks the lifetime cap before appending. The seed quote shares the transaction.
func (r *SwapRepository) Apply(ctx context.Context, s swap.Swap, position swap.Position, seed *price.Quote) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx apply swap: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", s.LeagueID+"|"+s.MemberID); err != nil {
		return false, fmt.Errorf("lock member swaps: %w", err)
	}

	count, err := countMemberSwaps(ctx, tx, s.LeagueID, s.MemberID)
	if err != nil {
		return false, err
	}
	if count >= swap.LifetimeCap {
		return false, fmt.Errorf("%w: league=%s member=%s", swap.ErrLifetimeCapReached, s.LeagueID, s.MemberID)
	}

	insertQuery, insertArgs, err := qb.InsertModel("swaps", swapInsertModel{
		PublicID:      s.ID,
		LeagueID:      s.LeagueID,
		MemberID:      s.MemberID,
		MarketID:      s.MarketID,
		OutcomeID:     s.OutcomeID,
		Side:          string(s.Side),
		NotionalIn:    s.NotionalIn,
		NotionalOut:   s.NotionalOut,
		ExecutedPrice: s.ExecutedPrice,
		Fee:           s.Fee,
		PnLDelta:      s.PnLDelta,
		Shares:        s.Shares,
		CreatedAt:     s.CreatedAt.UTC(),
	}, nil)
	if err != nil {
		return false, fmt.Errorf("build insert swap query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return false, fmt.Errorf("insert swap id=%s: %w", s.ID, err)
	}

	positionQuery, positionArgs, err := qb.InsertModel("positions", positionTableModel{
		LeagueID:  position.LeagueID,
		MemberID:  position.MemberID,
		MarketID:  position.MarketID,
		OutcomeID: position.OutcomeID,
		Side:      string(position.Side),
		Shares:    position.Shares,
		CostBasis: position.CostBasis,
		OpenedAt:  position.OpenedAt.UTC(),
		UpdatedAt: position.UpdatedAt.UTC(),
	}, qb.OnConflict("league_public_id", "member_id", "market_id").
		DoUpdate("outcome_id", "side", "shares", "cost_basis", "opened_at", "updated_at"))
	if err != nil {
		return false, fmt.Errorf("build upsert position query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, positionQuery, positionArgs...); err != nil {
		return false, fmt.Errorf("upsert position market=%s: %w", position.MarketID, err)
	}

	seeded := false
	if seed != nil {
		if seeded, err = seedQuote(ctx, tx, *seed); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit apply swap tx: %w", err)
	}
	return seeded, nil
}

func listSwaps(ctx context.Context, q sqlx.QueryerContext, conditions ...qb.Condition) ([]swap.Swap, error) {
	query, args, err := qb.Select("*").From("swaps").
		Where(conditions...).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list swaps query: %w", err)
	}

	var rows []swapTableModel
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list swaps: %w", err)
	}

	out := make([]swap.Swap, 0, len(rows))
	for _, row := range rows {
		out = append(out, swap.Swap{
			ID:            row.PublicID,
			LeagueID:      row.LeagueID,
			MemberID:      row.MemberID,
			MarketID:      row.MarketID,
			OutcomeID:     row.OutcomeID,
			Side:          pick.Side(row.Side),
			NotionalIn:    row.NotionalIn,
			NotionalOut:   row.NotionalOut,
			ExecutedPrice: row.ExecutedPrice,
			Fee:           row.Fee,
			PnLDelta:      row.PnLDelta,
			Shares:        row.Shares,
			CreatedAt:     row.CreatedAt.UTC(),
		})
	}
	return out, nil
}

func countMemberSwaps(ctx context.Context, q sqlx.QueryerContext, leagueID, memberID string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From("swaps").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("member_id", memberID),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count swaps query: %w", err)
	}

	var count int
	if err := sqlx.GetContext(ctx, q, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count swaps: %w", err)
	}
	return count, nil
}

func listPositions(ctx context.Context, q sqlx.QueryerContext, leagueID string) ([]swap.Position, error) {
	query, args, err := qb.Select("*").From("positions").
		Where(qb.Eq("league_public_id", leagueID)).
		OrderBy("member_id", "market_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list positions query: %w", err)
	}

	var rows []positionTableModel
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}

	out := make([]swap.Position, 0, len(rows))
	for _, row := range rows {
		out = append(out, positionFromRow(row))
	}
	return out, nil
}

func positionFromRow(row positionTableModel) swap.Position {
	return swap.Position{
		LeagueID:  row.LeagueID,
		MemberID:  row.MemberID,
		MarketID:  row.MarketID,
		OutcomeID: row.OutcomeID,
		Side:      pick.Side(row.Side),
		Shares:    row.Shares,
		CostBasis: row.CostBasis,
		OpenedAt:  row.OpenedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}
