package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/prediction-league/internal/domain/pick"
	"github.com/riskibarqy/prediction-league/internal/domain/price"
	qb "github.com/riskibarqy/prediction-league/internal/platform/querybuilder"
)

type PriceRepository struct {
	db *sqlx.DB
}

func NewPriceRepository(db *sqlx.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

func (r *PriceRepository) GetQuote(ctx context.Context, outcomeID string) (price.Quote, bool, error) {
	query, args, err := qb.Select("*").From("price_quotes").
		Where(qb.Eq("outcome_id", outcomeID)).
		ToSQL()
	if err != nil {
		return price.Quote{}, false, fmt.Errorf("build get quote query: %w", err)
	}

	var row priceQuoteTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return price.Quote{}, false, nil
		}
		return price.Quote{}, false, fmt.Errorf("get quote outcome=%s: %w", outcomeID, err)
	}
	return quoteFromRow(row), true, nil
}

func (r *PriceRepository) ListQuotes(ctx context.Context, outcomeIDs []string) ([]price.Quote, error) {
	builder := qb.Select("*").From("price_quotes").OrderBy("outcome_id")
	if len(outcomeIDs) > 0 {
		builder = builder.Where(qb.In("outcome_id", outcomeIDs))
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list quotes query: %w", err)
	}

	var rows []priceQuoteTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}

	out := make([]price.Quote, 0, len(rows))
	for _, row := range rows {
		out = append(out, quoteFromRow(row))
	}
	return out, nil
}

func (r *PriceRepository) UpsertQuotes(ctx context.Context, quotes []price.Quote) error {
	if len(quotes) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert quotes: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, q := range quotes {
		query, args, err := qb.InsertModel("price_quotes", quoteToRow(q), qb.OnConflict("outcome_id").
			DoUpdate("market_id", "price", "source", "fetched_at"))
		if err != nil {
			return fmt.Errorf("build upsert quote query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert quote outcome=%s: %w", q.OutcomeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert quotes tx: %w", err)
	}
	return nil
}

func (r *PriceRepository) SeedQuoteIfAbsent(ctx context.Context, q price.Quote) (bool, error) {
	return seedQuote(ctx, r.db, q)
}

func seedQuote(ctx context.Context, exec sqlx.ExecerContext, q price.Quote) (bool, error) {
	query, args, err := qb.InsertModel("price_quotes", quoteToRow(q), qb.OnConflict("outcome_id"))
	if err != nil {
		return false, fmt.Errorf("build seed quote query: %w", err)
	}

	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("seed quote outcome=%s: %w", q.OutcomeID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("seed quote rows affected: %w", err)
	}
	return affected > 0, nil
}

// UpsertResolutions keeps the first recorded resolution of each market.
func (r *PriceRepository) UpsertResolutions(ctx context.Context, resolutions []price.Resolution) error {
	for _, item := range resolutions {
		query, args, err := qb.InsertModel("market_resolutions", marketResolutionTableModel{
			MarketID:    item.MarketID,
			WinningSide: string(item.WinningSide),
			ResolvedAt:  item.ResolvedAt.UTC(),
		}, qb.OnConflict("market_id"))
		if err != nil {
			return fmt.Errorf("build insert resolution query: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert resolution market=%s: %w", item.MarketID, err)
		}
	}
	return nil
}

func (r *PriceRepository) ListResolutions(ctx context.Context, marketIDs []string) ([]price.Resolution, error) {
	if len(marketIDs) == 0 {
		return nil, nil
	}

	query, args, err := qb.Select("*").From("market_resolutions").
		Where(qb.In("market_id", marketIDs)).
		OrderBy("market_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list resolutions query: %w", err)
	}

	var rows []marketResolutionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list resolutions: %w", err)
	}

	out := make([]price.Resolution, 0, len(rows))
	for _, row := range rows {
		out = append(out, price.Resolution{
			MarketID:    row.MarketID,
			WinningSide: pick.Side(row.WinningSide),
			ResolvedAt:  row.ResolvedAt.UTC(),
		})
	}
	return out, nil
}

func quoteToRow(q price.Quote) priceQuoteTableModel {
	return priceQuoteTableModel{
		OutcomeID: q.OutcomeID,
		MarketID:  q.MarketID,
		Price:     q.Price,
		Source:    string(q.Source),
		FetchedAt: q.FetchedAt.UTC(),
	}
}

func quoteFromRow(row priceQuoteTableModel) price.Quote {
	return price.Quote{
		OutcomeID: row.OutcomeID,
		MarketID:  row.MarketID,
		Price:     row.Price,
		Source:    price.Source(row.Source),
		FetchedAt: row.FetchedAt.UTC(),
	}
}
