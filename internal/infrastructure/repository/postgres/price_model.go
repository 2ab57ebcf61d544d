package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

type priceQuoteTableModel struct {
	OutcomeID string          `db:"outcome_id"`
	MarketID  string          `db:"market_id"`
	Price     decimal.Decimal `db:"price"`
	Source    string          `db:"source"`
	FetchedAt time.Time       `db:"fetched_at"`
}

type marketResolutionTableModel struct {
	MarketID    string    `db:"market_id"`
	WinningSide string    `db:"winning_side"`
	ResolvedAt  time.Time `db:"resolved_at"`
}
