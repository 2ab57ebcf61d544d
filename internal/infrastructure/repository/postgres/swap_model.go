package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

type swapTableModel struct {
	ID            int64           `db:"id"`
	PublicID      string          `db:"public_id"`
	LeagueID      string          `db:"league_public_id"`
	MemberID      string          `db:"member_id"`
	MarketID      string          `db:"market_id"`
	OutcomeID     string          `db:"outcome_id"`
	Side          string          `db:"side"`
	NotionalIn    decimal.Decimal `db:"notional_in"`
	NotionalOut   decimal.Decimal `db:"notional_out"`
	ExecutedPrice decimal.Decimal `db:"executed_price"`
	Fee           decimal.Decimal `db:"fee"`
	PnLDelta      decimal.Decimal `db:"pnl_delta"`
	Shares        decimal.Decimal `db:"shares"`
	CreatedAt     time.Time       `db:"created_at"`
}

type swapInsertModel struct {
	PublicID      string          `db:"public_id"`
	LeagueID      string          `db:"league_public_id"`
	MemberID      string          `db:"member_id"`
	MarketID      string          `db:"market_id"`
	OutcomeID     string          `db:"outcome_id"`
	Side          string          `db:"side"`
	NotionalIn    decimal.Decimal `db:"notional_in"`
	NotionalOut   decimal.Decimal `db:"notional_out"`
	ExecutedPrice decimal.Decimal `db:"executed_price"`
	Fee           decimal.Decimal `db:"fee"`
	PnLDelta      decimal.Decimal `db:"pnl_delta"`
	Shares        decimal.Decimal `db:"shares"`
	CreatedAt     time.Time       `db:"created_at"`
}

type positionTableModel struct {
	LeagueID  string          `db:"league_public_id"`
	MemberID  string          `db:"member_id"`
	MarketID  string          `db:"market_id"`
	OutcomeID string          `db:"outcome_id"`
	Side      string          `db:"side"`
	Shares    decimal.Decimal `db:"shares"`
	CostBasis decimal.Decimal `db:"cost_basis"`
	OpenedAt  time.Time       `db:"opened_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}
