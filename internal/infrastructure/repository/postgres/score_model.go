package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

type scoreTableModel struct {
	LeagueID       string          `db:"league_public_id"`
	MemberID       string          `db:"member_id"`
	Points         decimal.Decimal `db:"points"`
	Rank           int             `db:"rank"`
	CorrectPicks   int             `db:"correct_picks"`
	TotalPicks     int             `db:"total_picks"`
	PortfolioValue decimal.Decimal `db:"portfolio_value"`
	RealizedPnL    decimal.Decimal `db:"realized_pnl"`
	UnrealizedPnL  decimal.Decimal `db:"unrealized_pnl"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

type scoreSnapshotTableModel struct {
	ID             int64           `db:"id"`
	PublicID       string          `db:"public_id"`
	LeagueID       string          `db:"league_public_id"`
	MemberID       string          `db:"member_id"`
	Points         decimal.Decimal `db:"points"`
	Rank           int             `db:"rank"`
	CorrectPicks   int             `db:"correct_picks"`
	TotalPicks     int             `db:"total_picks"`
	PortfolioValue decimal.Decimal `db:"portfolio_value"`
	RealizedPnL    decimal.Decimal `db:"realized_pnl"`
	UnrealizedPnL  decimal.Decimal `db:"unrealized_pnl"`
	Period         int             `db:"period"`
	AsOf           time.Time       `db:"as_of"`
}

type scoreSnapshotInsertModel struct {
	PublicID       string          `db:"public_id"`
	LeagueID       string          `db:"league_public_id"`
	MemberID       string          `db:"member_id"`
	Points         decimal.Decimal `db:"points"`
	Rank           int             `db:"rank"`
	CorrectPicks   int             `db:"correct_picks"`
	TotalPicks     int             `db:"total_picks"`
	PortfolioValue decimal.Decimal `db:"portfolio_value"`
	RealizedPnL    decimal.Decimal `db:"realized_pnl"`
	UnrealizedPnL  decimal.Decimal `db:"unrealized_pnl"`
	Period         int             `db:"period"`
	AsOf           time.Time       `db:"as_of"`
}
