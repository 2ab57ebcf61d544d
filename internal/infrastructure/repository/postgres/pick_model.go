package postgres

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type pickTableModel struct {
	ID           int64               `db:"id"`
	PublicID     string              `db:"public_id"`
	LeagueID     string              `db:"league_public_id"`
	MemberID     string              `db:"member_id"`
	MarketID     string              `db:"market_id"`
	Side         string              `db:"side"`
	Period       int                 `db:"period"`
	Sequence     int                 `db:"sequence"`
	PointsEarned decimal.NullDecimal `db:"points_earned"`
	Correct      sql.NullBool        `db:"correct"`
	ResolvedAt   sql.NullTime        `db:"resolved_at"`
	CreatedAt    time.Time           `db:"created_at"`
}

type pickInsertModel struct {
	PublicID  string    `db:"public_id"`
	LeagueID  string    `db:"league_public_id"`
	MemberID  string    `db:"member_id"`
	MarketID  string    `db:"market_id"`
	Side      string    `db:"side"`
	Period    int       `db:"period"`
	Sequence  int       `db:"sequence"`
	CreatedAt time.Time `db:"created_at"`
}
