package postgres

import (
	"database/sql"
	"time"
)

type leagueTableModel struct {
	ID               int64          `db:"id"`
	PublicID         string         `db:"public_id"`
	Name             string         `db:"name"`
	Mode             string         `db:"mode"`
	Cadence          string         `db:"cadence"`
	MarketsPerPeriod int            `db:"markets_per_period"`
	StartAt          time.Time      `db:"start_at"`
	EndAt            time.Time      `db:"end_at"`
	Status           string         `db:"status"`
	PointsPolicy     string         `db:"points_policy"`
	EscrowAddress    sql.NullString `db:"escrow_address"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	DeletedAt        *time.Time     `db:"deleted_at"`
}

type leagueMemberTableModel struct {
	ID            int64      `db:"id"`
	LeagueID      string     `db:"league_public_id"`
	MemberID      string     `db:"member_id"`
	WalletAddress string     `db:"wallet_address"`
	JoinedAt      time.Time  `db:"joined_at"`
	DeletedAt     *time.Time `db:"deleted_at"`
}
