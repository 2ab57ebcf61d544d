package swap

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/riskibarqy/prediction-league/internal/domain/pick"
)

// LifetimeCap is the maximum number of swaps a member may make in one league.
const LifetimeCap = 3

// Swap is an append-only virtual rebalance into a market outcome.
type Swap struct {
	ID            string
	LeagueID      string
	MemberID      string
	MarketID      string
	OutcomeID     string
	Side          pick.Side
	NotionalIn    decimal.Decimal
	NotionalOut   decimal.Decimal
	ExecutedPrice decimal.Decimal
	Fee           decimal.Decimal
	PnLDelta      decimal.Decimal
	Shares        decimal.Decimal
	CreatedAt     time.Time
}

// Position is the open exposure of a member in one market.
type Position struct {
	LeagueID  string
	MemberID  string
	MarketID  string
	OutcomeID string
	Side      pick.Side
	Shares    decimal.Decimal
	CostBasis decimal.Decimal
	OpenedAt  time.Time
	UpdatedAt time.Time
}

var one = decimal.NewFromInt(1)

// SidePrice converts an outcome price into the price of holding side.
func SidePrice(side pick.Side, outcomePrice decimal.Decimal) decimal.Decimal {
	if side == pick.SideNo {
		return one.Sub(outcomePrice)
	}
	return outcomePrice
}

// Matches reports whether the position holds the same outcome and side.
func (p Position) Matches(outcomeID string, side pick.Side) bool {
	return p.OutcomeID == outcomeID && p.Side == side
}

// Value marks the position at outcomePrice, the effective price of its outcome.
func (p Position) Value(outcomePrice decimal.Decimal) decimal.Decimal {
	return p.Shares.Mul(SidePrice(p.Side, outcomePrice))
}

func (p Position) Unrealized(outcomePrice decimal.Decimal) decimal.Decimal {
	return p.Value(outcomePrice).Sub(p.CostBasis)
}
