package pick

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// ParseSide normalizes raw into a Side.
func ParseSide(raw string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(raw))) {
	case SideYes:
		return SideYes, nil
	case SideNo:
		return SideNo, nil
	default:
		return "", fmt.Errorf("invalid side %q", raw)
	}
}

func (s Side) Valid() bool {
	return s == SideYes || s == SideNo
}

// Opposite flips YES and NO.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

// Pick is a member's outcome selection for one market in one period.
type Pick struct {
	ID           string
	LeagueID     string
	MemberID     string
	MarketID     string
	Side         Side
	Period       int
	Sequence     int
	PointsEarned *decimal.Decimal
	Correct      *bool
	ResolvedAt   *time.Time
	CreatedAt    time.Time
}

func (p Pick) IsResolved() bool {
	return p.ResolvedAt != nil
}

// Resolve settles the pick against winningSide. Resolved picks are returned unchanged.
func (p Pick) Resolve(winningSide Side, credit decimal.Decimal, at time.Time) Pick {
	if p.IsResolved() {
		return p
	}
	correct := p.Side == winningSide
	points := credit
	resolvedAt := at
	p.Correct = &correct
	p.PointsEarned = &points
	p.ResolvedAt = &resolvedAt
	return p
}

// CountInPeriod returns how many picks fall in period and whether marketID is among them.
func CountInPeriod(picks []Pick, period int, marketID string) (int, bool) {
	count := 0
	duplicate := false
	for _, p := range picks {
		if p.Period != period {
			continue
		}
		count++
		if p.MarketID == marketID {
			duplicate = true
		}
	}
	return count, duplicate
}
