package price

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/riskibarqy/prediction-league/internal/domain/pick"
)

type Source string

const (
	SourceGamma Source = "gamma"
	SourceSeed  Source = "seed"
)

// FallbackPrice values outcomes that were never quoted. It never feeds the slippage check.
var FallbackPrice = decimal.RequireFromString("0.5")

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)
)

// Quote is the latest known price of one outcome.
type Quote struct {
	OutcomeID string
	MarketID  string
	Price     decimal.Decimal
	Source    Source
	FetchedAt time.Time
}

// InRange reports whether p lies in [0,1].
func InRange(p decimal.Decimal) bool {
	return !p.LessThan(zero) && !p.GreaterThan(one)
}

// Resolution records the winning side of a closed binary market.
type Resolution struct {
	MarketID    string
	WinningSide pick.Side
	ResolvedAt  time.Time
}

// Outcome is one priced outcome of a feed market. Price is nil when the feed has no data.
type Outcome struct {
	OutcomeID string
	Label     string
	Price     *decimal.Decimal
}

// Market is the feed's view of a binary market.
type Market struct {
	MarketID string
	Question string
	Closed   bool
	Outcomes []Outcome
}

// sideOf maps an outcome onto YES or NO by label, falling back to position.
func sideOf(o Outcome, index int) (pick.Side, bool) {
	switch strings.ToLower(strings.TrimSpace(o.Label)) {
	case "yes":
		return pick.SideYes, true
	case "no":
		return pick.SideNo, true
	}
	switch index {
	case 0:
		return pick.SideYes, true
	case 1:
		return pick.SideNo, true
	default:
		return "", false
	}
}

// Resolution derives the winning side of a closed market whose YES or NO price is exactly 1.
func (m Market) Resolution(at time.Time) (Resolution, bool) {
	if !m.Closed {
		return Resolution{}, false
	}
	for i, o := range m.Outcomes {
		if o.Price == nil || !o.Price.Equal(one) {
			continue
		}
		side, ok := sideOf(o, i)
		if !ok {
			continue
		}
		return Resolution{MarketID: m.MarketID, WinningSide: side, ResolvedAt: at}, true
	}
	return Resolution{}, false
}

// Book is a point-in-time view of stored quotes.
type Book struct {
	quotes map[string]Quote
}

func NewBook(quotes []Quote) Book {
	out := make(map[string]Quote, len(quotes))
	for _, q := range quotes {
		out[q.OutcomeID] = q
	}
	return Book{quotes: out}
}

// Stored returns the stored price and whether one exists.
func (b Book) Stored(outcomeID string) (decimal.Decimal, bool) {
	q, ok := b.quotes[outcomeID]
	if !ok {
		return decimal.Decimal{}, false
	}
	return q.Price, true
}

// Effective returns the stored price or FallbackPrice.
func (b Book) Effective(outcomeID string) decimal.Decimal {
	if p, ok := b.Stored(outcomeID); ok {
		return p
	}
	return FallbackPrice
}

func (b Book) Len() int {
	return len(b.quotes)
}
