package swap

import (
	"context"
	"errors"

	"github.com/riskibarqy/prediction-league/internal/domain/price"
)

// ErrLifetimeCapReached is returned by stores that recheck LifetimeCap inside Apply.
var ErrLifetimeCapReached = errors.New("swap lifetime cap reached")

type Repository interface {
	CountByMember(ctx context.Context, leagueID, memberID string) (int, error)
	ListByMember(ctx context.Context, leagueID, memberID string) ([]Swap, error)
	ListByLeague(ctx context.Context, leagueID string) ([]Swap, error)

	GetPosition(ctx context.Context, leagueID, memberID, marketID string) (Position, bool, error)
	ListPositions(ctx context.Context, leagueID string) ([]Position, error)

	// Snapshot reads the league's swaps and positions as of a single point in time.
	Snapshot(ctx context.Context, leagueID string) ([]Swap, []Position, error)

	// Apply appends s and upserts position in one atomic write. A non-nil seed
	// becomes the outcome's quote when none is stored yet; seeded reports whether it did.
	Apply(ctx context.Context, s Swap, position Position, seed *price.Quote) (seeded bool, err error)
}
