package pick

import (
	"context"
	"errors"
)

// ErrDuplicate is returned by stores that enforce (league, member, period, market) uniqueness.
var ErrDuplicate = errors.New("pick already exists for market in period")

type Repository interface {
	Append(ctx context.Context, p Pick) error
	ListByMember(ctx context.Context, leagueID, memberID string) ([]Pick, error)
	ListByLeague(ctx context.Context, leagueID string) ([]Pick, error)
}
