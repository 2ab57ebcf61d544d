package score

import "context"

type Repository interface {
	// SaveRun writes scores, snapshots and resolved picks all-or-nothing.
	SaveRun(ctx context.Context, run Run) error
	ListByLeague(ctx context.Context, leagueID string) ([]Score, error)
	// ListRecentSnapshots returns at most limit snapshots, newest first.
	ListRecentSnapshots(ctx context.Context, leagueID string, limit int) ([]Snapshot, error)
}
