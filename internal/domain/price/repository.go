package price

import "context"

type Repository interface {
	GetQuote(ctx context.Context, outcomeID string) (Quote, bool, error)
	// ListQuotes returns stored quotes for outcomeIDs, or all quotes when none are given.
	ListQuotes(ctx context.Context, outcomeIDs []string) ([]Quote, error)
	UpsertQuotes(ctx context.Context, quotes []Quote) error
	// SeedQuoteIfAbsent stores q only when no quote exists for its outcome.
	SeedQuoteIfAbsent(ctx context.Context, q Quote) (bool, error)

	UpsertResolutions(ctx context.Context, resolutions []Resolution) error
	ListResolutions(ctx context.Context, marketIDs []string) ([]Resolution, error)
}
