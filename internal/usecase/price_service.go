package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/prediction-league/internal/domain/pick"
	"github.com/riskibarqy/prediction-league/internal/domain/price"
	"github.com/riskibarqy/prediction-league/internal/domain/swap"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
)

// PriceFeed is the upstream quote source. Markets it has no data for are omitted.
type PriceFeed interface {
	FetchMarkets(ctx context.Context, marketIDs []string) ([]price.Market, error)
}

type PriceServiceConfig struct {
	FetchTimeout time.Duration
}

type RefreshResult struct {
	Requested int `json:"requested"`
	Updated   int `json:"updated"`
	Missing   int `json:"missing"`
	Resolved  int `json:"resolved"`
}

func (r RefreshResult) Stats() map[string]any {
	return map[string]any{
		"requested": r.Requested,
		"updated":   r.Updated,
		"missing":   r.Missing,
		"resolved":  r.Resolved,
	}
}

type PriceService struct {
	cfg       PriceServiceConfig
	feed      PriceFeed
	priceRepo price.Repository
	pickRepo  pick.Repository
	swapRepo  swap.Repository
	logger    *logging.Logger
	now       func() time.Time
}

func NewPriceService(
	cfg PriceServiceConfig,
	feed PriceFeed,
	priceRepo price.Repository,
	pickRepo pick.Repository,
	swapRepo swap.Repository,
	logger *logging.Logger,
) *PriceService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}

	return &PriceService{
		cfg:       cfg,
		feed:      feed,
		priceRepo: priceRepo,
		pickRepo:  pickRepo,
		swapRepo:  swapRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// RefreshPrices pulls the feed once for marketIDs. Outcomes without data keep their stored quote.
func (s *PriceService) RefreshPrices(ctx context.Context, marketIDs []string) (RefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PriceService.RefreshPrices")
	defer span.End()

	marketIDs = normalizeIDs(marketIDs)
	result := RefreshResult{Requested: len(marketIDs)}
	if len(marketIDs) == 0 {
		return result, nil
	}
	if s.feed == nil {
		return result, fmt.Errorf("%w: price feed is not configured", ErrDependencyUnavailable)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	markets, err := s.feed.FetchMarkets(fetchCtx, marketIDs)
	cancel()
	if err != nil {
		if crerr.Is(err, ErrDependencyUnavailable) {
			return result, fmt.Errorf("fetch markets: %w", err)
		}
		return result, fmt.Errorf("%w: fetch markets: %v", ErrDependencyUnavailable, err)
	}

	now := s.now().UTC()
	requested := make(map[string]struct{}, len(marketIDs))
	for _, marketID := range marketIDs {
		requested[marketID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(markets))
	quotes := make([]price.Quote, 0, len(markets)*2)
	resolutions := make([]price.Resolution, 0)
	for _, market := range markets {
		if _, ok := requested[market.MarketID]; !ok {
			continue
		}
		seen[market.MarketID] = struct{}{}

		for _, outcome := range market.Outcomes {
			if strings.TrimSpace(outcome.OutcomeID) == "" || outcome.Price == nil || !price.InRange(*outcome.Price) {
				result.Missing++
				continue
			}
			quotes = append(quotes, price.Quote{
				OutcomeID: outcome.OutcomeID,
				MarketID:  market.MarketID,
				Price:     *outcome.Price,
				Source:    price.SourceGamma,
				FetchedAt: now,
			})
		}
		if resolution, ok := market.Resolution(now); ok {
			resolutions = append(resolutions, resolution)
		}
	}
	result.Missing += len(requested) - len(seen)

	if len(quotes) > 0 {
		if err := s.priceRepo.UpsertQuotes(ctx, quotes); err != nil {
			return result, fmt.Errorf("upsert quotes: %w", err)
		}
	}
	if len(resolutions) > 0 {
		if err := s.priceRepo.UpsertResolutions(ctx, resolutions); err != nil {
			return result, fmt.Errorf("upsert resolutions: %w", err)
		}
	}
	result.Updated = len(quotes)
	result.Resolved = len(resolutions)

	s.logger.InfoContext(ctx, "prices refreshed",
		"requested", result.Requested,
		"updated", result.Updated,
		"missing", result.Missing,
		"resolved", result.Resolved,
	)
	return result, nil
}

// TrackedMarkets lists markets referenced by unresolved picks or open positions of a league.
func (s *PriceService) TrackedMarkets(ctx context.Context, leagueID string) ([]string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PriceService.TrackedMarkets", leagueID)
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	picks, err := s.pickRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list league picks: %w", err)
	}
	positions, err := s.swapRepo.ListPositions(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list league positions: %w", err)
	}

	ids := make([]string, 0, len(picks)+len(positions))
	for _, item := range picks {
		if !item.IsResolved() {
			ids = append(ids, item.MarketID)
		}
	}
	for _, item := range positions {
		ids = append(ids, item.MarketID)
	}
	return normalizeIDs(ids), nil
}

// RefreshLeague refreshes every market the league tracks.
func (s *PriceService) RefreshLeague(ctx context.Context, leagueID string) (RefreshResult, error) {
	marketIDs, err := s.TrackedMarkets(ctx, leagueID)
	if err != nil {
		return RefreshResult{}, err
	}
	return s.RefreshPrices(ctx, marketIDs)
}

func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}
