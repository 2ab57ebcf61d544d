package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/prediction-league/internal/domain/price"
)

type PriceRepository struct {
	mu          sync.RWMutex
	quotes      map[string]price.Quote
	resolutions map[string]price.Resolution
}

func NewPriceRepository() *PriceRepository {
	return &PriceRepository{
		quotes:      make(map[string]price.Quote),
		resolutions: make(map[string]price.Resolution),
	}
}

func (r *PriceRepository) GetQuote(_ context.Context, outcomeID string) (price.Quote, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.quotes[outcomeID]
	return q, ok, nil
}

func (r *PriceRepository) ListQuotes(_ context.Context, outcomeIDs []string) ([]price.Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(outcomeIDs) == 0 {
		out := make([]price.Quote, 0, len(r.quotes))
		for _, q := range r.quotes {
			out = append(out, q)
		}
		return out, nil
	}

	out := make([]price.Quote, 0, len(outcomeIDs))
	for _, outcomeID := range outcomeIDs {
		if q, ok := r.quotes[outcomeID]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *PriceRepository) UpsertQuotes(_ context.Context, quotes []price.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, q := range quotes {
		r.quotes[q.OutcomeID] = q
	}
	return nil
}

func (r *PriceRepository) SeedQuoteIfAbsent(_ context.Context, q price.Quote) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.quotes[q.OutcomeID]; ok {
		return false, nil
	}
	r.quotes[q.OutcomeID] = q
	return true, nil
}

func (r *PriceRepository) UpsertResolutions(_ context.Context, resolutions []price.Resolution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range resolutions {
		if _, ok := r.resolutions[item.MarketID]; ok {
			continue
		}
		r.resolutions[item.MarketID] = item
	}
	return nil
}

func (r *PriceRepository) ListResolutions(_ context.Context, marketIDs []string) ([]price.Resolution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]price.Resolution, 0, len(marketIDs))
	for _, marketID := range marketIDs {
		if item, ok := r.resolutions[marketID]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}
