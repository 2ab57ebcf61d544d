package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/prediction-league/internal/domain/jobscheduler"
)

type JobDispatchRepository struct {
	mu    sync.RWMutex
	items map[string]jobscheduler.DispatchEvent
}

func NewJobDispatchRepository() *JobDispatchRepository {
	return &JobDispatchRepository{items: make(map[string]jobscheduler.DispatchEvent)}
}

func (r *JobDispatchRepository) UpsertEvent(_ context.Context, event jobscheduler.DispatchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, seen := r.items[event.DispatchID]
	event.Attempts = prev.Attempts
	if event.Status == jobscheduler.StatusSent {
		event.Attempts++
	}
	if seen && event.JobName == "" {
		event.JobName = prev.JobName
	}
	r.items[event.DispatchID] = event
	return nil
}

func (r *JobDispatchRepository) ListEvents(_ context.Context, limit int) ([]jobscheduler.DispatchEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]jobscheduler.DispatchEvent, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
