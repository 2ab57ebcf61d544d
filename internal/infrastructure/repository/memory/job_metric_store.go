package memory

import (
	"sync"

	"github.com/riskibarqy/prediction-league/internal/domain/jobscheduler"
)

const DefaultJobMetricCapacity = 50

// JobMetricStore is a fixed-size ring of the most recent job metrics.
type JobMetricStore struct {
	mu    sync.Mutex
	items []jobscheduler.Metric
	next  int
	full  bool
}

func NewJobMetricStore(capacity int) *JobMetricStore {
	if capacity <= 0 {
		capacity = DefaultJobMetricCapacity
	}
	return &JobMetricStore{items: make([]jobscheduler.Metric, capacity)}
}

func (s *JobMetricStore) Record(metric jobscheduler.Metric) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[s.next] = metric
	s.next = (s.next + 1) % len(s.items)
	if s.next == 0 {
		s.full = true
	}
}

func (s *JobMetricStore) Recent(limit int) []jobscheduler.Metric {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := s.next
	if s.full {
		size = len(s.items)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]jobscheduler.Metric, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (s.next - 1 - i + len(s.items)) % len(s.items)
		out = append(out, s.items[idx])
	}
	return out
}

func (s *JobMetricStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.full {
		return len(s.items)
	}
	return s.next
}
