package httpapi

import (
	"container/list"
	"fmt"
	"net/http"
	"sync"

	crerr "github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

var errRateLimited = crerr.New("rate limit exceeded")

// RateLimitStore decides whether a request from key may proceed.
type RateLimitStore interface {
	Allow(key string) bool
}

type limiterEntry struct {
	key     string
	limiter *rate.Limiter
}

// LimiterStore keeps one token bucket per client and evicts the least recently seen
// client once maxClients is reached.
type LimiterStore struct {
	mu         sync.Mutex
	limit      rate.Limit
	burst      int
	maxClients int
	order      *list.List
	entries    map[string]*list.Element
}

func NewLimiterStore(perSecond float64, burst, maxClients int) *LimiterStore {
	if burst <= 0 {
		burst = 1
	}
	if maxClients <= 0 {
		maxClients = 10000
	}
	return &LimiterStore{
		limit:      rate.Limit(perSecond),
		burst:      burst,
		maxClients: maxClients,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (s *LimiterStore) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.entries[key]; ok {
		s.order.MoveToFront(elem)
		return elem.Value.(*limiterEntry).limiter.Allow()
	}

	for s.order.Len() >= s.maxClients {
		oldest := s.order.Back()
		s.order.Remove(oldest)
		delete(s.entries, oldest.Value.(*limiterEntry).key)
	}

	entry := &limiterEntry{key: key, limiter: rate.NewLimiter(s.limit, s.burst)}
	s.entries[key] = s.order.PushFront(entry)
	return entry.limiter.Allow()
}

func (s *LimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// RateLimit rejects requests with 429 once the client's bucket is empty. A nil store disables limiting.
func RateLimit(store RateLimitStore, next http.Handler) http.Handler {
	if store == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isHealthPath(r.URL.Path) {
			key := resolveClientIP(r)
			if !store.Allow(key) {
				w.Header().Set("Retry-After", "1")
				writeError(r.Context(), w, fmt.Errorf("%w: client=%s", errRateLimited, key))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
