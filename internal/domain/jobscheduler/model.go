package jobscheduler

import "time"

type DispatchStatus string

const (
	StatusSent      DispatchStatus = "sent"
	StatusCompleted DispatchStatus = "completed"
	StatusFailed    DispatchStatus = "failed"
)

type DispatchEvent struct {
	DispatchID string
	JobName    string
	JobPath    string
	LeagueID   string
	Status     DispatchStatus
	// Attempts counts sent events seen for this dispatch ID.
	Attempts     int
	Payload      map[string]any
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}

const (
	JobPriceRefresh = "price_refresh"
	JobScoring      = "scoring"
)

// Internal endpoints an external queue calls back into.
const (
	PathPriceRefresh = "/v1/internal/jobs/refresh-prices"
	PathScoring      = "/v1/internal/jobs/recompute-scores"
)

func PathFor(jobName string) (string, bool) {
	switch jobName {
	case JobPriceRefresh:
		return PathPriceRefresh, true
	case JobScoring:
		return PathScoring, true
	default:
		return "", false
	}
}

// Metric records the outcome of one job run. Metrics are process-lifetime only.
type Metric struct {
	JobName   string
	LeagueID  string
	Success   bool
	Skipped   bool
	Duration  time.Duration
	StartedAt time.Time
	Error     string
	Stats     map[string]any
}
