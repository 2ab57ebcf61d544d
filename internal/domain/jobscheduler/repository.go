package jobscheduler

import "context"

type Repository interface {
	UpsertEvent(ctx context.Context, event DispatchEvent) error
	ListEvents(ctx context.Context, limit int) ([]DispatchEvent, error)
}

// MetricStore keeps a bounded window of recent job metrics.
type MetricStore interface {
	Record(metric Metric)
	// Recent returns up to limit metrics, newest first.
	Recent(limit int) []Metric
}
