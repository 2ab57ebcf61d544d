package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/prediction-league/internal/domain/jobscheduler"
	qb "github.com/riskibarqy/prediction-league/internal/platform/querybuilder"
)

// dispatchMerge folds a new lifecycle event into an existing row.
var dispatchMerge = qb.OnConflict("dispatch_id").
	Where("deleted_at IS NULL").
	DoUpdate("job_name", "job_path", "league_public_id", "payload", "status", "finished_at", "last_error", "trace_id", "span_id", "updated_at").
	DoUpdateRaw("attempts = job_dispatches.attempts + EXCLUDED.attempts, sent_at = COALESCE(job_dispatches.sent_at, EXCLUDED.sent_at)")

type JobDispatchRepository struct {
	db *sqlx.DB
}

func NewJobDispatchRepository(db *sqlx.DB) *JobDispatchRepository {
	return &JobDispatchRepository{db: db}
}

func (r *JobDispatchRepository) UpsertEvent(ctx context.Context, event jobscheduler.DispatchEvent) error {
	model, err := dispatchRow(event, time.Now())
	if err != nil {
		return err
	}

	query, args, err := qb.InsertModel("job_dispatches", model, dispatchMerge)
	if err != nil {
		return fmt.Errorf("build upsert job dispatch query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert job dispatch dispatch_id=%s status=%s: %w", model.DispatchID, model.Status, err)
	}
	return nil
}

func (r *JobDispatchRepository) ListEvents(ctx context.Context, limit int) ([]jobscheduler.DispatchEvent, error) {
	query, args, err := qb.Select("*").From("job_dispatches").
		Where(qb.IsNull("deleted_at")).
		OrderBy("updated_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list job dispatches query: %w", err)
	}

	var rows []jobDispatchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list job dispatches: %w", err)
	}

	out := make([]jobscheduler.DispatchEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, dispatchEventFromRow(row))
	}
	return out, nil
}

func dispatchRow(event jobscheduler.DispatchEvent, now time.Time) (jobDispatchInsertModel, error) {
	dispatchID := strings.TrimSpace(event.DispatchID)
	if dispatchID == "" {
		return jobDispatchInsertModel{}, fmt.Errorf("dispatch id is required")
	}
	switch event.Status {
	case jobscheduler.StatusSent, jobscheduler.StatusCompleted, jobscheduler.StatusFailed:
	default:
		return jobDispatchInsertModel{}, fmt.Errorf("unknown dispatch status %q", event.Status)
	}

	payload := "{}"
	if len(event.Payload) > 0 {
		raw, err := sonic.MarshalString(event.Payload)
		if err != nil {
			return jobDispatchInsertModel{}, fmt.Errorf("marshal job dispatch payload: %w", err)
		}
		payload = raw
	}

	at := event.OccurredAt.UTC()
	if at.IsZero() {
		at = now.UTC()
	}

	model := jobDispatchInsertModel{
		DispatchID: dispatchID,
		JobName:    orUnknown(event.JobName),
		JobPath:    strings.TrimSpace(event.JobPath),
		LeagueID:   strings.TrimSpace(event.LeagueID),
		Payload:    payload,
		Status:     string(event.Status),
		TraceID:    optionalString(event.TraceID),
		SpanID:     optionalString(event.SpanID),
		UpdatedAt:  at,
	}
	if model.JobPath == "" {
		model.JobPath = "/unknown"
	}

	if event.Status == jobscheduler.StatusSent {
		model.Attempts = 1
		model.SentAt = &at
	} else {
		model.FinishedAt = &at
	}
	if event.Status == jobscheduler.StatusFailed {
		model.LastError = optionalString(event.ErrorMessage)
	}
	return model, nil
}

func dispatchEventFromRow(row jobDispatchTableModel) jobscheduler.DispatchEvent {
	event := jobscheduler.DispatchEvent{
		DispatchID:   row.DispatchID,
		JobName:      row.JobName,
		JobPath:      row.JobPath,
		LeagueID:     row.LeagueID,
		Status:       jobscheduler.DispatchStatus(row.Status),
		Attempts:     row.Attempts,
		ErrorMessage: row.LastError.String,
		OccurredAt:   row.UpdatedAt.UTC(),
		TraceID:      row.TraceID.String,
		SpanID:       row.SpanID.String,
	}

	var payload map[string]any
	if err := sonic.UnmarshalString(row.Payload, &payload); err == nil && len(payload) > 0 {
		event.Payload = payload
	}
	return event
}

func orUnknown(value string) string {
	if value = strings.TrimSpace(value); value == "" {
		return "unknown"
	}
	return value
}
