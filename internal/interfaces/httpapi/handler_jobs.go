package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/prediction-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/prediction-league/internal/usecase"
)

const (
	defaultJobListLimit = 20
	maxJobListLimit     = 200
)

var dispatchUnsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

func (h *Handler) RunRefreshPricesJob(w http.ResponseWriter, r *http.Request) {
	h.runInternalJob(w, r, "httpapi.Handler.RunRefreshPricesJob", jobscheduler.JobPriceRefresh, jobscheduler.PathPriceRefresh)
}

func (h *Handler) RunRecomputeScoresJob(w http.ResponseWriter, r *http.Request) {
	h.runInternalJob(w, r, "httpapi.Handler.RunRecomputeScoresJob", jobscheduler.JobScoring, jobscheduler.PathScoring)
}

func (h *Handler) runInternalJob(w http.ResponseWriter, r *http.Request, spanName, jobName, jobPath string) {
	ctx, span := startSpan(r.Context(), spanName)
	defer span.End()

	if h.jobScheduler == nil {
		writeError(ctx, w, fmt.Errorf("%w: job scheduler is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req internalJobRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}
	req.LeagueID = strings.TrimSpace(req.LeagueID)
	req.DispatchID = strings.TrimSpace(req.DispatchID)
	if req.DispatchID == "" {
		req.DispatchID = manualDispatchID(jobName, req.LeagueID, h.now())
	}
	span.SetAttributes(leagueAttr(req.LeagueID), attribute.String("job.dispatch_id", req.DispatchID))

	trail := h.newDispatchTrail(req, jobName, jobPath)
	trail.record(ctx, jobscheduler.StatusSent, nil)

	var (
		metrics []jobscheduler.Metric
		err     error
	)
	if req.LeagueID == "" {
		metrics, err = h.jobScheduler.RunAll(ctx, jobName)
	} else {
		var metric jobscheduler.Metric
		metric, err = h.jobScheduler.Run(ctx, jobName, req.LeagueID)
		metrics = []jobscheduler.Metric{metric}
	}
	if err != nil {
		trail.record(ctx, jobscheduler.StatusFailed, err)
		h.logger.WarnContext(ctx, "run internal job failed", "job_name", jobName, "league_id", req.LeagueID, "error", err)
		writeError(ctx, w, err)
		return
	}
	trail.record(ctx, jobscheduler.StatusCompleted, nil)

	writeSuccess(ctx, w, http.StatusOK, mapSlice(metrics, jobMetricToDTO))
}

func (h *Handler) ListJobMetrics(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListJobMetrics")
	defer span.End()

	if h.jobScheduler == nil {
		writeError(ctx, w, fmt.Errorf("%w: job scheduler is not configured", usecase.ErrDependencyUnavailable))
		return
	}
	limit, err := queryLimit(r, defaultJobListLimit, maxJobListLimit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(h.jobScheduler.RecentMetrics(limit), jobMetricToDTO))
}

func (h *Handler) ListJobDispatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListJobDispatches")
	defer span.End()

	if h.jobDispatchRepo == nil {
		writeError(ctx, w, fmt.Errorf("%w: job dispatch store is not configured", usecase.ErrDependencyUnavailable))
		return
	}
	limit, err := queryLimit(r, defaultJobListLimit, maxJobListLimit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	events, err := h.jobDispatchRepo.ListEvents(ctx, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list job dispatches failed", "error", err)
		writeError(ctx, w, fmt.Errorf("%w: list job dispatches: %v", usecase.ErrDependencyUnavailable, err))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(events, dispatchEventToDTO))
}

// dispatchTrail writes the sent, completed and failed events of one internal job call.
type dispatchTrail struct {
	h    *Handler
	base jobscheduler.DispatchEvent
}

func (h *Handler) newDispatchTrail(req internalJobRequest, jobName, jobPath string) dispatchTrail {
	payload := map[string]any{"league_id": req.LeagueID, "dispatch_id": req.DispatchID}
	return dispatchTrail{h: h, base: jobscheduler.DispatchEvent{
		DispatchID: req.DispatchID,
		JobName:    jobName,
		JobPath:    jobPath,
		LeagueID:   req.LeagueID,
		Payload:    payload,
	}}
}

func (t dispatchTrail) record(ctx context.Context, status jobscheduler.DispatchStatus, cause error) {
	if t.h.jobDispatchRepo == nil {
		return
	}

	event := t.base
	event.Status = status
	event.OccurredAt = t.h.now().UTC()
	if cause != nil {
		event.ErrorMessage = cause.Error()
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		event.TraceID, event.SpanID = sc.TraceID().String(), sc.SpanID().String()
	}

	if err := t.h.jobDispatchRepo.UpsertEvent(ctx, event); err != nil {
		t.h.logger.WarnContext(ctx, "record internal job dispatch failed",
			"dispatch_id", event.DispatchID,
			"status", event.Status,
			"error", err,
		)
	}
}

// manualDispatchID names a dispatch that arrived without one, e.g. a curl from an operator.
func manualDispatchID(jobName, leagueID string, now time.Time) string {
	if leagueID == "" {
		leagueID = "all"
	}
	parts := []string{"manual", jobName, leagueID, now.UTC().Format("20060102T150405.000000000Z")}
	for i, part := range parts {
		parts[i] = dispatchUnsafeChars.ReplaceAllString(part, "-")
	}
	return strings.Join(parts, "-")
}
